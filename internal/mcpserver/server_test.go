package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/bmordue/webdav-mcp/internal/errors"
	"github.com/bmordue/webdav-mcp/internal/logging"
	"github.com/bmordue/webdav-mcp/internal/preset"
	"github.com/bmordue/webdav-mcp/internal/testutils"
	"github.com/bmordue/webdav-mcp/internal/webdav"
)

type fixture struct {
	server   *Server
	registry *preset.Registry
	dir      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dav := testutils.NewDAVServer(t, "/dav")

	client, err := webdav.NewClient(webdav.Options{BaseURL: dav.URL + "/dav", Timeout: 5 * time.Second})
	require.NoError(t, err)

	dir := t.TempDir()
	reg := preset.NewRegistry(dir, 0)
	return &fixture{
		server:   New(Deps{Client: client, Registry: reg, Logger: logging.Nop()}),
		registry: reg,
		dir:      dir,
	}
}

func toolRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func call(t *testing.T, h toolHandler, args map[string]any) (string, bool) {
	t.Helper()
	result := h(context.Background(), logging.Nop(), toolRequest("test", args))
	return resultText(t, result), result.IsError
}

// rpc sends one JSON-RPC message through the MCP server and decodes the reply.
func rpc(t *testing.T, s *Server, method string, params any) map[string]any {
	t.Helper()
	msg, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": 1, "method": method, "params": params})
	require.NoError(t, err)

	reply := s.MCP().HandleMessage(context.Background(), msg)
	raw, err := json.Marshal(reply)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestToolsAreRegistered(t *testing.T) {
	f := newFixture(t)
	reply := rpc(t, f.server, "tools/list", map[string]any{})

	result, ok := reply["result"].(map[string]any)
	require.True(t, ok, "reply: %v", reply)
	tools, ok := result["tools"].([]any)
	require.True(t, ok)

	var names []string
	for _, tool := range tools {
		names = append(names, tool.(map[string]any)["name"].(string))
	}
	assert.ElementsMatch(t, []string{
		ToolPropfind, ToolGet, ToolPut, ToolDelete, ToolMkcol, ToolCopy, ToolMove,
		ToolProppatch, ToolRequest, ToolListPresets, ToolGetPreset, ToolRenderPreset,
	}, names)
}

func TestToolCallThroughJSONRPC(t *testing.T) {
	f := newFixture(t)
	reply := rpc(t, f.server, "tools/call", map[string]any{
		"name":      ToolRenderPreset,
		"arguments": map[string]any{"name": "quota"},
	})

	raw, err := json.Marshal(reply["result"])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "quota-used-bytes")
	assert.NotContains(t, string(raw), `"isError":true`)
}

func TestFileRoundTrip(t *testing.T) {
	f := newFixture(t)
	s := f.server

	text, isErr := call(t, s.handleMkcol, map[string]any{"path": "/notes"})
	assert.False(t, isErr, text)
	assert.True(t, strings.HasPrefix(text, "HTTP 201 Created"), text)

	text, isErr = call(t, s.handlePut, map[string]any{
		"path": "/notes/todo.md", "content": "- buy milk\n", "content_type": "text/markdown",
	})
	assert.False(t, isErr, text)

	text, isErr = call(t, s.handleGet, map[string]any{"path": "/notes/todo.md"})
	assert.False(t, isErr)
	assert.True(t, strings.HasPrefix(text, "HTTP 200 OK\n"), text)
	assert.Contains(t, text, "ETag: ")
	assert.True(t, strings.HasSuffix(text, "\n\n- buy milk\n"), text)

	text, isErr = call(t, s.handleCopy, map[string]any{"source": "/notes/todo.md", "destination": "/notes/copy.md"})
	assert.False(t, isErr, text)

	text, isErr = call(t, s.handleMove, map[string]any{
		"source": "/notes/copy.md", "destination": "/notes/todo.md", "overwrite": false,
	})
	assert.True(t, isErr, "move onto existing file without overwrite must fail")
	assert.Contains(t, text, "412")

	text, isErr = call(t, s.handleMove, map[string]any{
		"source": "/notes/copy.md", "destination": "/notes/todo.md", "overwrite": true,
	})
	assert.False(t, isErr, text)

	text, isErr = call(t, s.handleDelete, map[string]any{"path": "/notes/todo.md"})
	assert.False(t, isErr, text)
	assert.True(t, strings.HasPrefix(text, "HTTP 204 No Content"), text)

	text, isErr = call(t, s.handleGet, map[string]any{"path": "/notes/todo.md"})
	assert.True(t, isErr)
	assert.True(t, strings.HasPrefix(text, "HTTP 404 Not Found"), text)
}

func TestPropfindWithPreset(t *testing.T) {
	f := newFixture(t)
	s := f.server

	_, isErr := call(t, s.handlePut, map[string]any{"path": "/a.txt", "content": "hello"})
	require.False(t, isErr)

	text, isErr := call(t, s.handlePropfind, map[string]any{"path": "/", "preset": "basic", "depth": "1"})
	assert.False(t, isErr, text)
	assert.True(t, strings.HasPrefix(text, "HTTP 207 Multi-Status"), text)
	assert.Contains(t, text, "a.txt")
	assert.Contains(t, text, "getcontentlength")
	assert.Contains(t, text, ">5<")
}

func TestPropfindUserPresetIsPickedUp(t *testing.T) {
	f := newFixture(t)
	s := f.server

	_, isErr := call(t, s.handlePut, map[string]any{"path": "/a.txt", "content": "hello"})
	require.False(t, isErr)

	testutils.WritePresetFile(t, f.dir, "etag.json", testutils.PresetJSON(t, "etag-only", "", "getetag"))
	f.registry.Invalidate()

	text, isErr := call(t, s.handlePropfind, map[string]any{"path": "/a.txt", "preset": "etag-only", "depth": "0"})
	assert.False(t, isErr, text)
	assert.Contains(t, text, "getetag")
	assert.NotContains(t, text, "getcontentlength")
}

func TestPropfindBodySelection(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name       string
		args       map[string]any
		wantSource string
		contains   []string
		wantErr    func(error) bool
	}{
		{
			name:       "explicit body wins",
			args:       map[string]any{"body": "<custom/>", "preset": "basic", "properties": []any{"DAV:::getetag"}},
			wantSource: sourceBody,
			contains:   []string{"<custom/>"},
		},
		{
			name:       "preset merged with properties",
			args:       map[string]any{"preset": "quota", "properties": []any{"http://owncloud.org/ns::size", "DAV:::quota-used-bytes"}},
			wantSource: sourcePreset,
			contains:   []string{"<D:quota-available-bytes/>", "<N0:size/>"},
		},
		{
			name:       "properties alone",
			args:       map[string]any{"properties": []any{map[string]any{"namespace": "DAV:", "name": "getetag"}, "DAV:::getetag"}},
			wantSource: sourceProperties,
			contains:   []string{"<D:prop><D:getetag/></D:prop>"},
		},
		{
			name:       "allprop fallback",
			args:       map[string]any{},
			wantSource: sourceAllProp,
			contains:   []string{"<D:allprop/>"},
		},
		{
			name:    "unknown preset",
			args:    map[string]any{"preset": "nope"},
			wantErr: func(err error) bool { return errors.Is(err, preset.ErrNotFound) },
		},
		{
			name:    "malformed properties",
			args:    map[string]any{"properties": []any{"getetag"}},
			wantErr: apperrors.IsValidationError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, source, err := f.server.propfindBody(toolRequest(ToolPropfind, tt.args))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err), err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, source)
			for _, c := range tt.contains {
				assert.Contains(t, body, c)
			}
		})
	}
}

func TestPropfindRejectsBadDepth(t *testing.T) {
	f := newFixture(t)
	text, isErr := call(t, f.server.handlePropfind, map[string]any{"path": "/", "depth": "2"})
	assert.True(t, isErr)
	assert.Contains(t, text, "invalid argument")
	assert.Contains(t, text, "depth")
}

func TestPathTraversalIsRejected(t *testing.T) {
	f := newFixture(t)
	for _, p := range testutils.PathTraversal {
		text, isErr := call(t, f.server.handleGet, map[string]any{"path": p})
		assert.True(t, isErr, p)
		assert.Contains(t, text, "invalid argument", p)
	}
}

func TestMissingArguments(t *testing.T) {
	f := newFixture(t)
	for name, h := range map[string]toolHandler{
		ToolGet:          f.server.handleGet,
		ToolPut:          f.server.handlePut,
		ToolCopy:         f.server.handleCopy,
		ToolProppatch:    f.server.handleProppatch,
		ToolRequest:      f.server.handleRequest,
		ToolGetPreset:    f.server.handleGetPreset,
		ToolRenderPreset: f.server.handleRenderPreset,
	} {
		t.Run(name, func(t *testing.T) {
			text, isErr := call(t, h, map[string]any{})
			assert.True(t, isErr)
			assert.Contains(t, text, "invalid argument")
		})
	}
}

func TestGenericRequest(t *testing.T) {
	f := newFixture(t)

	text, isErr := call(t, f.server.handleRequest, map[string]any{"method": "options", "path": "/"})
	assert.False(t, isErr, text)
	assert.Contains(t, text, "DAV: 1, 2")
	assert.Contains(t, text, "Allow: ")

	text, isErr = call(t, f.server.handleRequest, map[string]any{"method": "POST", "path": "/"})
	assert.True(t, isErr)
	assert.Contains(t, text, "not allowed")

	text, isErr = call(t, f.server.handleRequest, map[string]any{
		"method": "PROPFIND", "path": "/", "headers": map[string]any{"Depth": 0},
	})
	assert.True(t, isErr)
	assert.Contains(t, text, "must be a string")
}

func TestPresetTools(t *testing.T) {
	f := newFixture(t)
	s := f.server

	text, isErr := call(t, s.handleListPresets, nil)
	require.False(t, isErr)
	var descriptors []preset.Descriptor
	require.NoError(t, json.Unmarshal([]byte(text), &descriptors))
	require.NotEmpty(t, descriptors)
	assert.Equal(t, "basic", descriptors[0].Name)
	assert.True(t, descriptors[0].Builtin)

	text, isErr = call(t, s.handleGetPreset, map[string]any{"name": "quota"})
	require.False(t, isErr)
	var p preset.PropertyPreset
	require.NoError(t, json.Unmarshal([]byte(text), &p))
	assert.Equal(t, "quota", p.Name)
	assert.Len(t, p.Properties, 2)

	text, isErr = call(t, s.handleGetPreset, map[string]any{"name": "missing"})
	assert.True(t, isErr)
	assert.Contains(t, text, `preset "missing" not found`)
	assert.Contains(t, text, "basic")

	text, isErr = call(t, s.handleRenderPreset, map[string]any{"name": "basic", "properties": []any{"DAV:::getetag"}})
	require.False(t, isErr)
	assert.True(t, strings.HasPrefix(text, `<?xml version="1.0" encoding="utf-8"?>`))
	assert.Contains(t, text, "<D:resourcetype/>")
	assert.Contains(t, text, "<D:getetag/>")
}

func TestWithoutServer(t *testing.T) {
	s := New(Deps{Registry: preset.NewRegistry(t.TempDir(), time.Second)})

	text, isErr := call(t, s.handleGet, map[string]any{"path": "/"})
	assert.True(t, isErr)
	assert.Contains(t, text, "no WebDAV server is configured")

	text, isErr = call(t, s.handleRenderPreset, map[string]any{"name": "basic"})
	assert.False(t, isErr, text)
}

func TestFormatResponse(t *testing.T) {
	headers := http.Header{}
	headers.Set("Content-Type", "text/plain")
	headers.Set("ETag", `"abc"`)
	headers.Set("X-Ignored", "1")

	tests := []struct {
		name string
		resp *webdav.Response
		want string
	}{
		{
			name: "text body",
			resp: &webdav.Response{Status: 200, StatusText: "OK", Headers: headers, Body: []byte("hi")},
			want: "HTTP 200 OK\nContent-Type: text/plain\nETag: \"abc\"\n\nhi",
		},
		{
			name: "empty body",
			resp: &webdav.Response{Status: 204, StatusText: "No Content", Headers: http.Header{}},
			want: "HTTP 204 No Content",
		},
		{
			name: "unknown status text",
			resp: &webdav.Response{Status: 599, Headers: http.Header{}},
			want: "HTTP 599",
		},
		{
			name: "binary",
			resp: &webdav.Response{Status: 200, StatusText: "OK", Headers: http.Header{}, Body: []byte{0xff, 0xfe, 0x00}},
			want: "HTTP 200 OK\n\n[binary content, 3 B]",
		},
		{
			name: "truncated mid rune",
			resp: &webdav.Response{Status: 200, StatusText: "OK", Headers: http.Header{}, Body: []byte("ab\xc3"), Truncated: true},
			want: "HTTP 200 OK\n[body truncated to 2 B]\n\nab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatResponse(tt.resp))
		})
	}
}

// syncBuffer is written by the stdio server goroutine and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestServeStdio(t *testing.T) {
	f := newFixture(t)

	in := strings.NewReader(
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}` + "\n" +
			`{"jsonrpc":"2.0","id":2,"method":"tools/list","params":{}}` + "\n")
	var out syncBuffer

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.server.ServeStdio(ctx, in, &out)
	}()

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), ToolRenderPreset)
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), `"name":"webdav-mcp"`)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("ServeStdio did not return after cancel")
	}
}
