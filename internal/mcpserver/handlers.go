package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	apperrors "github.com/bmordue/webdav-mcp/internal/errors"
	"github.com/bmordue/webdav-mcp/internal/logging"
	"github.com/bmordue/webdav-mcp/internal/preset"
	"github.com/bmordue/webdav-mcp/internal/webdav"
)

type toolHandler func(ctx context.Context, logger logging.Logger, req mcp.CallToolRequest) *mcp.CallToolResult

// withRequestID tags every call with a fresh id and times it.
func (s *Server) withRequestID(tool string, h toolHandler) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger := s.logger.With("tool", tool, "request_id", uuid.NewString())
		perf := logging.StartOperation(logger, tool)

		result := h(ctx, logger, req)
		if result.IsError {
			perf.EndWithError(ctx, errors.New(logging.SanitizeForLog(summary(result))))
			return result, nil
		}
		perf.End(ctx)
		return result, nil
	}
}

// summary is the first line of a result's text, which for responses is the
// status line.
func summary(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if text, ok := c.(mcp.TextContent); ok {
			line, _, _ := strings.Cut(text.Text, "\n")
			return line
		}
	}
	return "tool error"
}

func errNoServer() error {
	return apperrors.NewConfigError(apperrors.ErrCodeServerMissing, "no WebDAV server is configured")
}

// dispatch runs fn against the client and renders its response.
func (s *Server) dispatch(fn func(c Dispatcher) (*webdav.Response, error)) *mcp.CallToolResult {
	if s.client == nil {
		return errorResult(errNoServer())
	}
	resp, err := fn(s.client)
	if err != nil {
		return errorResult(err)
	}
	return responseResult(resp)
}

func invalidArgument(err error) error {
	return apperrors.WrapValidation(err, apperrors.ErrCodeValidationFailed, "bad arguments")
}

func (s *Server) handlePropfind(ctx context.Context, logger logging.Logger, req mcp.CallToolRequest) *mcp.CallToolResult {
	path, err := req.RequireString("path")
	if err != nil {
		return errorResult(invalidArgument(err))
	}
	body, source, err := s.propfindBody(req)
	if err != nil {
		return errorResult(err)
	}
	logger.Debug(ctx, "PROPFIND body selected", "source", source, "path", path)

	depth := req.GetString("depth", webdav.DepthOne)
	return s.dispatch(func(c Dispatcher) (*webdav.Response, error) {
		return c.Propfind(ctx, path, depth, body)
	})
}

// Body sources reported by propfindBody.
const (
	sourceBody       = "body"
	sourcePreset     = "preset"
	sourceProperties = "properties"
	sourceAllProp    = "allprop"
)

// propfindBody picks the request body: an explicit body wins, then a preset
// merged with any extra properties, then the properties alone, then allprop.
func (s *Server) propfindBody(req mcp.CallToolRequest) (string, string, error) {
	if body := req.GetString("body", ""); body != "" {
		return body, sourceBody, nil
	}

	extra, err := preset.ParseProperties(req.GetArguments()[propertiesArgument])
	if err != nil {
		return "", "", invalidArgument(err)
	}

	if name := req.GetString("preset", ""); name != "" {
		if s.registry == nil {
			return "", "", apperrors.NewConfigError(apperrors.ErrCodeConfigInvalid, "presets are not available")
		}
		body, err := s.registry.Resolve(name, extra)
		if err != nil {
			return "", "", err
		}
		return body, sourcePreset, nil
	}

	if len(extra) > 0 {
		body, err := preset.ToRequestBody(preset.Merge(extra, nil))
		if err != nil {
			return "", "", invalidArgument(err)
		}
		return body, sourceProperties, nil
	}

	return preset.AllPropBody, sourceAllProp, nil
}

func (s *Server) handleGet(ctx context.Context, _ logging.Logger, req mcp.CallToolRequest) *mcp.CallToolResult {
	path, err := req.RequireString("path")
	if err != nil {
		return errorResult(invalidArgument(err))
	}
	return s.dispatch(func(c Dispatcher) (*webdav.Response, error) {
		return c.Get(ctx, path)
	})
}

func (s *Server) handlePut(ctx context.Context, _ logging.Logger, req mcp.CallToolRequest) *mcp.CallToolResult {
	path, err := req.RequireString("path")
	if err != nil {
		return errorResult(invalidArgument(err))
	}
	content, err := req.RequireString("content")
	if err != nil {
		return errorResult(invalidArgument(err))
	}
	contentType := req.GetString("content_type", "")
	return s.dispatch(func(c Dispatcher) (*webdav.Response, error) {
		return c.Put(ctx, path, content, contentType)
	})
}

func (s *Server) handleDelete(ctx context.Context, _ logging.Logger, req mcp.CallToolRequest) *mcp.CallToolResult {
	path, err := req.RequireString("path")
	if err != nil {
		return errorResult(invalidArgument(err))
	}
	return s.dispatch(func(c Dispatcher) (*webdav.Response, error) {
		return c.Delete(ctx, path)
	})
}

func (s *Server) handleMkcol(ctx context.Context, _ logging.Logger, req mcp.CallToolRequest) *mcp.CallToolResult {
	path, err := req.RequireString("path")
	if err != nil {
		return errorResult(invalidArgument(err))
	}
	return s.dispatch(func(c Dispatcher) (*webdav.Response, error) {
		return c.Mkcol(ctx, path)
	})
}

func transferArgs(req mcp.CallToolRequest) (string, string, bool, error) {
	src, err := req.RequireString("source")
	if err != nil {
		return "", "", false, invalidArgument(err)
	}
	dst, err := req.RequireString("destination")
	if err != nil {
		return "", "", false, invalidArgument(err)
	}
	return src, dst, req.GetBool("overwrite", false), nil
}

func (s *Server) handleCopy(ctx context.Context, _ logging.Logger, req mcp.CallToolRequest) *mcp.CallToolResult {
	src, dst, overwrite, err := transferArgs(req)
	if err != nil {
		return errorResult(err)
	}
	return s.dispatch(func(c Dispatcher) (*webdav.Response, error) {
		return c.Copy(ctx, src, dst, overwrite)
	})
}

func (s *Server) handleMove(ctx context.Context, _ logging.Logger, req mcp.CallToolRequest) *mcp.CallToolResult {
	src, dst, overwrite, err := transferArgs(req)
	if err != nil {
		return errorResult(err)
	}
	return s.dispatch(func(c Dispatcher) (*webdav.Response, error) {
		return c.Move(ctx, src, dst, overwrite)
	})
}

func (s *Server) handleProppatch(ctx context.Context, _ logging.Logger, req mcp.CallToolRequest) *mcp.CallToolResult {
	path, err := req.RequireString("path")
	if err != nil {
		return errorResult(invalidArgument(err))
	}
	body, err := req.RequireString("body")
	if err != nil {
		return errorResult(invalidArgument(err))
	}
	return s.dispatch(func(c Dispatcher) (*webdav.Response, error) {
		return c.Proppatch(ctx, path, body)
	})
}

func (s *Server) handleRequest(ctx context.Context, _ logging.Logger, req mcp.CallToolRequest) *mcp.CallToolResult {
	method, err := req.RequireString("method")
	if err != nil {
		return errorResult(invalidArgument(err))
	}
	path, err := req.RequireString("path")
	if err != nil {
		return errorResult(invalidArgument(err))
	}
	headers, err := stringMap(req.GetArguments()["headers"])
	if err != nil {
		return errorResult(invalidArgument(err))
	}
	r := webdav.Request{Method: method, Path: path, Headers: headers, Body: req.GetString("body", "")}
	return s.dispatch(func(c Dispatcher) (*webdav.Response, error) {
		return c.Do(ctx, r)
	})
}

func stringMap(raw interface{}) (map[string]string, error) {
	if raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("headers must be an object")
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("header %s must be a string", k)
		}
		out[k] = s
	}
	return out, nil
}

func (s *Server) handleListPresets(ctx context.Context, _ logging.Logger, _ mcp.CallToolRequest) *mcp.CallToolResult {
	if s.registry == nil {
		return jsonResult([]preset.Descriptor{})
	}
	return jsonResult(s.registry.Descriptors())
}

func (s *Server) handleGetPreset(ctx context.Context, _ logging.Logger, req mcp.CallToolRequest) *mcp.CallToolResult {
	name, err := req.RequireString("name")
	if err != nil {
		return errorResult(invalidArgument(err))
	}
	if s.registry == nil {
		return errorResult(apperrors.NewConfigError(apperrors.ErrCodeConfigInvalid, "presets are not available"))
	}
	p, err := s.registry.Get(name)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(p)
}

func (s *Server) handleRenderPreset(ctx context.Context, _ logging.Logger, req mcp.CallToolRequest) *mcp.CallToolResult {
	name, err := req.RequireString("name")
	if err != nil {
		return errorResult(invalidArgument(err))
	}
	extra, err := preset.ParseProperties(req.GetArguments()[propertiesArgument])
	if err != nil {
		return errorResult(invalidArgument(err))
	}
	if s.registry == nil {
		return errorResult(apperrors.NewConfigError(apperrors.ErrCodeConfigInvalid, "presets are not available"))
	}
	body, err := s.registry.Resolve(name, extra)
	if err != nil {
		return errorResult(err)
	}
	return mcp.NewToolResultText(body)
}
