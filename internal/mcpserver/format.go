package mcpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"

	apperrors "github.com/bmordue/webdav-mcp/internal/errors"
	"github.com/bmordue/webdav-mcp/internal/preset"
	"github.com/bmordue/webdav-mcp/internal/webdav"
)

// reportedHeaders are copied into tool results when present.
var reportedHeaders = []string{
	"Content-Type",
	"Content-Length",
	"ETag",
	"Last-Modified",
	"Location",
	"DAV",
	"Allow",
	"Lock-Token",
}

// formatResponse renders a status line, the interesting headers, a blank
// line and the body.
func formatResponse(resp *webdav.Response) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(fmt.Sprintf("HTTP %d %s", resp.Status, resp.StatusText)))
	b.WriteByte('\n')

	for _, h := range reportedHeaders {
		if v := resp.Headers.Get(h); v != "" {
			fmt.Fprintf(&b, "%s: %s\n", h, v)
		}
	}

	body := resp.Body
	if resp.Truncated {
		body = trimPartialRune(body)
		fmt.Fprintf(&b, "[body truncated to %s]\n", humanize.Bytes(uint64(len(body))))
	}

	if len(body) == 0 {
		return strings.TrimRight(b.String(), "\n")
	}
	b.WriteByte('\n')
	if !utf8.Valid(body) {
		fmt.Fprintf(&b, "[binary content, %s]", humanize.Bytes(uint64(len(body))))
		return b.String()
	}
	b.Write(body)
	return b.String()
}

// trimPartialRune drops an incomplete UTF-8 sequence left at the end of a
// truncated body.
func trimPartialRune(body []byte) []byte {
	for i := 0; i < utf8.UTFMax && len(body) > 0; i++ {
		if utf8.Valid(body) {
			return body
		}
		r, size := utf8.DecodeLastRune(body)
		if r != utf8.RuneError || size != 1 {
			return body
		}
		body = body[:len(body)-1]
	}
	return body
}

// responseResult wraps resp; non-2xx statuses are flagged as errors so the
// caller notices, but the server's reply is still shown.
func responseResult(resp *webdav.Response) *mcp.CallToolResult {
	result := mcp.NewToolResultText(formatResponse(resp))
	result.IsError = apperrors.IsUpstreamError(resp.Err())
	return result
}

// errorResult maps err to a tool error. Tool failures are reported in the
// result, never as JSON-RPC errors.
func errorResult(err error) *mcp.CallToolResult {
	var nf *preset.NotFoundError
	if errors.As(err, &nf) {
		return mcp.NewToolResultError(fmt.Sprintf("preset %q not found; known presets: %s",
			nf.Name, strings.Join(nf.Known, ", ")))
	}
	switch apperrors.GetErrorType(err) {
	case apperrors.ErrorTypeValidation:
		return mcp.NewToolResultError("invalid argument: " + err.Error())
	case apperrors.ErrorTypeNetwork:
		return mcp.NewToolResultError("request failed: " + err.Error())
	case apperrors.ErrorTypeConfig:
		return mcp.NewToolResultError("not configured: " + err.Error())
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func jsonResult(v interface{}) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(apperrors.NewInternalError(apperrors.ErrCodeInternalError, "cannot encode result", err))
	}
	return mcp.NewToolResultText(string(data))
}
