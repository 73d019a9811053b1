// Package mcpserver exposes WebDAV operations and the preset registry as MCP
// tools over stdio.
package mcpserver

import (
	"context"
	"io"
	"log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/bmordue/webdav-mcp/internal/logging"
	"github.com/bmordue/webdav-mcp/internal/preset"
	"github.com/bmordue/webdav-mcp/internal/version"
	"github.com/bmordue/webdav-mcp/internal/webdav"
)

// Dispatcher is the subset of the WebDAV client the tools use.
type Dispatcher interface {
	Do(ctx context.Context, req webdav.Request) (*webdav.Response, error)
	Propfind(ctx context.Context, path, depth, body string) (*webdav.Response, error)
	Proppatch(ctx context.Context, path, body string) (*webdav.Response, error)
	Get(ctx context.Context, path string) (*webdav.Response, error)
	Put(ctx context.Context, path, content, contentType string) (*webdav.Response, error)
	Delete(ctx context.Context, path string) (*webdav.Response, error)
	Mkcol(ctx context.Context, path string) (*webdav.Response, error)
	Copy(ctx context.Context, src, dst string, overwrite bool) (*webdav.Response, error)
	Move(ctx context.Context, src, dst string, overwrite bool) (*webdav.Response, error)
}

// Deps are the collaborators of a Server. Client may be nil, in which case
// only the preset tools are usable.
type Deps struct {
	Client   Dispatcher
	Registry *preset.Registry
	Logger   logging.Logger
}

// Server owns the MCP server and its tool handlers.
type Server struct {
	mcp      *server.MCPServer
	client   Dispatcher
	registry *preset.Registry
	logger   logging.Logger
}

// New builds a Server and registers every tool.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	s := &Server{
		mcp: server.NewMCPServer(
			version.Name,
			version.GetVersion(),
			server.WithToolCapabilities(true),
			server.WithRecovery(),
		),
		client:   deps.Client,
		registry: deps.Registry,
		logger:   logger.WithComponent("mcp"),
	}
	s.registerTools()
	return s
}

// MCP returns the underlying mcp-go server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio reads JSON-RPC frames from in and writes replies to out until
// ctx is cancelled or in is closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(log.New(logWriter{ctx: ctx, logger: s.logger}, "", 0))

	s.logger.Info(ctx, "MCP server listening on stdio", "version", version.GetVersion())
	err := stdio.Listen(ctx, in, out)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// logWriter forwards the stdio transport's log.Logger output to Logger.
type logWriter struct {
	ctx    context.Context
	logger logging.Logger
}

func (w logWriter) Write(p []byte) (int, error) {
	msg := string(p)
	for len(msg) > 0 && msg[len(msg)-1] == '\n' {
		msg = msg[:len(msg)-1]
	}
	w.logger.Warn(w.ctx, nil, "stdio transport", "detail", msg)
	return len(p), nil
}
