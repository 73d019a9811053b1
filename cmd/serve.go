package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bmordue/webdav-mcp/internal/validation"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Serve MCP tools on stdin/stdout",
	Long: `Serve the WebDAV tools to an MCP client over stdio until the client
disconnects or the process receives SIGINT or SIGTERM.

stdout carries the protocol; logs are written to stderr.

Examples:
  WEBDAV_MCP_SERVER_URL=https://dav.example.com webdav-mcp serve
  webdav-mcp serve --watch --presets-dir ~/.config/webdav-mcp/presets
  webdav-mcp serve --config prod.yml --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("watch", false, "Reload presets as soon as files in the preset directory change")
}

func runServe(cmd *cobra.Command, _ []string) error {
	container, cfg, err := newContainer()
	if err != nil {
		return err
	}
	defer shutdown(container)

	if err := cfg.RequireServer(); err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := container.GetLogger()
	if err != nil {
		return err
	}
	srv, err := container.GetMCPServer()
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if err := container.StartWatching(ctx); err != nil {
		logger.Warn(ctx, err, "Preset watcher unavailable, relying on cache TTL")
	}

	logger.Info(ctx, "Forwarding MCP tool calls",
		"server", validation.RedactURL(cfg.Server.URL),
		"presets_dir", cfg.Presets.Dir,
		"watch", cfg.Presets.Watch)

	if err := srv.ServeStdio(ctx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info(context.Background(), "MCP server stopped")
	return nil
}
