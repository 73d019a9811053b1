// Package cmd provides the command-line interface for webdav-mcp with
// configuration drawn from several sources.
//
// Configuration System:
//
//	Values are resolved with the following precedence:
//	1. Command-line flags (--log-level, --presets-dir, --watch) - highest priority
//	2. Individual environment variables (WEBDAV_MCP_SERVER_URL, etc.)
//	3. Configuration file (--config, WEBDAV_MCP_CONFIG_FILE or .webdav-mcp.yml)
//	4. Built-in defaults - lowest priority
//
// Environment Variables:
//
//	WEBDAV_MCP_CONFIG_FILE: Path to a configuration file
//	WEBDAV_MCP_SERVER_URL: Base URL of the WebDAV server
//	WEBDAV_MCP_SERVER_USERNAME, WEBDAV_MCP_SERVER_PASSWORD: Basic auth credentials
//	And every other key following the WEBDAV_MCP_<SECTION>_<OPTION> pattern
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bmordue/webdav-mcp/internal/config"
	"github.com/bmordue/webdav-mcp/internal/di"
)

// configFileEnv names a config file when --config is not given.
const configFileEnv = config.EnvPrefix + "_CONFIG_FILE"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "webdav-mcp",
	Short: "MCP server that forwards tool calls to a WebDAV server",
	Long: `webdav-mcp exposes a WebDAV server to MCP clients over stdio.

Tools cover PROPFIND, GET, PUT, DELETE, MKCOL, COPY, MOVE, PROPPATCH and
arbitrary WebDAV requests. PROPFIND bodies can be built from named property
presets: a built-in catalogue extended by JSON files in the preset directory.

Quick Start:
  export WEBDAV_MCP_SERVER_URL=https://cloud.example.com/remote.php/dav/files/me
  webdav-mcp serve                 Serve MCP on stdin/stdout
  webdav-mcp presets list          Show available presets
  webdav-mcp presets render basic  Print the PROPFIND body of a preset`,
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := bindFlags(cmd); err != nil {
			return err
		}
		return initConfig()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .webdav-mcp.yml, can also use "+configFileEnv+")")
	flags.StringP("log-level", "l", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("presets-dir", config.DefaultPresetsDir, "directory holding user preset files")
}

// initConfig points viper at the config file and enables environment
// overrides. A missing default file is fine; a missing or unreadable file
// that was asked for explicitly is an error.
func initConfig() error {
	config.ConfigureEnv()

	explicit := cfgFile
	if explicit == "" {
		explicit = os.Getenv(configFileEnv)
	}

	if explicit != "" {
		viper.SetConfigFile(explicit)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".webdav-mcp")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound && explicit == "" {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	// stdout carries the MCP protocol, so diagnostics go to stderr.
	fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	return nil
}

// newContainer loads the configuration and prepares the service container.
func newContainer() (*di.ServiceContainer, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	container := di.NewServiceContainer(cfg)
	if err := container.Initialize(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize service container: %w", err)
	}
	return container, cfg, nil
}

func shutdown(container *di.ServiceContainer) {
	if err := container.Shutdown(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error during shutdown: %v\n", err)
	}
}
