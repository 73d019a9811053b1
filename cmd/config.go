package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bmordue/webdav-mcp/internal/config"
	"github.com/bmordue/webdav-mcp/internal/validation"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect webdav-mcp configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	Long: `Display the configuration after flags, environment variables, the config
file and defaults have been merged. Credentials are redacted.

Examples:
  webdav-mcp config show
  webdav-mcp config show -o json
  WEBDAV_MCP_LOG_LEVEL=debug webdav-mcp config show`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configShowOutput *enumValue

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)

	configShowOutput = addOutputFlag(configShowCmd, formatYAML, formatYAML, formatJSON)
}

const redacted = "********"

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	shown := *cfg
	shown.Server.URL = validation.RedactURL(cfg.Server.URL)
	if shown.Server.Password != "" {
		shown.Server.Password = redacted
	}

	out := cmd.OutOrStdout()
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Config file: %s\n", used)
	}
	if configShowOutput.String() == formatJSON {
		return writeJSON(out, shown)
	}
	return writeYAML(out, shown)
}
