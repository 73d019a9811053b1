package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bmordue/webdav-mcp/internal/version"
)

var (
	versionFormat *enumValue
	versionShort  bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for webdav-mcp including:

- Version number
- Git commit hash
- Build timestamp
- Go version and target platform

Examples:
  webdav-mcp version
  webdav-mcp version --short
  webdav-mcp version --format json`,
	Args: cobra.NoArgs,
	// Version output needs no configuration.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE:              runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionFormat = newEnumValue(formatText, formatText, formatJSON)
	versionCmd.Flags().VarP(versionFormat, "format", "f", "Output format")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
}

func runVersionCommand(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if versionFormat.String() == formatJSON {
		return writeJSON(out, version.GetBuildInfo())
	}
	if versionShort {
		_, err := fmt.Fprintln(out, version.GetShortVersion())
		return err
	}
	return writeVersionText(out, version.GetBuildInfo())
}

func writeVersionText(w io.Writer, info *version.BuildInfo) error {
	fmt.Fprintf(w, "%s %s", version.Name, info.Version)
	if info.GitCommit != "unknown" && len(info.GitCommit) >= 7 {
		fmt.Fprintf(w, " (%s)", info.GitCommit[:7])
	}
	if info.Dirty {
		fmt.Fprint(w, " (dirty)")
	}
	fmt.Fprintln(w)

	if !info.BuildTime.IsZero() {
		fmt.Fprintf(w, "Built: %s\n", info.BuildTime.UTC().Format("2006-01-02 15:04:05 UTC"))
	}
	fmt.Fprintf(w, "Go: %s\n", info.GoVersion)
	_, err := fmt.Fprintf(w, "Platform: %s\n", info.Platform)
	return err
}
