package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bmordue/webdav-mcp/internal/config"
	"github.com/bmordue/webdav-mcp/internal/preset"
)

var presetsCmd = &cobra.Command{
	Use:     "presets",
	Aliases: []string{"p"},
	Short:   "Inspect property presets",
	Long: `Inspect the property presets available to the webdav_propfind tool.

Presets are the built-in catalogue plus every valid preset found in *.json
files in the preset directory (--presets-dir). A user preset with the same
name as a built-in replaces it.`,
}

var presetsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List available presets",
	Long: `List every preset with its property count and origin.

Examples:
  webdav-mcp presets list
  webdav-mcp presets list -o json
  webdav-mcp presets list --presets-dir ./team-presets -o yaml`,
	Args: cobra.NoArgs,
	RunE: runPresetsList,
}

var presetsShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show the properties of a preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetsShow,
}

var presetsRenderCmd = &cobra.Command{
	Use:   "render NAME",
	Short: "Print the PROPFIND body a preset produces",
	Long: `Print the PROPFIND request body for a preset, optionally extended with
extra properties given as namespace::name.

Examples:
  webdav-mcp presets render basic
  webdav-mcp presets render nextcloud --property DAV:::getetag
  webdav-mcp presets render quota -P http://owncloud.org/ns::size`,
	Args: cobra.ExactArgs(1),
	RunE: runPresetsRender,
}

var presetsValidateCmd = &cobra.Command{
	Use:   "validate [FILE...]",
	Short: "Check preset files for problems",
	Long: `Check preset files the way the loader reads them and report rejected
presets and dropped properties. With no arguments every *.json file in the
preset directory is checked. Exits non-zero when any problem is found.`,
	RunE: runPresetsValidate,
}

var (
	presetsListOutput     *enumValue
	presetsShowOutput     *enumValue
	presetsValidateOutput *enumValue
	renderProperties      []string
)

func init() {
	rootCmd.AddCommand(presetsCmd)
	presetsCmd.AddCommand(presetsListCmd, presetsShowCmd, presetsRenderCmd, presetsValidateCmd)

	presetsListOutput = addOutputFlag(presetsListCmd, formatTable, formatTable, formatJSON, formatYAML)
	presetsShowOutput = addOutputFlag(presetsShowCmd, formatJSON, formatJSON, formatYAML)
	presetsValidateOutput = addOutputFlag(presetsValidateCmd, formatText, formatText, formatJSON, formatYAML)
	presetsRenderCmd.Flags().StringArrayVarP(&renderProperties, "property", "P", nil,
		"Extra property as namespace::name (repeatable)")
}

func presetRegistry() (*preset.Registry, func(), error) {
	container, _, err := newContainer()
	if err != nil {
		return nil, nil, err
	}
	reg, err := container.GetRegistry()
	if err != nil {
		shutdown(container)
		return nil, nil, err
	}
	return reg, func() { shutdown(container) }, nil
}

func runPresetsList(cmd *cobra.Command, _ []string) error {
	reg, done, err := presetRegistry()
	if err != nil {
		return err
	}
	defer done()

	descriptors := reg.Descriptors()
	out := cmd.OutOrStdout()
	switch presetsListOutput.String() {
	case formatJSON:
		return writeJSON(out, descriptors)
	case formatYAML:
		return writeYAML(out, descriptors)
	default:
		return writePresetTable(out, descriptors)
	}
}

func writePresetTable(w io.Writer, descriptors []preset.Descriptor) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPROPERTIES\tSOURCE\tDESCRIPTION")
	for _, d := range descriptors {
		source := "user"
		if d.Builtin {
			source = "builtin"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", d.Name, d.PropertyCount, source, d.Description)
	}
	return tw.Flush()
}

func runPresetsShow(cmd *cobra.Command, args []string) error {
	reg, done, err := presetRegistry()
	if err != nil {
		return err
	}
	defer done()

	p, err := reg.Get(args[0])
	if err != nil {
		return err
	}
	if presetsShowOutput.String() == formatYAML {
		return writeYAML(cmd.OutOrStdout(), p)
	}
	return writeJSON(cmd.OutOrStdout(), p)
}

func runPresetsRender(cmd *cobra.Command, args []string) error {
	extra := make([]preset.PropertyDefinition, 0, len(renderProperties))
	for _, raw := range renderProperties {
		p, err := preset.ParseProperty(raw)
		if err != nil {
			return err
		}
		extra = append(extra, p)
	}

	reg, done, err := presetRegistry()
	if err != nil {
		return err
	}
	defer done()

	body, err := reg.Resolve(args[0], extra)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), body)
	return err
}

func runPresetsValidate(cmd *cobra.Command, args []string) error {
	var reports []preset.FileReport
	if len(args) > 0 {
		for _, path := range args {
			reports = append(reports, preset.CheckFile(path))
		}
	} else {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		reports, err = preset.CheckDir(cfg.Presets.Dir)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	var err error
	switch presetsValidateOutput.String() {
	case formatJSON:
		err = writeJSON(out, reports)
	case formatYAML:
		err = writeYAML(out, reports)
	default:
		writeValidationText(out, reports)
	}
	if err != nil {
		return err
	}

	bad := 0
	for _, r := range reports {
		if !r.OK() {
			bad++
		}
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d preset files have problems", bad, len(reports))
	}
	return nil
}

func writeValidationText(w io.Writer, reports []preset.FileReport) {
	if len(reports) == 0 {
		fmt.Fprintln(w, "No preset files found")
		return
	}
	for _, r := range reports {
		status := "ok"
		if !r.OK() {
			status = "problems"
		}
		fmt.Fprintf(w, "%s: %s\n", r.File, status)
		if r.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", r.Error)
		}
		for _, e := range r.Entries {
			label := fmt.Sprintf("[%d]", e.Index)
			if e.Name != "" {
				label += " " + e.Name
			}
			switch {
			case e.Reason != "":
				fmt.Fprintf(w, "  %s rejected: %s\n", label, e.Reason)
			case len(e.Dropped) > 0:
				fmt.Fprintf(w, "  %s dropped %s\n", label, strings.Join(e.Dropped, "; "))
			default:
				fmt.Fprintf(w, "  %s ok\n", label)
			}
		}
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
