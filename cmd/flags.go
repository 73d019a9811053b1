package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Output formats.
const (
	formatTable = "table"
	formatText  = "text"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// enumValue is a string flag restricted to a fixed set of values. Bad values
// are rejected while flags are parsed, before the command runs.
type enumValue struct {
	value   string
	allowed []string
}

var _ pflag.Value = (*enumValue)(nil)

func newEnumValue(def string, allowed ...string) *enumValue {
	return &enumValue{value: def, allowed: allowed}
}

func (e *enumValue) String() string { return e.value }

func (e *enumValue) Type() string { return strings.Join(e.allowed, "|") }

func (e *enumValue) Set(v string) error {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range e.allowed {
		if v == a {
			e.value = v
			return nil
		}
	}
	return fmt.Errorf("invalid value %q, must be one of: %s", v, strings.Join(e.allowed, ", "))
}

// addOutputFlag registers -o/--output on cmd.
func addOutputFlag(cmd *cobra.Command, def string, allowed ...string) *enumValue {
	v := newEnumValue(def, allowed...)
	cmd.Flags().VarP(v, "output", "o", "Output format")
	return v
}

// flagBindings maps flag names to the configuration keys they override.
var flagBindings = map[string]string{
	"log-level":   "log.level",
	"presets-dir": "presets.dir",
	"watch":       "presets.watch",
}

// bindFlags binds the flags cmd knows about, inherited ones included, to
// their viper keys. Unchanged flags do not mask environment or file values.
func bindFlags(cmd *cobra.Command) error {
	for name, key := range flagBindings {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}
