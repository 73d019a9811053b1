package preset

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	presetNamePattern   = regexp.MustCompile(`^[-_a-zA-Z0-9]+$`)
	propertyNamePattern = regexp.MustCompile(`^[-_a-zA-Z0-9:.]+$`)
)

// Result is the outcome of Validate. Exactly one of Preset and Reason is set.
type Result struct {
	Preset *PropertyPreset
	Reason string

	// Dropped describes property entries that were filtered out of an
	// otherwise usable preset.
	Dropped []string
}

// OK reports whether the candidate was accepted.
func (r Result) OK() bool {
	return r.Preset != nil
}

func rejected(format string, args ...interface{}) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// Validate turns an arbitrary decoded JSON value into a preset or rejects it.
// Bad property entries are dropped individually; the preset as a whole is
// rejected only when its name is unusable or no valid properties remain. Any
// "builtin" field in raw is ignored.
func Validate(raw interface{}) Result {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return rejected("preset must be a JSON object, got %s", jsonKind(raw))
	}

	name, ok := obj["name"].(string)
	if !ok {
		return rejected("preset name must be a string")
	}
	if strings.TrimSpace(name) == "" {
		return rejected("preset name is empty")
	}
	if !ValidPresetName(name) {
		return rejected("preset name %q must match %s", name, presetNamePattern)
	}

	rawProps, ok := obj["properties"].([]interface{})
	if !ok {
		return rejected("preset %q: properties must be a list", name)
	}

	var dropped []string
	props := make([]PropertyDefinition, 0, len(rawProps))
	for i, rp := range rawProps {
		p, reason := validateProperty(rp)
		if reason != "" {
			dropped = append(dropped, fmt.Sprintf("properties[%d]: %s", i, reason))
			continue
		}
		props = append(props, p)
	}

	switch {
	case len(props) == 0:
		return Result{
			Reason:  fmt.Sprintf("preset %q has no valid properties", name),
			Dropped: dropped,
		}
	case len(props) > MaxProperties:
		return Result{
			Reason:  fmt.Sprintf("preset %q has %d properties (max %d)", name, len(props), MaxProperties),
			Dropped: dropped,
		}
	}

	preset := &PropertyPreset{
		Name:       name,
		Properties: props,
	}
	if desc, ok := obj["description"].(string); ok {
		preset.Description = desc
	}
	return Result{Preset: preset, Dropped: dropped}
}

func validateProperty(raw interface{}) (PropertyDefinition, string) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return PropertyDefinition{}, "not an object"
	}
	ns, ok := obj["namespace"].(string)
	if !ok {
		return PropertyDefinition{}, "missing namespace"
	}
	name, ok := obj["name"].(string)
	if !ok {
		return PropertyDefinition{}, "missing name"
	}
	p := PropertyDefinition{Namespace: ns, Name: name}
	return p, checkProperty(p)
}

// checkProperty returns an empty string when p is well formed.
func checkProperty(p PropertyDefinition) string {
	if !ValidNamespace(p.Namespace) {
		return fmt.Sprintf("namespace %q is neither %q nor an absolute URI", p.Namespace, DAVNamespace)
	}
	if !propertyNamePattern.MatchString(p.Name) {
		return fmt.Sprintf("property name %q must match %s", p.Name, propertyNamePattern)
	}
	return ""
}

// ValidPresetName reports whether name is usable as a preset name.
func ValidPresetName(name string) bool {
	return presetNamePattern.MatchString(name)
}

// ValidNamespace reports whether ns is "DAV:" or an absolute URI.
func ValidNamespace(ns string) bool {
	if ns == DAVNamespace {
		return true
	}
	if ns == "" {
		return false
	}
	u, err := url.Parse(ns)
	return err == nil && u.Scheme != ""
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// ParseProperties converts a caller-supplied property list into definitions.
// Unlike Validate, which filters file content leniently, every element must
// be valid: either a {"namespace","name"} object or a "namespace::name"
// string. A nil raw value yields no properties.
func ParseProperties(raw interface{}) ([]PropertyDefinition, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("properties must be a list, got %s", jsonKind(raw))
	}
	if len(list) > MaxProperties {
		return nil, fmt.Errorf("at most %d properties may be given, got %d", MaxProperties, len(list))
	}

	out := make([]PropertyDefinition, 0, len(list))
	for i, item := range list {
		if s, ok := item.(string); ok {
			p, err := ParseProperty(s)
			if err != nil {
				return nil, fmt.Errorf("properties[%d]: %w", i, err)
			}
			out = append(out, p)
			continue
		}
		p, reason := validateProperty(item)
		if reason != "" {
			return nil, fmt.Errorf("properties[%d]: %s", i, reason)
		}
		out = append(out, p)
	}
	return out, nil
}
