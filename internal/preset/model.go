// Package preset discovers, validates, caches and compiles property presets.
//
// A preset is a named, reusable list of WebDAV property identifiers. Presets
// come from two places: a fixed built-in catalogue compiled into the binary,
// and JSON files in a configured directory. The Registry merges both into a
// single view (user files override built-ins by name), caches that view, and
// rebuilds it when it goes stale. The compiler turns a property list into a
// PROPFIND request body.
//
// # File format
//
// Each file with a .json extension holds either one preset object or an
// array of them:
//
//	{
//	  "name": "media",
//	  "description": "Size and type of media files",
//	  "properties": [
//	    {"namespace": "DAV:", "name": "getcontentlength"},
//	    {"namespace": "http://example.com/ns", "name": "duration"}
//	  ]
//	}
//
// Invalid entries are skipped with a log line; they never fail the load.
package preset

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DAVNamespace is the namespace of the core WebDAV properties.
	DAVNamespace = "DAV:"

	// MaxProperties is the largest property list a preset may carry.
	MaxProperties = 100

	// MaxPresets caps the merged view, built-ins included.
	MaxPresets = 200
)

// PropertyDefinition identifies one WebDAV property.
type PropertyDefinition struct {
	Namespace string `json:"namespace" yaml:"namespace"`
	Name      string `json:"name" yaml:"name"`
}

// Key returns the identity key used for de-duplication.
func (p PropertyDefinition) Key() string {
	return p.Namespace + "::" + p.Name
}

func (p PropertyDefinition) String() string {
	return p.Key()
}

// PropertyPreset is a named property list.
type PropertyPreset struct {
	Name        string               `json:"name" yaml:"name"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Properties  []PropertyDefinition `json:"properties" yaml:"properties"`
	Builtin     bool                 `json:"builtin" yaml:"builtin"`
}

// Descriptor is the summary form of a preset used for listings.
type Descriptor struct {
	Name          string `json:"name" yaml:"name"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty"`
	PropertyCount int    `json:"propertyCount" yaml:"propertyCount"`
	Builtin       bool   `json:"builtin" yaml:"builtin"`
}

// Describe returns the descriptor of p.
func (p PropertyPreset) Describe() Descriptor {
	return Descriptor{
		Name:          p.Name,
		Description:   p.Description,
		PropertyCount: len(p.Properties),
		Builtin:       p.Builtin,
	}
}

// ErrNotFound is matched by NotFoundError via errors.Is.
var ErrNotFound = errors.New("preset not found")

// NotFoundError reports an unknown preset name together with the names that
// are currently known, so the caller can pick a valid one.
type NotFoundError struct {
	Name  string
	Known []string
}

func (e *NotFoundError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("preset %q not found (no presets available)", e.Name)
	}
	return fmt.Sprintf("preset %q not found; available presets: %s", e.Name, strings.Join(e.Known, ", "))
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ParseProperty parses the "namespace::name" form produced by Key. Both
// halves may themselves contain colons ("DAV:::getetag"), so every split
// point is tried from the left and the first valid one wins.
func ParseProperty(s string) (PropertyDefinition, error) {
	reason := "expected namespace::name"
	for i := 0; i+2 <= len(s); i++ {
		if s[i] != ':' || s[i+1] != ':' {
			continue
		}
		p := PropertyDefinition{Namespace: s[:i], Name: s[i+2:]}
		if r := checkProperty(p); r != "" {
			reason = r
			continue
		}
		return p, nil
	}
	return PropertyDefinition{}, fmt.Errorf("property %q: %s", s, reason)
}
