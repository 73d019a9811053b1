package preset

import (
	"errors"
	"strconv"
	"strings"
)

// ErrNoProperties is returned by ToRequestBody for an empty property list.
var ErrNoProperties = errors.New("no properties to request")

const davAlias = "D"

// Merge appends extra to base and drops repeated properties, keeping the
// first occurrence of each namespace::name key. The inputs are not modified.
func Merge(base, extra []PropertyDefinition) []PropertyDefinition {
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]PropertyDefinition, 0, len(base)+len(extra))
	for _, list := range [][]PropertyDefinition{base, extra} {
		for _, p := range list {
			k := p.Key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// ToRequestBody renders props as a PROPFIND request body. "DAV:" is bound to
// the prefix D and every other namespace to N0, N1, ... in order of first
// appearance, so equal inputs always produce identical output.
//
// Namespace URIs are attribute-escaped. Property names are written as-is:
// they are limited to [-_a-zA-Z0-9:.] by Validate and ParseProperty.
func ToRequestBody(props []PropertyDefinition) (string, error) {
	if len(props) == 0 {
		return "", ErrNoProperties
	}

	aliases := map[string]string{DAVNamespace: davAlias}
	var order []string
	for _, p := range props {
		if _, ok := aliases[p.Namespace]; ok {
			continue
		}
		aliases[p.Namespace] = "N" + strconv.Itoa(len(order))
		order = append(order, p.Namespace)
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteString("\n")
	b.WriteString(`<D:propfind xmlns:D="DAV:"`)
	for _, ns := range order {
		b.WriteString(" xmlns:")
		b.WriteString(aliases[ns])
		b.WriteString(`="`)
		b.WriteString(attrEscaper.Replace(ns))
		b.WriteString(`"`)
	}
	b.WriteString("><D:prop>")
	for _, p := range props {
		b.WriteString("<")
		b.WriteString(aliases[p.Namespace])
		b.WriteString(":")
		b.WriteString(p.Name)
		b.WriteString("/>")
	}
	b.WriteString("</D:prop></D:propfind>")
	return b.String(), nil
}

// AllPropBody is the request body used when no properties are specified.
const AllPropBody = `<?xml version="1.0" encoding="utf-8"?>` + "\n" +
	`<D:propfind xmlns:D="DAV:"><D:allprop/></D:propfind>`
