//go:build property
// +build property

package preset

import (
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genProperty() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf("DAV:", "http://owncloud.org/ns", "urn:ietf:params:xml:ns:caldav", "http://a.example/?x=1&y=<2>"),
		gen.RegexMatch(`^[a-z][-_a-z0-9:.]{0,12}$`),
	).Map(func(vals []interface{}) PropertyDefinition {
		return PropertyDefinition{Namespace: vals[0].(string), Name: vals[1].(string)}
	})
}

func genProperties() gopter.Gen {
	return gen.SliceOf(genProperty())
}

// TestCompilerProperties checks merge and serialisation properties over random inputs.
func TestCompilerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(4918)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("merge is idempotent", prop.ForAll(
		func(a, b []PropertyDefinition) bool {
			once := Merge(a, b)
			return reflect.DeepEqual(once, Merge(once, b))
		},
		genProperties(), genProperties(),
	))

	properties.Property("merge output has unique keys", prop.ForAll(
		func(a, b []PropertyDefinition) bool {
			seen := map[string]bool{}
			for _, p := range Merge(a, b) {
				if seen[p.Key()] {
					return false
				}
				seen[p.Key()] = true
			}
			return true
		},
		genProperties(), genProperties(),
	))

	properties.Property("merge keeps base as a prefix when base is unique", prop.ForAll(
		func(a, b []PropertyDefinition) bool {
			base := Merge(a, nil)
			out := Merge(base, b)
			return reflect.DeepEqual(out[:len(base)], base)
		},
		genProperties(), genProperties(),
	))

	properties.Property("request body is deterministic", prop.ForAll(
		func(props []PropertyDefinition) bool {
			if len(props) == 0 {
				return true
			}
			first, err1 := ToRequestBody(props)
			second, err2 := ToRequestBody(props)
			return err1 == nil && err2 == nil && first == second
		},
		genProperties(),
	))

	properties.Property("raw ampersands never reach the output", prop.ForAll(
		func(props []PropertyDefinition) bool {
			if len(props) == 0 {
				return true
			}
			body, err := ToRequestBody(props)
			if err != nil {
				return false
			}
			return !strings.Contains(body, "x=1&y") && !strings.Contains(body, "<2>")
		},
		genProperties(),
	))

	properties.Property("one element per property", prop.ForAll(
		func(props []PropertyDefinition) bool {
			if len(props) == 0 {
				return true
			}
			body, err := ToRequestBody(props)
			if err != nil {
				return false
			}
			return strings.Count(body, "/>") == len(props)
		},
		genProperties(),
	))

	properties.TestingRun(t)
}
