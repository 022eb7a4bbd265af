package builder

import (
	"github.com/stackdiac/stackd/pkg/log"
	"github.com/zclconf/go-cty/cty"
)

// excludedVars suppresses emission of these derived-scope keys from the
// rendered _variables.tf (§4.7 step 3). Hard-coded per the reference design;
// an open question (§9) notes this could become configurable, left as-is.
var excludedVars = map[string]bool{
	"vault_address":          true,
	"location":               true,
	"kubernetes_version":     true,
	"control_plane_endpoint": true,
	"ingress_kind":           true,
	"mimir_url":              true,
	"ingress_port_http":      true,
	"ingress_port_https":     true,
}

// Variable is an inferred-type entry destined for _variables.tf.
type Variable struct {
	Name    string
	Kind    string // "map", "list", "bool", "number", "string"
	CtyType cty.Type
}

// TypeExpr returns the HCL type expression for this variable's Kind, for use
// in the variables.tf.tmpl template (§4.7 step 3).
func (v Variable) TypeExpr() string {
	switch v.Kind {
	case "map":
		return "map(any)"
	case "list":
		return "list(any)"
	case "bool":
		return "bool"
	case "number":
		return "number"
	default:
		return "string"
	}
}

// inferType derives a type tag from a value's Go shape (§4.7 step 3).
func inferType(v any) string {
	switch v.(type) {
	case map[string]any:
		return "map"
	case []any:
		return "list"
	case bool:
		return "bool"
	case int, int32, int64, float32, float64:
		return "number"
	case string:
		return "string"
	default:
		log.WithField("value", v).Warn("unknown variable shape, defaulting to string")
		return "string"
	}
}

func ctyTypeFor(kind string) cty.Type {
	switch kind {
	case "map":
		return cty.Map(cty.DynamicPseudoType)
	case "list":
		return cty.List(cty.DynamicPseudoType)
	case "bool":
		return cty.Bool
	case "number":
		return cty.Number
	default:
		return cty.String
	}
}

// deriveVariables infers a Variable for every key present in the derived
// scope (never the final merged map, per §9 "variable type inference"),
// skipping the fixed exclude list.
func deriveVariables(derivedScope map[string]any) []Variable {
	vars := make([]Variable, 0, len(derivedScope))
	for name, value := range derivedScope {
		if excludedVars[name] {
			continue
		}
		kind := inferType(value)
		vars = append(vars, Variable{Name: name, Kind: kind, CtyType: ctyTypeFor(kind)})
	}
	return vars
}
