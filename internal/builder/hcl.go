package builder

import (
	"sort"

	"github.com/hashicorp/hcl/v2/hclwrite"

	"github.com/stackdiac/stackd/internal/model"
	"github.com/stackdiac/stackd/internal/template"
)

// renderVariablesTF writes one `variable` block per inferred Variable,
// sorted by name for deterministic output (§3 invariant: idempotent builds).
// The body is rendered from variables.tf.tmpl, which a project's core repo
// may override under its own templates/ directory (§4.5), then passed
// through hclwrite.Format to canonicalize whitespace.
func renderVariablesTF(env *template.Environment, vars []Variable) ([]byte, error) {
	sorted := append([]Variable(nil), vars...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	rendered, err := env.RenderTemplate("variables.tf.tmpl", map[string]any{"vars": sorted})
	if err != nil {
		return nil, err
	}
	return hclwrite.Format([]byte(rendered)), nil
}

// renderVersionsTF writes a terraform { required_providers { ... } } block
// from the filtered provider list (§4.7: intersection of module.Providers
// with the global map, overlaid with provider_overrides). Rendered from
// versions.tf.tmpl the same way as renderVariablesTF.
func renderVersionsTF(env *template.Environment, providers []model.Provider) ([]byte, error) {
	sorted := append([]model.Provider(nil), providers...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	rendered, err := env.RenderTemplate("versions.tf.tmpl", map[string]any{"providers": sorted})
	if err != nil {
		return nil, err
	}
	return hclwrite.Format([]byte(rendered)), nil
}

// filterProviders returns the providers named in moduleProviders, looked up
// from global after provider_overrides have been deep-merged into it by
// name (§4.7).
func filterProviders(moduleProviders []string, global map[string]model.Provider, overrides map[string]model.Provider) []model.Provider {
	effective := make(map[string]model.Provider, len(global))
	for name, p := range global {
		p.Name = name
		effective[name] = p
	}
	for name, p := range overrides {
		base, ok := effective[name]
		if !ok {
			base = model.Provider{Name: name}
		}
		if p.Source != "" {
			base.Source = p.Source
		}
		if p.Version != "" {
			base.Version = p.Version
		}
		effective[name] = base
	}

	out := make([]model.Provider, 0, len(moduleProviders))
	for _, name := range moduleProviders {
		if p, ok := effective[name]; ok {
			out = append(out, p)
		}
	}
	return out
}
