// Package merge implements the deterministic deep-merge used to compose
// variable and backend maps across scopes (§4.6).
package merge

import "dario.cat/mergo"

// Merge deep-merges src over dst: scalars in src win, lists concatenate
// (dst then src), nested maps recurse. Neither input is mutated; the
// returned map shares no substructure with either argument.
func Merge(dst, src map[string]any) (map[string]any, error) {
	out := Clone(dst)
	overlay := Clone(src)
	if err := mergo.Merge(&out, overlay, mergo.WithOverride, mergo.WithAppendSlice); err != nil {
		return nil, err
	}
	return out, nil
}

// MergeAll folds a precedence-ordered list of maps left to right: later
// entries override earlier ones, matching the Merge Engine's seven-scope
// invocation order (§4.6).
func MergeAll(scopes ...map[string]any) (map[string]any, error) {
	out := map[string]any{}
	for _, scope := range scopes {
		merged, err := Merge(out, scope)
		if err != nil {
			return nil, err
		}
		out = merged
	}
	return out, nil
}

// Clone deep-copies a map[string]any tree so that Merge never aliases a
// caller's substructures. mergo.Merge mutates its first argument in place;
// without this pass the "side-effect-free" invariant of §4.6 would not hold.
func Clone(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Clone(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
