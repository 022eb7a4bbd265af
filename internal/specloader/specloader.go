// Package specloader reads, template-renders, YAML-parses and merges a
// document with an override map, then validates the result as a typed
// entity (§4.4).
package specloader

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"

	"github.com/stackdiac/stackd/internal/merge"
	"github.com/stackdiac/stackd/internal/resolver"
	"github.com/stackdiac/stackd/internal/template"
)

// SpecReceiver is implemented by entities that record the Spec that produced
// them, for later introspection (§4.4 "assigns the Spec to T.spec").
type SpecReceiver interface {
	SetSpec(any)
}

// Spec reads path as text, optionally template-renders it, YAML-parses the
// result (expanding !include directives), and optionally deep-merges it over
// MergeFrom with the parsed document taking precedence.
type Spec struct {
	Path      string
	RelPath   string
	MergeFrom map[string]any
	Env       *template.Environment // nil => source used verbatim
	Resolver  *resolver.Resolver

	Source   string
	Rendered string
	Data     map[string]any
}

// New constructs a Spec for path, recording its path relative to the process
// working directory the way the reference loader does for diagnostics.
func New(path string, env *template.Environment, res *resolver.Resolver) *Spec {
	rel := path
	if wd, err := os.Getwd(); err == nil {
		if r, err := filepath.Rel(wd, path); err == nil {
			rel = r
		}
	}
	return &Spec{Path: path, RelPath: rel, Env: env, Resolver: res}
}

// Render loads and parses the spec's source document.
func (s *Spec) Render(ctx map[string]any) error {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return err
	}
	s.Source = string(raw)

	if s.Env != nil {
		rendered, err := s.Env.RenderString(s.Path, s.Source, ctx)
		if err != nil {
			return err
		}
		s.Rendered = rendered
	} else {
		s.Rendered = s.Source
	}

	parsed, err := template.LoadWithIncludes([]byte(s.Rendered), s.includeResolver())
	if err != nil {
		return err
	}

	parsedMap, _ := parsed.(map[string]any)
	if parsedMap == nil {
		parsedMap = map[string]any{}
	}

	if s.MergeFrom != nil {
		merged, err := merge.Merge(s.MergeFrom, parsedMap)
		if err != nil {
			return err
		}
		s.Data = merged
	} else {
		s.Data = parsedMap
	}
	return nil
}

func (s *Spec) includeResolver() template.IncludeResolver {
	return func(ref string) ([]byte, error) {
		path, _, err := s.Resolver.Resolve(ref)
		if err != nil {
			return nil, err
		}
		return os.ReadFile(path)
	}
}

// ParseObjAs renders spec and decodes its data into a *T via mapstructure,
// the Go analog of pydantic's parse_obj_as used by the original loader. If T
// implements SpecReceiver, spec is attached for later introspection.
func ParseObjAs[T any](s *Spec, ctx map[string]any) (*T, error) {
	if err := s.Render(ctx); err != nil {
		return nil, err
	}

	var obj T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "yaml",
		Result:           &obj,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(s.Data); err != nil {
		return nil, err
	}

	if receiver, ok := any(&obj).(SpecReceiver); ok {
		receiver.SetSpec(s)
	}
	return &obj, nil
}
