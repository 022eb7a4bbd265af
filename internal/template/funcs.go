package template

import (
	"encoding/json"
	"text/template"

	"github.com/stackdiac/stackd/pkg/log"
	yaml "go.yaml.in/yaml/v4"
)

func (e *Environment) funcMap() template.FuncMap {
	return template.FuncMap{
		"from_yaml": fromYAML,
		"to_json":   toJSON,
		"readfile": func(name string, ctx map[string]any) (string, error) {
			return e.ReadFile(name, ctx)
		},
		"do": func(v any) string { return "" },
		"debug": func(v any) any {
			log.WithField("value", v).Debug("template debug")
			return v
		},
	}
}

// fromYAML is the `from_yaml` filter: parses a string as YAML.
func fromYAML(s string) (any, error) {
	var out any
	if err := yaml.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseYAMLVars decodes a vars.yaml overlay file (§4.6 step 7) into a plain
// map, tolerating an empty document as an empty scope.
func ParseYAMLVars(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// toJSON is the `to_json` filter: serializes a value as JSON. opts may
// carry "indent" to request indented output, emulating Jinja's keyword-
// argument pass-through to the encoder.
func toJSON(v any, opts ...map[string]any) (string, error) {
	indent := "  "
	for _, o := range opts {
		if s, ok := o["indent"].(string); ok {
			indent = s
		}
	}
	data, err := json.MarshalIndent(v, "", indent)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
