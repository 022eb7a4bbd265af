package template

import (
	"strings"

	"github.com/stackdiac/stackd/internal/model"
	yaml "go.yaml.in/yaml/v4"
)

// maxIncludeDepth bounds !include recursion (§4.5); cycle detection is not
// required at this depth.
const maxIncludeDepth = 32

// IncludeResolver loads the document referenced by ref (already stripped of
// any fragment) and returns its raw bytes. Supplied by the caller so the
// !include tag handler stays a pluggable callback over the Path Resolver,
// never a global lookup (§9).
type IncludeResolver func(ref string) ([]byte, error)

// LoadWithIncludes parses data as YAML, expanding every !include PATH[#FRAGMENT]
// tag found anywhere in the document by loading PATH through resolve and
// descending FRAGMENT (slash-separated keys) into the loaded document.
func LoadWithIncludes(data []byte, resolve IncludeResolver) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if err := expandIncludes(&root, resolve, 0); err != nil {
		return nil, err
	}
	var out any
	if err := root.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func expandIncludes(node *yaml.Node, resolve IncludeResolver, depth int) error {
	if node == nil {
		return nil
	}
	if node.Tag == "!include" {
		if depth >= maxIncludeDepth {
			return &model.IncludeDepthExceeded{MaxDepth: maxIncludeDepth}
		}
		resolved, err := resolveInclude(node.Value, resolve, depth)
		if err != nil {
			return err
		}
		*node = *resolved
		return nil
	}
	for _, child := range node.Content {
		if err := expandIncludes(child, resolve, depth); err != nil {
			return err
		}
	}
	return nil
}

func resolveInclude(directive string, resolve IncludeResolver, depth int) (*yaml.Node, error) {
	ref, fragment := directive, ""
	if i := strings.IndexByte(directive, '#'); i >= 0 {
		ref, fragment = directive[:i], directive[i+1:]
	}

	data, err := resolve(ref)
	if err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if err := expandIncludes(&doc, resolve, depth+1); err != nil {
		return nil, err
	}

	target := &doc
	if len(doc.Content) > 0 {
		target = doc.Content[0]
	}
	if fragment != "" {
		for _, key := range strings.Split(strings.Trim(fragment, "/"), "/") {
			target, err = mappingLookup(target, key)
			if err != nil {
				return nil, err
			}
		}
	}
	return target, nil
}

func mappingLookup(node *yaml.Node, key string) (*yaml.Node, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &model.ResolveError{Reason: "cannot descend into fragment key " + key}
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1], nil
		}
	}
	return nil, &model.ResolveError{Reason: "fragment key not found: " + key}
}
