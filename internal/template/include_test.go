package template

import (
	"errors"
	"testing"

	"github.com/stackdiac/stackd/internal/model"
)

func TestLoadWithIncludesExpandsFragment(t *testing.T) {
	schemas := []byte(`
components:
  schemas:
    Foo:
      kind: widget
      replicas: 3
`)
	doc := []byte(`
stack:
  foo: !include core:schemas.yaml#/components/schemas/Foo
`)
	resolve := func(ref string) ([]byte, error) {
		if ref == "core:schemas.yaml" {
			return schemas, nil
		}
		return nil, errors.New("unexpected ref " + ref)
	}

	out, err := LoadWithIncludes(doc, resolve)
	if err != nil {
		t.Fatalf("LoadWithIncludes: %v", err)
	}

	stack, ok := out.(map[string]any)["stack"].(map[string]any)
	if !ok {
		t.Fatalf("stack key missing or wrong type: %#v", out)
	}
	foo, ok := stack["foo"].(map[string]any)
	if !ok {
		t.Fatalf("foo key missing or wrong type: %#v", stack)
	}
	if foo["kind"] != "widget" {
		t.Errorf("foo.kind = %v, want widget", foo["kind"])
	}
}

func TestLoadWithIncludesMissingFragmentKey(t *testing.T) {
	schemas := []byte(`components: {}`)
	doc := []byte(`foo: !include core:schemas.yaml#/components/schemas/Missing`)
	resolve := func(ref string) ([]byte, error) { return schemas, nil }

	_, err := LoadWithIncludes(doc, resolve)
	if err == nil {
		t.Fatal("expected error for missing fragment key")
	}
}

func TestLoadWithIncludesDepthExceeded(t *testing.T) {
	resolve := func(ref string) ([]byte, error) {
		return []byte(`next: !include self.yaml`), nil
	}
	doc := []byte(`root: !include self.yaml`)

	_, err := LoadWithIncludes(doc, resolve)
	var depthErr *model.IncludeDepthExceeded
	if !errors.As(err, &depthErr) {
		t.Fatalf("expected IncludeDepthExceeded, got %v", err)
	}
}

func TestLoadWithIncludesNoIncludes(t *testing.T) {
	out, err := LoadWithIncludes([]byte(`a: 1`), func(ref string) ([]byte, error) {
		t.Fatal("resolve should not be called when there are no !include tags")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("LoadWithIncludes: %v", err)
	}
	m, ok := out.(map[string]any)
	if !ok || m["a"] != 1 {
		t.Errorf("got %#v", out)
	}
}
