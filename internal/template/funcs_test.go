package template

import "testing"

func TestFromYAML(t *testing.T) {
	out, err := fromYAML("a: 1\nb: two\n")
	if err != nil {
		t.Fatalf("fromYAML: %v", err)
	}
	m, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("got %T, want map", out)
	}
	if m["b"] != "two" {
		t.Errorf("b = %v, want two", m["b"])
	}
}

func TestToJSONDefaultIndent(t *testing.T) {
	out, err := toJSON(map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("toJSON: %v", err)
	}
	want := "{\n  \"a\": 1\n}"
	if out != want {
		t.Errorf("toJSON = %q, want %q", out, want)
	}
}

func TestToJSONCustomIndent(t *testing.T) {
	out, err := toJSON(map[string]any{"a": 1}, map[string]any{"indent": "\t"})
	if err != nil {
		t.Fatalf("toJSON: %v", err)
	}
	want := "{\n\t\"a\": 1\n}"
	if out != want {
		t.Errorf("toJSON = %q, want %q", out, want)
	}
}

func TestParseYAMLVarsEmptyDocument(t *testing.T) {
	out, err := ParseYAMLVars([]byte(""))
	if err != nil {
		t.Fatalf("ParseYAMLVars: %v", err)
	}
	if out != nil {
		t.Errorf("ParseYAMLVars(empty) = %#v, want nil", out)
	}
}

func TestParseYAMLVarsPopulated(t *testing.T) {
	out, err := ParseYAMLVars([]byte("replicas: 3\n"))
	if err != nil {
		t.Fatalf("ParseYAMLVars: %v", err)
	}
	if out["replicas"] != 3 {
		t.Errorf("replicas = %v, want 3", out["replicas"])
	}
}
