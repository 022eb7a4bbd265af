package model

// Stack is the expanded stack definition sourced from a repository. StackSchema
// is carried opaquely (§9 "dynamic dict-typed schemas"); only the secret/vars
// projection code walks into components.schemas.{Name}.
type Stack struct {
	Name        string             `yaml:"name,omitempty" json:"name"`
	Src         string             `yaml:"src,omitempty" json:"src,omitempty"`
	Modules     map[string]Module  `yaml:"modules,omitempty" json:"modules,omitempty"`
	Operations  map[string]Operation `yaml:"operations,omitempty" json:"operations,omitempty"`
	Vars        map[string]any     `yaml:"vars,omitempty" json:"vars,omitempty"`
	Backend     *Backend           `yaml:"backend,omitempty" json:"backend,omitempty"`
	StackSchema map[string]any     `yaml:"stack_schema,omitempty" json:"stack_schema,omitempty"`

	Spec any `yaml:"-" json:"-"`
}

// SetSpec implements specloader.SpecReceiver.
func (s *Stack) SetSpec(spec any) { s.Spec = spec }

// SchemaFor looks up components.schemas.{name} within StackSchema, returning
// nil if the document doesn't carry that shape or the name is absent.
func (s Stack) SchemaFor(name string) map[string]any {
	if name == "" || s.StackSchema == nil {
		return nil
	}
	components, ok := s.StackSchema["components"].(map[string]any)
	if !ok {
		return nil
	}
	schemas, ok := components["schemas"].(map[string]any)
	if !ok {
		return nil
	}
	schema, _ := schemas[name].(map[string]any)
	return schema
}
