package model

// Provider is a terraform provider declaration: source address and version
// constraint, optionally carrying its own map key as Name.
type Provider struct {
	Source  string `yaml:"source" json:"source" jsonschema:"description=Provider source address (e.g. hashicorp/aws),required"`
	Version string `yaml:"version" json:"version" jsonschema:"description=Version constraint,required"`
	Name    string `yaml:"-" json:"name,omitempty"`
}
