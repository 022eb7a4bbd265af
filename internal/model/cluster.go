package model

// Cluster is a logical deployment target. Name is injected from the file
// stem when loaded from disk; files beginning with "_" are skipped by the
// enumerator (§6, testable property "file-skip policy").
type Cluster struct {
	Name    string                  `yaml:"name,omitempty" json:"name"`
	Vars    map[string]any          `yaml:"vars,omitempty" json:"vars,omitempty"`
	Stacks  map[string]ClusterStack `yaml:"stacks,omitempty" json:"stacks,omitempty"`
	Backend *Backend                `yaml:"backend,omitempty" json:"backend,omitempty"`

	Spec any `yaml:"-" json:"-"`
}

// SetSpec implements specloader.SpecReceiver.
func (c *Cluster) SetSpec(s any) { c.Spec = s }

// ClusterStack is the cluster's binding to a stack source. If Src is absent
// it defaults to the stack's own map-key name.
type ClusterStack struct {
	Name       string                   `yaml:"name,omitempty" json:"name"`
	Src        string                   `yaml:"src,omitempty" json:"src,omitempty"`
	Vars       map[string]any           `yaml:"vars,omitempty" json:"vars,omitempty"`
	ModuleVars map[string]map[string]any `yaml:"module_vars,omitempty" json:"module_vars,omitempty"`
	Override   map[string]any           `yaml:"override,omitempty" json:"override,omitempty"`
	Backend    *Backend                 `yaml:"backend,omitempty" json:"backend,omitempty"`
	Operations map[string]Operation    `yaml:"operations,omitempty" json:"operations,omitempty"`
}

// StackSource returns the reference used to resolve this binding's stack
// definition, defaulting to the map key when Src is unset.
func (cs ClusterStack) StackSource(key string) string {
	if cs.Src != "" {
		return cs.Src
	}
	return key
}
