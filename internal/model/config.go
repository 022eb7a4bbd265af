package model

// Config is the top-level project bundle loaded from stackd.yaml, merged
// over DefaultConfig() defaults (§4.4).
type Config struct {
	Kind        string              `yaml:"kind,omitempty" json:"kind,omitempty" jsonschema:"description=Document kind,default=stackd"`
	Project     Project             `yaml:"project" json:"project" jsonschema:"description=Project identity,required"`
	Vars        map[string]any      `yaml:"vars,omitempty" json:"vars,omitempty" jsonschema:"description=Project-wide variable map"`
	ClustersDir string              `yaml:"clusters_dir,omitempty" json:"clusters_dir,omitempty" jsonschema:"description=Directory enumerated for cluster files,default=cluster"`
	Repos       map[string]Repo     `yaml:"repos,omitempty" json:"repos,omitempty" jsonschema:"description=Named content repositories"`
	Binaries    []Binary            `yaml:"binaries,omitempty" json:"binaries,omitempty" jsonschema:"description=External tool binaries to fetch"`
	Backend     *Backend            `yaml:"backend,omitempty" json:"backend,omitempty" jsonschema:"description=Project-level default backend"`
	Providers   map[string]Provider `yaml:"providers,omitempty" json:"providers,omitempty" jsonschema:"description=Global provider version map"`

	Spec any `yaml:"-" json:"-"`
}

// SetSpec implements specloader.SpecReceiver.
func (c *Config) SetSpec(s any) { c.Spec = s }

// DefaultConfig returns a Config pre-populated with sensible defaults, onto
// which the parsed stackd.yaml is then overlaid — the loaded document augments
// rather than replaces these defaults.
func DefaultConfig() *Config {
	return &Config{
		Kind:        "stackd",
		ClustersDir: "cluster",
		Vars:        map[string]any{},
		Repos: map[string]Repo{
			"root": {Name: "root", URL: ".", Local: true},
		},
		Providers: map[string]Provider{},
	}
}
