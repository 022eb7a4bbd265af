package model

// Binary is a pinned external tool binary fetched by the Binary Fetcher and
// installed under {root}/bin/{binary}.
type Binary struct {
	Binary  string `yaml:"binary" json:"binary" jsonschema:"description=Destination file name under {root}/bin,required"`
	URL     string `yaml:"url" json:"url" jsonschema:"description=Download URL\\, may contain a {version} placeholder,required"`
	Extract string `yaml:"extract,omitempty" json:"extract,omitempty" jsonschema:"description=Member name to extract from a ZIP download; raw body used if empty"`
	Version string `yaml:"version" json:"version" jsonschema:"description=Version substituted into {version} in url,required"`
}
