package model

// Project is the immutable identity of a stackd-managed deployment. It seeds
// the DNS zone (Domain) used by module variable derivation.
type Project struct {
	Name         string `yaml:"name" json:"name" jsonschema:"description=Project name,required"`
	Title        string `yaml:"title,omitempty" json:"title,omitempty" jsonschema:"description=Human-readable project title"`
	Domain       string `yaml:"domain" json:"domain" jsonschema:"description=DNS zone seeding cluster ingress hosts,required"`
	VaultAddress string `yaml:"vault_address,omitempty" json:"vault_address,omitempty" jsonschema:"description=HashiCorp Vault address for the secret store"`
}
