package builder

import (
	"strings"
	"testing"

	"github.com/stackdiac/stackd/internal/model"
	"github.com/stackdiac/stackd/internal/template"
)

func TestRenderVariablesTFSortsAndTypes(t *testing.T) {
	env := template.New(nil, "")
	vars := []Variable{
		{Name: "replicas", Kind: "number"},
		{Name: "enabled", Kind: "bool"},
		{Name: "tags", Kind: "map"},
	}
	out, err := renderVariablesTF(env, vars)
	if err != nil {
		t.Fatalf("renderVariablesTF: %v", err)
	}

	enabledIdx := strings.Index(string(out), `variable "enabled"`)
	replicasIdx := strings.Index(string(out), `variable "replicas"`)
	tagsIdx := strings.Index(string(out), `variable "tags"`)
	if enabledIdx < 0 || replicasIdx < 0 || tagsIdx < 0 {
		t.Fatalf("missing expected variable blocks: %s", out)
	}
	if !(enabledIdx < replicasIdx && replicasIdx < tagsIdx) {
		t.Errorf("variable blocks not sorted by name: %s", out)
	}
	if !strings.Contains(string(out), "type = map(any)") {
		t.Errorf("expected map(any) type for tags, got: %s", out)
	}
}

func TestRenderVersionsTFSorted(t *testing.T) {
	env := template.New(nil, "")
	providers := []model.Provider{
		{Name: "aws", Source: "hashicorp/aws", Version: "5.0.0"},
		{Name: "vault", Source: "hashicorp/vault", Version: "4.0.0"},
	}
	out, err := renderVersionsTF(env, providers)
	if err != nil {
		t.Fatalf("renderVersionsTF: %v", err)
	}

	if !strings.Contains(string(out), `required_providers`) {
		t.Fatalf("missing required_providers block: %s", out)
	}
	awsIdx := strings.Index(string(out), "aws")
	vaultIdx := strings.Index(string(out), "vault")
	if awsIdx < 0 || vaultIdx < 0 || awsIdx > vaultIdx {
		t.Errorf("providers not sorted by name: %s", out)
	}
}

func TestFilterProvidersAppliesOverridesAndFilters(t *testing.T) {
	global := map[string]model.Provider{
		"aws":   {Source: "hashicorp/aws", Version: "5.0.0"},
		"vault": {Source: "hashicorp/vault", Version: "4.0.0"},
	}
	overrides := map[string]model.Provider{
		"aws": {Version: "5.9.0"},
	}

	got := filterProviders([]string{"aws"}, global, overrides)
	if len(got) != 1 {
		t.Fatalf("got %d providers, want 1", len(got))
	}
	if got[0].Version != "5.9.0" {
		t.Errorf("aws version = %q, want 5.9.0 (override should win)", got[0].Version)
	}
	if got[0].Source != "hashicorp/aws" {
		t.Errorf("aws source = %q, want hashicorp/aws (untouched field preserved)", got[0].Source)
	}
}

func TestFilterProvidersOnlyIncludesListed(t *testing.T) {
	global := map[string]model.Provider{
		"aws":   {Source: "hashicorp/aws", Version: "5.0.0"},
		"vault": {Source: "hashicorp/vault", Version: "4.0.0"},
	}
	got := filterProviders([]string{"vault"}, global, nil)
	if len(got) != 1 || got[0].Name != "vault" {
		t.Errorf("got %+v, want only vault", got)
	}
}
