package builder

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stackdiac/stackd/internal/model"
	"github.com/stackdiac/stackd/internal/resolver"
	"github.com/stackdiac/stackd/internal/template"
)

func newTestBuilder(t *testing.T, modules map[string]model.Module, ctxOverrides func(*Context)) *Builder {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "modules", "net"), 0o755); err != nil {
		t.Fatal(err)
	}

	repos := map[string]model.Repo{"root": {Name: "root", URL: ".", Local: true}}
	res := resolver.New(root, repos)
	env := template.New(res, "root")

	ctx := Context{
		Resolver:    res,
		Env:         env,
		Root:        root,
		BuildDir:    filepath.Join(root, "build"),
		Domain:      "example.com",
		ClusterName: "dev",
		StackName:   "net",
		Stack:       model.Stack{Modules: modules},
		Providers:   map[string]model.Provider{},
	}
	if ctxOverrides != nil {
		ctxOverrides(&ctx)
	}
	return New(ctx)
}

func TestBuildMergePrecedence(t *testing.T) {
	mod := model.Module{
		Name: "vpc",
		Src:  "root:modules/net",
		Vars: map[string]any{"region": "module-default", "replicas": 1},
	}
	b := newTestBuilder(t, map[string]model.Module{"vpc": mod}, func(c *Context) {
		c.Config.Vars = map[string]any{"region": "config-level"}
		c.Cluster.Vars = map[string]any{"region": "cluster-level"}
		c.ClusterStack.Vars = map[string]any{"region": "cluster-stack-level"}
		c.ClusterStack.ModuleVars = map[string]map[string]any{
			"vpc": {"region": "module-vars-level"},
		}
	})

	built, err := b.Build(context.Background(), "vpc")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if built.BuiltVars["region"] != "module-vars-level" {
		t.Errorf("region = %v, want module-vars-level (highest scope should win)", built.BuiltVars["region"])
	}
	if built.BuiltVars["replicas"] != 1 {
		t.Errorf("replicas = %v, want 1 (module-level var untouched by higher scopes)", built.BuiltVars["replicas"])
	}
	if built.BuiltVars["cluster_name"] != "dev" {
		t.Errorf("cluster_name = %v, want dev (derived scope present)", built.BuiltVars["cluster_name"])
	}
}

func TestBuildVarsFileOverlayWins(t *testing.T) {
	mod := model.Module{Name: "vpc", Src: "root:modules/net", Vars: map[string]any{"region": "module-default"}}
	b := newTestBuilder(t, map[string]model.Module{"vpc": mod}, nil)

	varsDir := filepath.Join(b.ctx.Root, "vars", "dev", "net", "vpc")
	if err := os.MkdirAll(varsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(varsDir, "vars.yaml"), []byte("region: file-overlay\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	built, err := b.Build(context.Background(), "vpc")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if built.BuiltVars["region"] != "file-overlay" {
		t.Errorf("region = %v, want file-overlay (highest-precedence scope)", built.BuiltVars["region"])
	}
}

func TestBuildDependencyProjection(t *testing.T) {
	mod := model.Module{
		Name:   "app",
		Src:    "root:modules/net",
		Inputs: []string{"vpc"},
		Deps:   []string{"net/db"},
	}
	b := newTestBuilder(t, map[string]model.Module{"app": mod}, nil)

	built, err := b.Build(context.Background(), "app")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	buildDirExists := func(rel string) bool {
		_, err := os.Stat(filepath.Join(b.ctx.BuildDir, "dev", "net", "app", rel))
		return err == nil
	}
	if !buildDirExists("terragrunt.hcl") {
		t.Error("terragrunt.hcl was not rendered")
	}
	if !buildDirExists("_variables.tf") {
		t.Error("_variables.tf was not rendered")
	}
	if !buildDirExists("_versions.tf") {
		t.Error("_versions.tf was not rendered")
	}
	if !buildDirExists("vars.tfvars.json") {
		t.Error("vars.tfvars.json was not rendered")
	}
	if !buildDirExists("vars.ansible.json") {
		t.Error("vars.ansible.json was not rendered")
	}
	if !buildDirExists("vars.stackd.json") {
		t.Error("vars.stackd.json was not rendered")
	}
	if built.Name != "app" {
		t.Errorf("Name = %q, want app", built.Name)
	}

	hcl, err := os.ReadFile(filepath.Join(b.ctx.BuildDir, "dev", "net", "app", "terragrunt.hcl"))
	if err != nil {
		t.Fatalf("reading terragrunt.hcl: %v", err)
	}
	for _, want := range []string{
		`dependency "net_vpc"`,
		filepath.Join(b.ctx.BuildDir, "dev", "net", "vpc"),
		`dependency "net_db"`,
		filepath.Join(b.ctx.BuildDir, "dev", "net", "db"),
	} {
		if !strings.Contains(string(hcl), want) {
			t.Errorf("terragrunt.hcl missing %q:\n%s", want, hcl)
		}
	}
}

func TestBuildUnknownModule(t *testing.T) {
	b := newTestBuilder(t, map[string]model.Module{}, nil)
	_, err := b.Build(context.Background(), "ghost")
	if _, ok := err.(*model.NotFound); !ok {
		t.Fatalf("got %T, want *model.NotFound", err)
	}
}

func TestBuildBackendLocalClearsConfig(t *testing.T) {
	mod := model.Module{
		Name:    "vpc",
		Src:     "root:modules/net",
		Backend: &model.Backend{Name: "local", Config: map[string]any{"path": "terraform.tfstate"}},
	}
	b := newTestBuilder(t, map[string]model.Module{"vpc": mod}, nil)

	built, err := b.Build(context.Background(), "vpc")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if built.TFBackend.Name != "local" {
		t.Errorf("backend name = %q, want local", built.TFBackend.Name)
	}

	rendered, err := os.ReadFile(filepath.Join(b.ctx.BuildDir, "dev", "net", "vpc", "terragrunt.hcl"))
	if err != nil {
		t.Fatalf("reading terragrunt.hcl: %v", err)
	}
	if strings.Contains(string(rendered), "terraform.tfstate") {
		t.Errorf("local backend config leaked into terragrunt.hcl: %s", rendered)
	}
}
