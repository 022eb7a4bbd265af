// Package builder compiles a module's variables, dependency records and
// provider/backend configuration into a build directory consumed by the
// external runner (§4.7).
package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stackdiac/stackd/internal/backend"
	"github.com/stackdiac/stackd/internal/merge"
	"github.com/stackdiac/stackd/internal/model"
	"github.com/stackdiac/stackd/internal/resolver"
	"github.com/stackdiac/stackd/internal/secrets"
	"github.com/stackdiac/stackd/internal/template"
)

// Context carries everything the Builder needs that isn't scoped to a
// single module: shared singletons plus the ambient coordinates of the
// current cluster/stack being built.
type Context struct {
	Resolver *resolver.Resolver
	Env      *template.Environment
	Secrets  *secrets.Facade // nil when no Vault address is configured

	Root        string // project root
	BuildDir    string // {root}/build
	Domain      string
	ClusterName string
	StackName   string

	Config       model.Config
	Cluster      model.Cluster
	ClusterStack model.ClusterStack
	Stack        model.Stack

	Providers map[string]model.Provider
}

// Builder compiles a single Module against a Context.
type Builder struct {
	ctx Context
}

func New(ctx Context) *Builder {
	return &Builder{ctx: ctx}
}

// Build computes BuiltVars, dependency records, backend and secrets for the
// named module, writes its six rendered files under
// {root}/build/{cluster}/{stack}/{module}, and returns the fully-populated
// Module (§4.7).
func (b *Builder) Build(ctx context.Context, moduleName string) (model.Module, error) {
	mod, ok := b.ctx.Stack.Modules[moduleName]
	if !ok {
		return model.Module{}, &model.NotFound{Kind: "module", Name: moduleName}
	}

	modulePath, _, err := b.ctx.Resolver.Resolve(mod.Src)
	if err != nil {
		return model.Module{}, fmt.Errorf("resolving module src %q: %w", mod.Src, err)
	}

	buildPath := filepath.Join(b.ctx.BuildDir, b.ctx.ClusterName, b.ctx.StackName, mod.Name)
	if err := os.MkdirAll(buildPath, 0o755); err != nil {
		return model.Module{}, fmt.Errorf("creating build dir: %w", err)
	}

	derived := mod.BuildVars(model.BuildVarsContext{
		ProjectRoot: b.ctx.Root,
		Domain:      b.ctx.Domain,
		BuildDir:    b.ctx.BuildDir,
		ModulePath:  modulePath,
		ClusterName: b.ctx.ClusterName,
		StackName:   b.ctx.StackName,
	})
	derived["build_path"] = buildPath
	derived["module_path"] = modulePath
	derived["project_root"] = b.ctx.Root

	fileVars, err := b.loadModuleVarsFile(mod.Name)
	if err != nil {
		return model.Module{}, err
	}

	builtVars, err := merge.MergeAll(
		derived,
		mod.Vars,
		b.ctx.Config.Vars,
		b.ctx.Cluster.Vars,
		b.ctx.ClusterStack.Vars,
		b.ctx.ClusterStack.ModuleVars[mod.Name],
		fileVars,
	)
	if err != nil {
		return model.Module{}, fmt.Errorf("merging variables for %s: %w", mod.Name, err)
	}
	mod.BuiltVars = builtVars

	vars := deriveVariables(derived)

	deps := make([]model.ModuleDependency, 0, len(mod.Inputs)+len(mod.Deps))
	for _, ref := range append(append([]string{}, mod.Inputs...), mod.Deps...) {
		dep, err := model.BuildDependency(ref, b.ctx.BuildDir, b.ctx.ClusterName, b.ctx.StackName)
		if err != nil {
			return model.Module{}, err
		}
		deps = append(deps, dep)
	}

	tfBackend, err := backend.Compose(b.ctx.ClusterName, b.ctx.StackName, mod.Name,
		b.ctx.Config.Backend, b.ctx.Cluster.Backend, b.ctx.ClusterStack.Backend,
		b.ctx.Stack.Backend, mod.Backend)
	if err != nil {
		return model.Module{}, fmt.Errorf("composing backend for %s: %w", mod.Name, err)
	}
	mod.TFBackend = tfBackend

	if err := b.resolveSecrets(ctx, &mod); err != nil {
		return model.Module{}, err
	}

	providers := filterProviders(mod.Providers, b.ctx.Providers, mod.ProviderOverrides)

	if err := b.render(mod, buildPath, modulePath, deps, vars, providers); err != nil {
		return model.Module{}, err
	}

	return mod, nil
}

// loadModuleVarsFile reads {root}/vars/{cluster}/{cluster_stack}/{module}/vars.yaml
// when present (step 7 of §4.6); a missing file contributes an empty scope.
func (b *Builder) loadModuleVarsFile(moduleName string) (map[string]any, error) {
	path := filepath.Join(b.ctx.Root, "vars", b.ctx.ClusterName, b.ctx.StackName, moduleName, "vars.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	raw, err := template.ParseYAMLVars(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return raw, nil
}

// resolveSecrets attaches a Status to every declared ModuleSecret by listing
// the module's secret path once and matching names in-memory (§4.10).
func (b *Builder) resolveSecrets(ctx context.Context, mod *model.Module) error {
	if b.ctx.Secrets == nil || len(mod.Secrets) == 0 {
		return nil
	}
	moduleSecretPath, _ := mod.BuiltVars["module_secret_path"].(string)
	listed, err := b.ctx.Secrets.List(ctx, moduleSecretPath)
	if err != nil {
		return fmt.Errorf("listing secrets at %s: %w", moduleSecretPath, err)
	}
	for name, sec := range mod.Secrets {
		sec.Status = secrets.Status(name, listed)
		mod.Secrets[name] = sec
	}
	return nil
}

// render writes the six build artifacts for mod into buildPath.
func (b *Builder) render(mod model.Module, buildPath, modulePath string, deps []model.ModuleDependency, vars []Variable, providers []model.Provider) error {
	tgModuleSrc := modulePath
	if idx := strings.LastIndex(modulePath, string(filepath.Separator)); idx >= 0 {
		tgModuleSrc = modulePath[:idx] + "//" + modulePath[idx+1:]
	}

	renderCtx := map[string]any{
		"tf_backend":    mod.TFBackend.Emit(),
		"tg_module_src": tgModuleSrc,
		"deps":          deps,
		"vars":          mod.BuiltVars,
		"module":        mod,
	}

	tgHCL, err := b.ctx.Env.RenderTemplate("terragrunt.root.tmpl", renderCtx)
	if err != nil {
		return fmt.Errorf("rendering terragrunt.hcl for %s: %w", mod.Name, err)
	}
	if err := writeFile(buildPath, "terragrunt.hcl", tgHCL); err != nil {
		return err
	}

	variablesTF, err := renderVariablesTF(b.ctx.Env, vars)
	if err != nil {
		return fmt.Errorf("rendering _variables.tf for %s: %w", mod.Name, err)
	}
	if err := writeFile(buildPath, "_variables.tf", string(variablesTF)); err != nil {
		return err
	}

	versionsTF, err := renderVersionsTF(b.ctx.Env, providers)
	if err != nil {
		return fmt.Errorf("rendering _versions.tf for %s: %w", mod.Name, err)
	}
	if err := writeFile(buildPath, "_versions.tf", string(versionsTF)); err != nil {
		return err
	}

	// vars.tfvars.json.tmpl is rendered three times with differently-shaped
	// contexts: raw vars, nested under stackd.vars, and under _stackd.vars
	// (§4.7), producing Terraform, Ansible and stackd-native variable files.
	varsJSON, err := b.ctx.Env.RenderTemplate("vars.tfvars.json.tmpl", renderCtx)
	if err != nil {
		return fmt.Errorf("rendering vars.tfvars.json for %s: %w", mod.Name, err)
	}
	if err := writeFile(buildPath, "vars.tfvars.json", varsJSON); err != nil {
		return err
	}

	ansibleJSON, err := b.ctx.Env.RenderTemplate("vars.tfvars.json.tmpl",
		withVars(renderCtx, map[string]any{"stackd": map[string]any{"vars": mod.BuiltVars}}))
	if err != nil {
		return fmt.Errorf("rendering vars.ansible.json for %s: %w", mod.Name, err)
	}
	if err := writeFile(buildPath, "vars.ansible.json", ansibleJSON); err != nil {
		return err
	}

	stackdJSON, err := b.ctx.Env.RenderTemplate("vars.tfvars.json.tmpl",
		withVars(renderCtx, map[string]any{"_stackd": map[string]any{"vars": mod.BuiltVars}}))
	if err != nil {
		return fmt.Errorf("rendering vars.stackd.json for %s: %w", mod.Name, err)
	}
	if err := writeFile(buildPath, "vars.stackd.json", stackdJSON); err != nil {
		return err
	}

	return nil
}

// withVars returns a shallow copy of base with its "vars" key replaced by
// shape, used to re-render vars.tfvars.json.tmpl (which emits `{{ .vars |
// to_json }}`) under the nested shapes the Ansible and stackd-native
// variable files expect (§4.7).
func withVars(base map[string]any, shape map[string]any) map[string]any {
	out := make(map[string]any, len(base))
	for k, v := range base {
		out[k] = v
	}
	out["vars"] = shape
	return out
}

func writeFile(dir, name, content string) error {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
