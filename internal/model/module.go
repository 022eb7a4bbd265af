package model

import (
	"path/filepath"
	"strings"
)

// Module is the smallest deployable unit: compiled to a build directory
// consumed by the external runner. BuiltVars is computed fresh on every
// build and is never read from user input (§3 invariants).
type Module struct {
	Name              string                  `yaml:"name,omitempty" json:"name"`
	Src               string                  `yaml:"src" json:"src"`
	Vars              map[string]any          `yaml:"vars,omitempty" json:"vars,omitempty"`
	ModuleVars        map[string]any          `yaml:"module_vars,omitempty" json:"module_vars,omitempty"`
	BuiltVars         map[string]any          `yaml:"-" json:"built_vars,omitempty"`
	Providers         []string                `yaml:"providers,omitempty" json:"providers,omitempty"`
	ProviderOverrides map[string]Provider     `yaml:"provider_overrides,omitempty" json:"provider_overrides,omitempty"`
	Inputs            []string                `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Deps              []string                `yaml:"deps,omitempty" json:"deps,omitempty"`
	TFBackend         Backend                 `yaml:"-" json:"tf_backend,omitempty"`
	Backend           *Backend                `yaml:"backend,omitempty" json:"backend,omitempty"`
	Secrets           map[string]ModuleSecret `yaml:"secrets,omitempty" json:"secrets,omitempty"`
	Schemas           map[string]any          `yaml:"schemas,omitempty" json:"schemas,omitempty"`
}

// GetNamespace returns the backend key namespace "{stack}-{module}" used as
// the default backend key (§4.8).
func (m Module) GetNamespace(stackName string) string {
	return stackName + "-" + m.Name
}

// ModuleDependency is the derived projection of an inputs/deps entry
// (§3, testable property "dependency projection").
type ModuleDependency struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	Abspath    string `json:"abspath"`
	ModuleName string `json:"module_name"`
	StackName  string `json:"stack_name"`
}

// Varname replaces "-" with "_" in "{stack}_{module}", for use as a
// terraform-safe identifier referencing this dependency's outputs.
func (d ModuleDependency) Varname() string {
	return strings.ReplaceAll(d.StackName+"_"+d.ModuleName, "-", "_")
}

// BuildDependency parses a dep string of the form "stack/module" or "module"
// (implicit: currentStack) into a ModuleDependency rooted at
// {builddir}/{cluster}/{stack}/{module}.
func BuildDependency(dep, buildDir, cluster, currentStack string) (ModuleDependency, error) {
	parts := strings.Split(dep, "/")
	var stackName, moduleName string
	switch len(parts) {
	case 1:
		stackName, moduleName = currentStack, parts[0]
	case 2:
		stackName, moduleName = parts[0], parts[1]
	default:
		return ModuleDependency{}, &ResolveError{Reason: "invalid dependency reference: " + dep}
	}
	return ModuleDependency{
		Name:       dep,
		Path:       stackName + "/" + moduleName,
		Abspath:    filepath.Join(buildDir, cluster, stackName, moduleName),
		ModuleName: moduleName,
		StackName:  stackName,
	}, nil
}

// BuildVarsContext supplies the ambient coordinates used to derive a
// module's implicit variable scope (§4.6 item 1). The derivation formulas
// mirror the reference design's get_prefix/get_ingress_host/build_vars
// (see DESIGN.md).
type BuildVarsContext struct {
	ProjectRoot string
	Domain      string
	BuildDir    string
	ModulePath  string
	ClusterName string
	StackName   string
}

// BuildVars computes the derived scope for this module: the lowest-precedence
// source in the Merge Engine's seven-scope order (§4.6).
func (m Module) BuildVars(ctx BuildVarsContext) map[string]any {
	buildPath := filepath.Join(ctx.BuildDir, ctx.ClusterName, ctx.StackName, m.Name)
	namespace := ctx.StackName + "-" + m.Name

	return map[string]any{
		"prefix":             ctx.StackName,
		"cluster_name":       ctx.ClusterName,
		"cluster":            ctx.ClusterName,
		"env":                ctx.ClusterName,
		"service":            m.Name,
		"tg_abspath":         buildPath,
		"group":              "all",
		"environment":        ctx.ClusterName,
		"ingress_host":       m.ingressHost(ctx),
		"namespace":          namespace,
		"charts_root":        filepath.Join(ctx.ProjectRoot, "charts"),
		"module_secret":      "kv/" + ctx.ClusterName + "/module/" + ctx.StackName + "/" + m.Name,
		"module_secret_path": ctx.ClusterName + "/module/" + ctx.StackName + "/" + m.Name,
		"build_path":         buildPath,
		"module_path":        ctx.ModulePath,
		"project_root":       ctx.ProjectRoot,
	}
}

// ingressHost derives the default ingress hostname "{stack}-{name}.{cluster}.{domain}",
// stripping a leading "in-" from the module name so e.g. "in-api" yields "api"
// in the host segment.
func (m Module) ingressHost(ctx BuildVarsContext) string {
	name := strings.TrimPrefix(m.Name, "in-")
	return ctx.StackName + "-" + name + "." + ctx.ClusterName + "." + ctx.Domain
}
