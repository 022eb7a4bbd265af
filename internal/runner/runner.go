// Package runner invokes the external terragrunt/terraform toolchain
// against built module directories (§4.9).
package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/stackdiac/stackd/internal/model"
	"github.com/stackdiac/stackd/pkg/log"
)

// Runner executes operations against modules already materialized by the
// Module Builder under {root}/build.
type Runner struct {
	Root string
	// Terragrunt and Terraform are the binary paths invoked for pipeline
	// steps and legacy run-all configurations; default to $PATH lookups
	// when empty.
	Terragrunt string
	Terraform  string
}

func New(root string) *Runner {
	return &Runner{Root: root, Terragrunt: "terragrunt", Terraform: "terraform"}
}

// Run executes operation against the already-built modules map (keyed by
// module name, as built for this cluster/stack), dispatching to the
// pipeline form when Pipeline is non-empty, else the legacy Configurations
// form (§4.9).
func (r *Runner) Run(ctx context.Context, operation model.Operation, modules map[string]model.Module) error {
	if len(operation.Pipeline) > 0 {
		return r.runPipeline(ctx, operation, modules)
	}
	return r.runConfiguration(ctx, operation, modules)
}

func (r *Runner) runPipeline(ctx context.Context, operation model.Operation, modules map[string]model.Module) error {
	for _, step := range operation.Pipeline {
		mod, ok := modules[step.Module]
		if !ok {
			return &model.NotFound{Kind: "module", Name: step.Module}
		}
		buildPath, _ := mod.BuiltVars["build_path"].(string)
		args := commandOrDefault(step.Command, "apply")
		if err := r.exec(ctx, buildPath, args); err != nil {
			return fmt.Errorf("pipeline step %q (module %s): %w", step.Title, step.Module, err)
		}
	}
	return nil
}

func (r *Runner) runConfiguration(ctx context.Context, operation model.Operation, modules map[string]model.Module) error {
	cfgName := operation.Configuration
	if cfgName == "" {
		cfgName = "default"
	}
	cfg, ok := operation.Configurations[cfgName]
	if !ok {
		return &model.NotFound{Kind: "configuration", Name: cfgName}
	}

	args := []string{"run-all"}
	for _, name := range cfg.Modules {
		mod, ok := modules[name]
		if !ok {
			return &model.NotFound{Kind: "module", Name: name}
		}
		buildPath, _ := mod.BuiltVars["build_path"].(string)
		args = append(args, "--terragrunt-include-dir", buildPath)
	}
	args = append(args, commandOrDefault(cfg.Command, "plan")...)

	return r.exec(ctx, r.Root, args)
}

// commandOrDefault normalizes command into an argument vector, falling back
// to fallback when command is unset (§4.9: pipeline steps default to
// "apply", legacy configurations default to "plan").
func commandOrDefault(command any, fallback string) []string {
	if args := model.CommandArgs(command); args != nil {
		return args
	}
	return []string{fallback}
}

// Exec runs terragrunt with args inside workDir, for callers (the `tg`
// pass-through CLI command) that bypass the Operation abstraction entirely.
func (r *Runner) Exec(ctx context.Context, workDir string, args []string) error {
	return r.exec(ctx, workDir, args)
}

// exec runs terragrunt with args inside workDir, applying the fixed
// environment overlay of §5.
func (r *Runner) exec(ctx context.Context, workDir string, args []string) error {
	bin := r.Terragrunt
	if bin == "" {
		bin = "terragrunt"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(), r.envOverlay(workDir)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	log.WithField("command", append([]string{bin}, args...)).
		WithField("dir", workDir).
		Info("running external command")

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if ok := asExitError(err, &exitErr); ok {
			return &model.ProcessException{Command: append([]string{bin}, args...), ExitCode: exitErr.ExitCode()}
		}
		return fmt.Errorf("running %s: %w", bin, err)
	}
	return nil
}

func asExitError(err error, target **exec.ExitError) bool {
	if e, ok := err.(*exec.ExitError); ok {
		*target = e
		return true
	}
	return false
}

// envOverlay returns the fixed environment entries layered over the parent
// process's environment for every external-runner invocation (§5).
func (r *Runner) envOverlay(workDir string) []string {
	cacheRoot := filepath.Join(r.Root, ".stackd", "cache")
	return []string{
		"TERRAGRUNT_WORKING_DIR=" + workDir,
		"TERRAGRUNT_TFPATH=" + r.Terraform,
		"TF_INPUT=false",
		"TF_PLUGIN_CACHE_DIR=" + filepath.Join(cacheRoot, "plugins"),
		"TERRAGRUNT_DOWNLOAD=" + filepath.Join(cacheRoot, "terragrunt"),
		"TERRAGRUNT_PROVIDER_CACHE_DIR=" + filepath.Join(cacheRoot, "providers"),
	}
}
