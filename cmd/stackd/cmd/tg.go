package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stackdiac/stackd/internal/orchestrator"
)

// tgCmd ensures TARGET is built, then forwards ARGS untouched to the
// external terragrunt runner against that module's build directory.
// DisableFlagParsing keeps cobra from interpreting ARGS as stackd flags,
// the standard pass-through idiom for wrapper subcommands.
var tgCmd = &cobra.Command{
	Use:                "tg TARGET ARGS...",
	Short:              "Build then run terragrunt against a cluster/stack/module",
	DisableFlagParsing: true,
	Args:               cobra.MinimumNArgs(1),
	RunE:               runTG,
}

func init() {
	rootCmd.AddCommand(tgCmd)
}

func runTG(cmd *cobra.Command, args []string) error {
	target := args[0]
	rest := args[1:]

	parts := strings.Split(target, "/")
	if len(parts) != 3 {
		return fmt.Errorf("invalid tg target %q: expected CLUSTER/STACK/MODULE", target)
	}
	cluster, stack, module := parts[0], parts[1], parts[2]

	root, err := projectRoot("")
	if err != nil {
		return err
	}

	s := orchestrator.New(root)
	if err := s.Configure(cmd.Context()); err != nil {
		return err
	}

	builtStack, err := s.BuildClusterStack(cmd.Context(), cluster, stack)
	if err != nil {
		return err
	}
	mod, ok := builtStack.Modules[module]
	if !ok {
		return fmt.Errorf("module %s not found in %s/%s", module, cluster, stack)
	}
	buildPath, _ := mod.BuiltVars["build_path"].(string)

	return s.Runner.Exec(cmd.Context(), buildPath, rest)
}
