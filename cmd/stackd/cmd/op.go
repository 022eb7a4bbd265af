package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stackdiac/stackd/internal/orchestrator"
)

var opPath string

var opCmd = &cobra.Command{
	Use:   "op CLUSTER/STACK/OPERATION",
	Short: "Build and run a named operation's pipeline",
	Args:  cobra.ExactArgs(1),
	RunE:  runOp,
}

func init() {
	rootCmd.AddCommand(opCmd)
	opCmd.Flags().StringVarP(&opPath, "path", "p", "", "project root (default: STACKD_ROOT or cwd)")
}

func runOp(cmd *cobra.Command, args []string) error {
	cluster, stack, operation, err := parseOpTarget(args[0])
	if err != nil {
		return err
	}

	root, err := projectRoot(opPath)
	if err != nil {
		return err
	}

	s := orchestrator.New(root)
	if err := s.Configure(cmd.Context()); err != nil {
		return err
	}

	return s.RunOperation(cmd.Context(), cluster, stack, operation)
}

// parseOpTarget splits a "CLUSTER/STACK/OPERATION" target string.
func parseOpTarget(target string) (cluster, stack, operation string, err error) {
	parts := strings.Split(target, "/")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("invalid operation target %q: expected CLUSTER/STACK/OPERATION", target)
	}
	return parts[0], parts[1], parts[2], nil
}
