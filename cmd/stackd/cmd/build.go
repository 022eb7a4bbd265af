package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stackdiac/stackd/internal/orchestrator"
)

var (
	buildPath   string
	buildTarget string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Materialize build artifacts for one cluster, one stack, or the whole project",
	RunE:  runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&buildPath, "path", "p", "", "project root (default: STACKD_ROOT or cwd)")
	buildCmd.Flags().StringVarP(&buildTarget, "target", "t", "", "CLUSTER[:STACK] to build (default: every cluster)")
}

func runBuild(cmd *cobra.Command, _ []string) error {
	root, err := projectRoot(buildPath)
	if err != nil {
		return err
	}

	s := orchestrator.New(root)
	if err := s.Configure(cmd.Context()); err != nil {
		return err
	}

	if buildTarget == "" {
		return s.Build(cmd.Context())
	}

	cluster, stack, err := parseBuildTarget(buildTarget)
	if err != nil {
		return err
	}
	if stack == "" {
		return s.BuildCluster(cmd.Context(), cluster)
	}
	_, err = s.BuildClusterStack(cmd.Context(), cluster, stack)
	return err
}

// parseBuildTarget splits a "CLUSTER" or "CLUSTER:STACK" target string.
func parseBuildTarget(target string) (cluster, stack string, err error) {
	parts := strings.SplitN(target, ":", 3)
	switch len(parts) {
	case 1:
		return parts[0], "", nil
	case 2:
		return parts[0], parts[1], nil
	default:
		return "", "", fmt.Errorf("invalid build target %q: expected CLUSTER or CLUSTER:STACK", target)
	}
}
