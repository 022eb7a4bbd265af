package cmd

import (
	"github.com/spf13/cobra"

	"github.com/stackdiac/stackd/internal/binaryfetcher"
	"github.com/stackdiac/stackd/internal/orchestrator"
	"github.com/stackdiac/stackd/pkg/log"
)

var (
	updatePath       string
	updateNoBinaries bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check out configured repos and fetch pinned binaries",
	RunE:  runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().StringVarP(&updatePath, "path", "p", "", "project root (default: STACKD_ROOT or cwd)")
	updateCmd.Flags().BoolVarP(&updateNoBinaries, "no-binaries", "B", false, "skip downloading binaries")
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	root, err := projectRoot(updatePath)
	if err != nil {
		return err
	}

	s := orchestrator.New(root)
	if err := s.Configure(cmd.Context()); err != nil {
		return err
	}

	for _, repo := range s.Config.Repos {
		log.WithField("repo", repo.Name).Info("checking out repo")
		if err := s.RepoManager.Checkout(cmd.Context(), repo); err != nil {
			return err
		}
		if err := s.RepoManager.Install(repo); err != nil {
			return err
		}
	}

	if updateNoBinaries {
		return nil
	}

	fetcher := binaryfetcher.New(root)
	return fetcher.FetchAll(cmd.Context(), s.Config.Binaries)
}
