package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stackdiac/stackd/pkg/log"
)

var (
	logLevel string

	versionInfo struct {
		Version string
		Commit  string
		Date    string
	}
)

var rootCmd = &cobra.Command{
	Use:   "stackd",
	Short: "Git-ops orchestrator for Terragrunt/Terraform infrastructure",
	Long: `stackd resolves cluster, stack and module definitions from versioned git
repositories, composes their variables and backend configuration, and
materializes Terragrunt-ready build directories that an external
terragrunt/terraform toolchain then applies.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		log.Init()

		if verbose, err := cmd.Flags().GetBool("verbose"); err == nil && verbose {
			logLevel = "debug"
		}
		if os.Getenv("DEBUG") == "1" {
			logLevel = "debug"
		}
		if logLevel != "" {
			if err := log.SetLevelFromString(logLevel); err != nil {
				return fmt.Errorf("invalid log level %q: %w", logLevel, err)
			}
		}

		if cmd.Name() != "version" && versionInfo.Version != "" {
			log.WithField("version", versionInfo.Version).Debug("stackd")
		}

		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets build-time version information (ldflags).
func SetVersion(version, commit, date string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.Date = date
}

// projectRoot resolves the project root from -p/--path, falling back to
// STACKD_ROOT, then the working directory (§6 "Environment").
func projectRoot(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("STACKD_ROOT"); env != "" {
		return env, nil
	}
	return os.Getwd()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output (shorthand for --log-level=debug)")
}
