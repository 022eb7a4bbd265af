package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	yaml "go.yaml.in/yaml/v4"

	"github.com/stackdiac/stackd/internal/model"
	"github.com/stackdiac/stackd/pkg/log"
)

var (
	createName      string
	createDomain    string
	createTitle     string
	createVaultAddr string
	createPath      string
	createForce     bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new stackd.yaml project file",
	Long: `Write a default stackd.yaml configuration file for a new project,
pre-populated with the project name, domain and Vault address passed as
flags, ready to be extended with clusters, stacks and modules.`,
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVarP(&createName, "name", "n", "", "project name (required)")
	createCmd.Flags().StringVarP(&createDomain, "domain", "d", "", "DNS domain seeding cluster ingress hosts (required)")
	createCmd.Flags().StringVar(&createVaultAddr, "vault-address", "", "HashiCorp Vault address for the secret store")
	createCmd.Flags().StringVarP(&createTitle, "title", "t", "", "human-readable project title")
	createCmd.Flags().StringVarP(&createPath, "path", "p", "", "project root (default: STACKD_ROOT or cwd)")
	createCmd.Flags().BoolVarP(&createForce, "force", "f", false, "overwrite an existing stackd.yaml")

	_ = createCmd.MarkFlagRequired("name")
	_ = createCmd.MarkFlagRequired("domain")
}

func runCreate(_ *cobra.Command, _ []string) error {
	root, err := projectRoot(createPath)
	if err != nil {
		return err
	}

	configPath := filepath.Join(root, "stackd.yaml")
	if _, err := os.Stat(configPath); err == nil && !createForce {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
	}

	cfg := model.DefaultConfig()
	cfg.Project = model.Project{
		Name:         createName,
		Title:        createTitle,
		Domain:       createDomain,
		VaultAddress: createVaultAddr,
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	log.WithField("file", configPath).Info("project created")
	return nil
}
