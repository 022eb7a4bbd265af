package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stackdiac/stackd/pkg/schema"
)

var schemaOutput string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Emit the Config/Cluster/Stack/Module JSON Schema",
	RunE:  runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "write schema to file instead of stdout")
}

func runSchema(_ *cobra.Command, _ []string) error {
	doc, err := schema.Generate()
	if err != nil {
		return fmt.Errorf("generating schema: %w", err)
	}

	if schemaOutput == "" {
		fmt.Println(doc)
		return nil
	}
	return os.WriteFile(schemaOutput, []byte(doc+"\n"), 0o644)
}
