package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackdiac/stackd/internal/api"
	"github.com/stackdiac/stackd/pkg/log"
)

var (
	uiPath string
	uiHost string
	uiPort int
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Serve the HTTP API facade",
	RunE:  runUI,
}

func init() {
	rootCmd.AddCommand(uiCmd)

	uiCmd.Flags().StringVarP(&uiPath, "path", "p", "", "project root (default: STACKD_ROOT or cwd)")
	uiCmd.Flags().StringVarP(&uiHost, "host", "H", "0.0.0.0", "bind host")
	uiCmd.Flags().IntVarP(&uiPort, "port", "P", 8000, "bind port")
}

func runUI(_ *cobra.Command, _ []string) error {
	root, err := projectRoot(uiPath)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", uiHost, uiPort)
	log.WithField("addr", addr).Info("serving API facade")

	router := api.New(root)
	return router.Run(addr)
}
