package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Show the catalog snapshot the engine would reconcile against",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		snap, err := engine.CatalogSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("works: %d\npublishers: %d\nloaded: %s\n",
			len(snap.Works), len(snap.Publishers), snap.LoadedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
}
