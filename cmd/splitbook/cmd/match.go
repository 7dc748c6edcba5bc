package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match <title>",
	Short: "Match a single title against the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := engine.MatchTitle(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if result == nil {
			fmt.Printf("no match for %q\n", args[0])
			return nil
		}
		fmt.Printf("%q -> %q (confidence %d, %s)\n",
			args[0], result.Work.Title, result.Confidence, result.Method)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
}
