package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/splitbook/splitbook/pkg/reconcile"
	"github.com/splitbook/splitbook/pkg/statement"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <batch.yaml>",
	Short: "Reconcile a statement batch against the catalog",
	Long: `Reconcile runs every line of a parsed statement batch through title
matching and split calculation, printing matched shares and untracked lines
with their reasons.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		batch, err := statement.LoadBatch(args[0])
		if err != nil {
			return err
		}

		engine, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		run, err := engine.Reconcile(cmd.Context(), batch)
		if err != nil {
			return err
		}

		if viper.GetBool("json") {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		}
		renderRun(run)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func renderRun(run *reconcile.Run) {
	fmt.Printf("Run %s (%s): %d matched, %d untracked\n\n",
		run.ID, run.Program, len(run.Matched), len(run.Untracked))

	if len(run.Matched) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Title", "Revenue", "Writer", "Rel %", "Share", "Via"})
		for _, m := range run.Matched {
			via := "current"
			if m.FromPrior {
				via = "prior"
			}
			for _, s := range m.Shares {
				t.AppendRow(table.Row{
					m.Line.Title,
					fmt.Sprintf("%.2f", m.Line.Revenue),
					s.WriterID,
					fmt.Sprintf("%.2f", s.RelativePercent),
					fmt.Sprintf("%.2f", s.Revenue),
					via,
				})
			}
		}
		t.Render()
	}

	if len(run.Untracked) > 0 {
		fmt.Println()
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Title", "Revenue", "Reason"})
		for _, u := range run.Untracked {
			t.AppendRow(table.Row{u.Line.Title, fmt.Sprintf("%.2f", u.Line.Revenue), u.Reason})
		}
		t.Render()
	}
}
