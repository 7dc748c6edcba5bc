package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/splitbook/splitbook/internal/store/memory"
	"github.com/splitbook/splitbook/internal/store/sqlite"
	"github.com/splitbook/splitbook/pkg/errors"
)

var importCmd = &cobra.Command{
	Use:   "import <seed.yaml>",
	Short: "Import a catalog seed file into a SQLite database",
	Long: `Import loads a YAML catalog seed (works, credits, publishers, writers,
history) into the SQLite database given by --db, creating it if needed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := viper.GetString("db")
		if dbPath == "" {
			return errors.New("--db is required for import")
		}

		seed := memory.New()
		if err := seed.LoadSeed(args[0]); err != nil {
			return err
		}

		db, err := sqlite.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		works, err := seed.TrackedWorks(ctx)
		if err != nil {
			return err
		}
		for _, w := range works {
			if err := db.InsertWork(ctx, w); err != nil {
				return err
			}
		}

		publishers, err := seed.PublisherIdentifiers(ctx)
		if err != nil {
			return err
		}
		for _, ipi := range publishers {
			if err := db.InsertPublisher(ctx, ipi); err != nil {
				return err
			}
		}

		writers, err := seed.Writers(ctx)
		if err != nil {
			return err
		}
		for _, w := range writers {
			if err := db.InsertWriter(ctx, w); err != nil {
				return err
			}
		}

		history, err := seed.FinalizedTitles(ctx, "")
		if err != nil {
			return err
		}
		for writerID, titles := range history {
			for _, title := range titles {
				if err := db.InsertFinalizedLine(ctx, writerID, title, ""); err != nil {
					return err
				}
			}
		}

		fmt.Printf("imported %d works, %d publishers, %d writers into %s\n",
			len(works), len(publishers), len(writers), dbPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
