package cmd

import (
	"github.com/spf13/viper"

	"github.com/splitbook/splitbook"
	"github.com/splitbook/splitbook/internal/store/memory"
	"github.com/splitbook/splitbook/internal/store/sqlite"
	"github.com/splitbook/splitbook/pkg/errors"
)

// newEngine builds an engine from the configured catalog source: a SQLite
// database when --db is set, otherwise a YAML seed file via --catalog.
// The returned cleanup closes the backing store.
func newEngine() (*splitbook.Engine, func(), error) {
	if db := viper.GetString("db"); db != "" {
		store, err := sqlite.Open(db)
		if err != nil {
			return nil, nil, err
		}
		engine, err := splitbook.New(
			splitbook.WithCatalogStore(store),
			splitbook.WithIdentityDirectory(store),
			splitbook.WithHistoricalLedger(store),
		)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		return engine, func() { store.Close() }, nil
	}

	seed := viper.GetString("catalog")
	if seed == "" {
		return nil, nil, errors.New("either --db or --catalog is required")
	}
	store := memory.New()
	if err := store.LoadSeed(seed); err != nil {
		return nil, nil, err
	}
	engine, err := splitbook.New(
		splitbook.WithCatalogStore(store),
		splitbook.WithIdentityDirectory(store),
		splitbook.WithHistoricalLedger(store),
	)
	if err != nil {
		return nil, nil, err
	}
	return engine, func() {}, nil
}
