package splitbook

import (
	"time"

	"github.com/splitbook/splitbook/pkg/catalog"
	"github.com/splitbook/splitbook/pkg/errors"
	"github.com/splitbook/splitbook/pkg/identity"
	"github.com/splitbook/splitbook/pkg/match"
	"github.com/splitbook/splitbook/pkg/metrics"
)

// options holds engine construction state.
type options struct {
	catalogStore  catalog.Store
	directory     identity.Directory
	ledger        identity.Ledger
	cacheTTL      time.Duration
	minConfidence float64
	metrics       *metrics.Metrics
}

func defaultOptions() *options {
	return &options{
		cacheTTL:      catalog.DefaultTTL,
		minConfidence: match.DefaultMinConfidence,
	}
}

// Option is a function that configures an Engine.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithCatalogStore sets the read-only catalog backing store. Required.
func WithCatalogStore(store catalog.Store) Option {
	return func(o *options) error {
		if store == nil {
			return &errors.ValidationError{Field: "catalog store", Message: "cannot be nil"}
		}
		o.catalogStore = store
		return nil
	}
}

// WithIdentityDirectory sets the writer identity directory. Without one,
// raw writer metadata on statement lines is left unresolved.
func WithIdentityDirectory(directory identity.Directory) Option {
	return func(o *options) error {
		o.directory = directory
		return nil
	}
}

// WithHistoricalLedger sets the prior finalized line-item ledger backing
// the historical-precedent identity strategy.
func WithHistoricalLedger(ledger identity.Ledger) Option {
	return func(o *options) error {
		o.ledger = ledger
		return nil
	}
}

// WithCacheTTL overrides the catalog snapshot TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) error {
		if ttl <= 0 {
			return &errors.ValidationError{Field: "cache TTL", Value: ttl, Message: "must be positive"}
		}
		o.cacheTTL = ttl
		return nil
	}
}

// WithMinConfidence overrides the fuzzy-match confidence threshold.
func WithMinConfidence(c float64) Option {
	return func(o *options) error {
		if c <= 0 || c > 1 {
			return &errors.ValidationError{Field: "min confidence", Value: c, Message: "must be in (0, 1]"}
		}
		o.minConfidence = c
		return nil
	}
}

// WithMetrics wires the engine's prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) error {
		o.metrics = m
		return nil
	}
}
