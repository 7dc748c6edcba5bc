// Package splitbook reconciles royalty-statement line items from
// rights-licensing organizations against a catalog of tracked works,
// computing each eligible writer's revenue share per line.
//
// The engine is a read-only consumer of the catalog. It matches statement
// titles to works, resolves writer identities from raw line metadata,
// applies publisher-aware and program-specific eligibility rules, and
// classifies every line of a batch as matched or untracked. Payout,
// persistence, and statement-file parsing are the host application's
// concern.
package splitbook

import (
	"context"

	"github.com/splitbook/splitbook/pkg/catalog"
	"github.com/splitbook/splitbook/pkg/errors"
	"github.com/splitbook/splitbook/pkg/identity"
	"github.com/splitbook/splitbook/pkg/match"
	"github.com/splitbook/splitbook/pkg/reconcile"
	"github.com/splitbook/splitbook/pkg/statement"
)

// Engine wires the catalog cache, matchers, and orchestrator into one
// reconciliation surface. Safe for concurrent use; simultaneous batches
// share the catalog cache but nothing else.
type Engine struct {
	cache        *catalog.Cache
	matcher      *match.Matcher
	identities   *identity.Matcher
	orchestrator *reconcile.Orchestrator
}

// New creates an Engine. A catalog store is required; identity directory,
// ledger, and metrics are optional.
func New(opts ...Option) (*Engine, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	if o.catalogStore == nil {
		return nil, &errors.ValidationError{Field: "catalog store", Message: "is required"}
	}

	cache := catalog.NewCache(o.catalogStore, o.cacheTTL, o.metrics)
	matcher := match.NewMatcher(cache, o.minConfidence)

	var identities *identity.Matcher
	if o.directory != nil {
		identities = identity.NewMatcher(o.directory, o.ledger, o.metrics)
	}

	return &Engine{
		cache:        cache,
		matcher:      matcher,
		identities:   identities,
		orchestrator: reconcile.NewOrchestrator(cache, matcher, identities, o.metrics),
	}, nil
}

// Reconcile drives a whole statement batch through matching and split
// calculation, classifying every line as matched or untracked.
func (e *Engine) Reconcile(ctx context.Context, batch *statement.Batch) (*reconcile.Run, error) {
	return e.orchestrator.Execute(ctx, batch)
}

// Reprocess re-runs a batch under current rules, falling back to prior
// stored assignments for lines the new run leaves untracked.
func (e *Engine) Reprocess(ctx context.Context, batch *statement.Batch, prior map[reconcile.LineKey]reconcile.Assignment) (*reconcile.Run, error) {
	return e.orchestrator.Reprocess(ctx, batch, prior)
}

// Stream reconciles a batch yielding per-line outcomes as they are
// computed, for callers that persist results incrementally.
func (e *Engine) Stream(ctx context.Context, batch *statement.Batch, yield func(reconcile.Outcome) bool) error {
	return e.orchestrator.Stream(ctx, batch, yield)
}

// MatchTitle resolves one title against the current catalog snapshot. A
// nil result means no work cleared the confidence threshold.
func (e *Engine) MatchTitle(ctx context.Context, title string) (*match.Result, error) {
	return e.matcher.Work(ctx, title)
}

// MatchTitles resolves many titles against one consistent snapshot.
func (e *Engine) MatchTitles(ctx context.Context, titles []string) (map[string]*match.Result, error) {
	return e.matcher.Batch(ctx, titles)
}

// ResolveWriter resolves a writer identity from raw statement metadata.
func (e *Engine) ResolveWriter(ctx context.Context, q identity.Query) ([]identity.Candidate, error) {
	if e.identities == nil {
		return nil, errors.New("no identity directory configured")
	}
	return e.identities.Resolve(ctx, q)
}

// InvalidateCatalog forces the next catalog read to refresh.
func (e *Engine) InvalidateCatalog() {
	e.cache.Invalidate()
}

// CatalogSnapshot returns the current catalog snapshot, refreshing if
// expired.
func (e *Engine) CatalogSnapshot(ctx context.Context) (*catalog.Snapshot, error) {
	return e.cache.Snapshot(ctx)
}
