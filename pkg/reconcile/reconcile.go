// Package reconcile drives a whole royalty statement through the matching
// and split-calculation pipeline. Every input line ends up classified as
// matched or untracked with a human-readable reason; per-line failures are
// contained at the line boundary and never sink the batch.
package reconcile

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/splitbook/splitbook/pkg/catalog"
	"github.com/splitbook/splitbook/pkg/errors"
	"github.com/splitbook/splitbook/pkg/identity"
	"github.com/splitbook/splitbook/pkg/logging"
	"github.com/splitbook/splitbook/pkg/match"
	"github.com/splitbook/splitbook/pkg/metrics"
	"github.com/splitbook/splitbook/pkg/norm"
	"github.com/splitbook/splitbook/pkg/split"
	"github.com/splitbook/splitbook/pkg/statement"
)

// Orchestrator reconciles statement batches against the cached catalog.
type Orchestrator struct {
	cache      *catalog.Cache
	matcher    *match.Matcher
	identities *identity.Matcher
	metrics    *metrics.Metrics
}

// NewOrchestrator creates an orchestrator. The identity matcher and metrics
// may be nil; without an identity matcher raw writer metadata is left
// unresolved.
func NewOrchestrator(cache *catalog.Cache, matcher *match.Matcher, identities *identity.Matcher, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{cache: cache, matcher: matcher, identities: identities, metrics: m}
}

// MatchedLine is a line resolved to a catalog work with at least one
// eligible share.
type MatchedLine struct {
	Line     statement.Line
	Match    *match.Result
	Shares   []split.Share
	Excluded []split.Exclusion

	// Writers carries resolved identities for formats embedding raw writer
	// metadata. Empty otherwise.
	Writers []identity.Candidate

	// FromPrior marks a line classified by falling back to a previously
	// stored assignment during reprocessing.
	FromPrior bool
}

// UntrackedLine is a line with no work match or no eligible shares.
type UntrackedLine struct {
	Line   statement.Line
	Reason string
}

// Outcome is the classification of a single line, exactly one of Matched
// or Untracked set.
type Outcome struct {
	Index     int
	Matched   *MatchedLine
	Untracked *UntrackedLine
}

// Run is one reconciliation of a batch.
type Run struct {
	ID        string
	Program   statement.Program
	Matched   []MatchedLine
	Untracked []UntrackedLine
}

// LineKey identifies a statement line for idempotent reprocessing. The
// composite of title, line publisher, and source identifier keeps
// same-titled lines from different publishers or sources apart.
type LineKey struct {
	Title       string
	PublisherID string
	SourceID    string
}

// Assignment is a previously stored per-line outcome, reused when a
// reprocessing run leaves the line untracked under current rules.
type Assignment struct {
	WorkID string
	Shares []split.Share
}

// Key builds the reprocessing key for a line. Title and publisher are
// normalized so formatting drift between runs does not split keys.
func Key(l statement.Line) LineKey {
	k := LineKey{Title: norm.Title(l.Title)}
	if l.Source != nil {
		k.PublisherID = norm.Identifier(l.Source.PublisherID())
		k.SourceID = l.Source.SourceID()
	}
	return k
}

// Execute reconciles the batch, forcing one cache refresh so every line
// observes the same catalog snapshot.
//
// Only two conditions short-circuit the whole run with an empty result: a
// nil batch and a catalog that has never loaded. Everything else is
// contained per line.
func (o *Orchestrator) Execute(ctx context.Context, batch *statement.Batch) (*Run, error) {
	run := &Run{ID: uuid.NewString()}
	if batch == nil {
		return run, errors.NewValidationError("batch", nil, "is required")
	}
	run.Program = batch.Program
	ctx = logging.WithRunID(ctx, run.ID)

	err := o.each(ctx, batch, func(out Outcome) bool {
		if out.Matched != nil {
			run.Matched = append(run.Matched, *out.Matched)
		} else {
			run.Untracked = append(run.Untracked, *out.Untracked)
		}
		return true
	})
	if err != nil {
		return &Run{ID: run.ID, Program: batch.Program}, err
	}

	logging.Ctx(ctx).Info().
		Str("program", string(batch.Program)).
		Int("matched", len(run.Matched)).
		Int("untracked", len(run.Untracked)).
		Msg("Batch reconciled")
	return run, nil
}

// Stream reconciles the batch line by line, yielding each outcome as it is
// computed so large batches need no full in-memory materialization. The
// yield function returns false to stop early; already-yielded outcomes
// stay valid.
func (o *Orchestrator) Stream(ctx context.Context, batch *statement.Batch, yield func(Outcome) bool) error {
	if batch == nil {
		return errors.NewValidationError("batch", nil, "is required")
	}
	return o.each(ctx, batch, yield)
}

// Reprocess re-runs the batch under current rules, falling back to the
// prior stored assignment for any line the new run leaves untracked.
func (o *Orchestrator) Reprocess(ctx context.Context, batch *statement.Batch, prior map[LineKey]Assignment) (*Run, error) {
	run := &Run{ID: uuid.NewString()}
	if batch == nil {
		return run, errors.NewValidationError("batch", nil, "is required")
	}
	run.Program = batch.Program
	ctx = logging.WithRunID(ctx, run.ID)

	err := o.each(ctx, batch, func(out Outcome) bool {
		if out.Untracked != nil {
			if assignment, ok := prior[Key(out.Untracked.Line)]; ok {
				run.Matched = append(run.Matched, MatchedLine{
					Line:      out.Untracked.Line,
					Shares:    assignment.Shares,
					FromPrior: true,
				})
				return true
			}
			run.Untracked = append(run.Untracked, *out.Untracked)
			return true
		}
		run.Matched = append(run.Matched, *out.Matched)
		return true
	})
	if err != nil {
		return &Run{ID: run.ID, Program: batch.Program}, err
	}
	return run, nil
}

// each drives the sequential per-line pipeline over one snapshot.
func (o *Orchestrator) each(ctx context.Context, batch *statement.Batch, yield func(Outcome) bool) error {
	o.cache.Invalidate()
	snap, err := o.cache.Snapshot(ctx)
	if err != nil && snap.Empty() {
		// First-ever catalog load failed: nothing could match, so the
		// whole run short-circuits rather than classifying every line
		// untracked against a catalog that never existed.
		return err
	}

	for i, line := range batch.Lines {
		out := o.processLine(ctx, snap, batch, i, line)
		if !yield(out) {
			return nil
		}
	}
	return nil
}

// processLine classifies one line, recovering from panics at the line
// boundary so a bad line never sinks the batch.
func (o *Orchestrator) processLine(ctx context.Context, snap *catalog.Snapshot, batch *statement.Batch, index int, line statement.Line) (out Outcome) {
	out.Index = index
	defer func() {
		if r := recover(); r != nil {
			logging.Ctx(ctx).Error().
				Int("line", index).
				Str("title", line.Title).
				Interface("panic", r).
				Msg("Line processing failed")
			out.Matched = nil
			out.Untracked = &UntrackedLine{Line: line, Reason: fmt.Sprintf("processing error: %v", r)}
		}
		o.metrics.LineProcessed(out.Matched != nil)
	}()

	if line.Title == "" {
		out.Untracked = &UntrackedLine{Line: line, Reason: "missing title"}
		return out
	}

	result := o.matcher.InSnapshot(snap, line.Title)
	if result == nil {
		out.Untracked = &UntrackedLine{Line: line, Reason: fmt.Sprintf("no catalog work matched %q", line.Title)}
		return out
	}

	in := split.Input{
		Revenue:      line.Revenue,
		Credits:      result.Work.Credits,
		Registry:     snap.Publishers,
		Program:      batch.Program,
		Organization: batch.Organization,
	}
	if line.Source != nil {
		in.LinePublisherIPI = line.Source.PublisherID()
	}
	calc := split.Calculate(in)

	if len(calc.Shares) == 0 {
		out.Untracked = &UntrackedLine{
			Line:   line,
			Reason: fmt.Sprintf("matched %q but no eligible writers (%d credits excluded)", result.Work.Title, len(calc.Excluded)),
		}
		return out
	}

	out.Matched = &MatchedLine{
		Line:     line,
		Match:    result,
		Shares:   calc.Shares,
		Excluded: calc.Excluded,
		Writers:  o.resolveWriters(ctx, batch, line),
	}
	return out
}

// resolveWriters runs identity resolution for formats that embed raw
// writer metadata. Resolution failures degrade to an empty candidate list;
// they never reclassify the line.
func (o *Orchestrator) resolveWriters(ctx context.Context, batch *statement.Batch, line statement.Line) []identity.Candidate {
	if o.identities == nil {
		return nil
	}

	src, ok := line.Source.(statement.SingleWriterSource)
	if !ok {
		return nil
	}
	candidates, err := o.identities.Resolve(ctx, identity.Query{
		Name:    src.WriterName,
		IPI:     src.WriterIPI,
		Title:   line.Title,
		Program: batch.Program,
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("writer", src.WriterName).
			Msg("Writer identity resolution failed")
		return nil
	}
	return candidates
}
