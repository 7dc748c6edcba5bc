package reconcile_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitbook/splitbook/internal/store/memory"
	"github.com/splitbook/splitbook/pkg/catalog"
	"github.com/splitbook/splitbook/pkg/errors"
	"github.com/splitbook/splitbook/pkg/identity"
	"github.com/splitbook/splitbook/pkg/logging"
	"github.com/splitbook/splitbook/pkg/match"
	"github.com/splitbook/splitbook/pkg/reconcile"
	"github.com/splitbook/splitbook/pkg/split"
	"github.com/splitbook/splitbook/pkg/statement"
)

const orgPublisher = "99-887766"

func testStore() *memory.Store {
	store := memory.New()
	store.SetWorks([]catalog.Work{
		{
			ID:     "w-euthanized",
			Title:  "Euthanized",
			Status: catalog.StatusApproved,
			Credits: []catalog.Credit{
				{WriterID: "jackson", SplitPercent: 16.67},
				{WriterID: "jalan", SplitPercent: 16.67},
				{WriterID: "nathaniel", SplitPercent: 16.67, PublisherIPI: "11-223344"},
			},
		},
		{
			ID:     "w-unlinked",
			Title:  "Orphan Song",
			Status: catalog.StatusTracking,
			Credits: []catalog.Credit{
				{WriterName: "Unknown Writer", SplitPercent: 100},
			},
		},
	})
	store.SetPublishers([]string{orgPublisher})
	store.SetWriters([]catalog.Writer{
		{ID: "jackson", FirstName: "Jackson", LastName: "Reed", IPI: "001-234.56"},
	})
	return store
}

func newOrchestrator(store *memory.Store) *reconcile.Orchestrator {
	cache := catalog.NewCache(store, time.Minute, nil)
	matcher := match.NewMatcher(cache, 0)
	identities := identity.NewMatcher(store, store, nil)
	return reconcile.NewOrchestrator(cache, matcher, identities, nil)
}

func licensingLine(title string, revenue float64, publisher string) statement.Line {
	return statement.Line{
		Title:   title,
		Revenue: revenue,
		Source:  statement.MultiWriterSource{PublisherIPI: publisher},
	}
}

func TestExecuteClassifiesEveryLine(t *testing.T) {
	logging.DisableLoggingForTest(t)

	batch := &statement.Batch{
		Program: statement.ProgramLicensing,
		Lines: []statement.Line{
			licensingLine("Euthanized", 200, orgPublisher),
			licensingLine("No Such Song", 50, orgPublisher),
			licensingLine("Orphan Song", 75, orgPublisher),
		},
	}

	run, err := newOrchestrator(testStore()).Execute(context.Background(), batch)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Len(t, run.Matched, 1)
	assert.Len(t, run.Untracked, 2, "no-match and zero-eligible lines both land untracked")
	assert.Equal(t, len(batch.Lines), len(run.Matched)+len(run.Untracked), "no silent drops")

	m := run.Matched[0]
	require.Len(t, m.Shares, 2)
	assert.InDelta(t, 50, m.Shares[0].RelativePercent, 1e-6)
	require.Len(t, m.Excluded, 1)
	assert.Equal(t, split.ReasonHasOwnPublisher, m.Excluded[0].Reason)
}

func TestExecuteEmptyTitleDoesNotBlockBatch(t *testing.T) {
	logging.DisableLoggingForTest(t)

	batch := &statement.Batch{
		Program: statement.ProgramLicensing,
		Lines: []statement.Line{
			licensingLine("", 10, orgPublisher),
			licensingLine("Euthanized", 200, orgPublisher),
		},
	}

	run, err := newOrchestrator(testStore()).Execute(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, run.Untracked, 1)
	assert.Equal(t, "missing title", run.Untracked[0].Reason)
	require.Len(t, run.Matched, 1, "lines after the bad one still process")
	assert.Equal(t, "Euthanized", run.Matched[0].Line.Title)
}

func TestExecuteIdempotent(t *testing.T) {
	logging.DisableLoggingForTest(t)

	store := testStore()
	orch := newOrchestrator(store)
	batch := &statement.Batch{
		Program: statement.ProgramLicensing,
		Lines: []statement.Line{
			licensingLine("Euthanized", 200, orgPublisher),
			licensingLine("Euthanized", 90, "11-223344"),
			licensingLine("Unknown", 5, orgPublisher),
		},
	}

	first, err := orch.Execute(context.Background(), batch)
	require.NoError(t, err)
	second, err := orch.Execute(context.Background(), batch)
	require.NoError(t, err)

	require.Equal(t, len(first.Matched), len(second.Matched))
	require.Equal(t, len(first.Untracked), len(second.Untracked))
	for i := range first.Matched {
		require.Equal(t, len(first.Matched[i].Shares), len(second.Matched[i].Shares))
		for j := range first.Matched[i].Shares {
			assert.Equal(t, first.Matched[i].Shares[j].WriterID, second.Matched[i].Shares[j].WriterID)
			assert.InDelta(t, first.Matched[i].Shares[j].RelativePercent,
				second.Matched[i].Shares[j].RelativePercent, 1e-9)
		}
	}
}

func TestExecuteExternalPublisherLine(t *testing.T) {
	logging.DisableLoggingForTest(t)

	batch := &statement.Batch{
		Program: statement.ProgramLicensing,
		Lines:   []statement.Line{licensingLine("Euthanized", 90, "11-223344")},
	}

	run, err := newOrchestrator(testStore()).Execute(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, run.Matched, 1)
	require.Len(t, run.Matched[0].Shares, 1)
	assert.Equal(t, "nathaniel", run.Matched[0].Shares[0].WriterID)
	assert.InDelta(t, 100, run.Matched[0].Shares[0].RelativePercent, 1e-6)
}

func TestExecuteNilBatch(t *testing.T) {
	run, err := newOrchestrator(testStore()).Execute(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.Empty(t, run.Matched)
	assert.Empty(t, run.Untracked)
}

func TestExecuteFirstLoadFailureShortCircuits(t *testing.T) {
	logging.DisableLoggingForTest(t)

	store := memory.New()
	store.SetError(errors.New("connection refused"))
	orch := newOrchestrator(store)

	batch := &statement.Batch{
		Program: statement.ProgramLicensing,
		Lines:   []statement.Line{licensingLine("Euthanized", 200, orgPublisher)},
	}
	run, err := orch.Execute(context.Background(), batch)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCacheUnavailable)
	assert.Empty(t, run.Matched)
	assert.Empty(t, run.Untracked)
}

func TestExecuteResolvesRawWriterMetadata(t *testing.T) {
	logging.DisableLoggingForTest(t)

	batch := &statement.Batch{
		Program:      statement.ProgramPerformance,
		Organization: "ASCAP",
		Lines: []statement.Line{
			{
				Title:   "Euthanized",
				Revenue: 40,
				Source: statement.SingleWriterSource{
					WriterName:        "Jackson Reed",
					WriterIPI:         "1234.56",
					StatementSourceID: "row-9",
				},
			},
		},
	}

	store := testStore()
	// Affiliation-gate the credits so the line stays matched under the
	// performance program.
	store.SetWorks([]catalog.Work{{
		ID: "w-euthanized", Title: "Euthanized", Status: catalog.StatusApproved,
		Credits: []catalog.Credit{{WriterID: "jackson", SplitPercent: 50, Affiliation: "ASCAP"}},
	}})

	run, err := newOrchestrator(store).Execute(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, run.Matched, 1)
	require.Len(t, run.Matched[0].Writers, 1)
	assert.Equal(t, "jackson", run.Matched[0].Writers[0].Writer.ID)
	assert.Equal(t, identity.StrategyIdentifier, run.Matched[0].Writers[0].Strategy)
}

func TestStreamYieldsSequentially(t *testing.T) {
	logging.DisableLoggingForTest(t)

	batch := &statement.Batch{
		Program: statement.ProgramLicensing,
		Lines: []statement.Line{
			licensingLine("Euthanized", 200, orgPublisher),
			licensingLine("Unknown", 5, orgPublisher),
			licensingLine("Euthanized", 10, orgPublisher),
		},
	}

	var indexes []int
	err := newOrchestrator(testStore()).Stream(context.Background(), batch, func(out reconcile.Outcome) bool {
		indexes = append(indexes, out.Index)
		return len(indexes) < 2 // stop early after two lines
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, indexes, "stream stops when yield returns false")
}

func TestReprocessFallsBackToPriorAssignment(t *testing.T) {
	logging.DisableLoggingForTest(t)

	batch := &statement.Batch{
		Program: statement.ProgramLicensing,
		Lines: []statement.Line{
			licensingLine("Vanished Song", 80, orgPublisher),
			licensingLine("Euthanized", 200, orgPublisher),
		},
	}
	prior := map[reconcile.LineKey]reconcile.Assignment{
		reconcile.Key(batch.Lines[0]): {
			WorkID: "w-old",
			Shares: []split.Share{{WriterID: "jackson", RelativePercent: 100, Revenue: 80}},
		},
	}

	run, err := newOrchestrator(testStore()).Reprocess(context.Background(), batch, prior)
	require.NoError(t, err)
	require.Len(t, run.Matched, 2)
	assert.Empty(t, run.Untracked)

	var fromPrior *reconcile.MatchedLine
	for i := range run.Matched {
		if run.Matched[i].FromPrior {
			fromPrior = &run.Matched[i]
		}
	}
	require.NotNil(t, fromPrior, "the untracked line falls back to its stored assignment")
	assert.Equal(t, "Vanished Song", fromPrior.Line.Title)
	assert.Equal(t, "jackson", fromPrior.Shares[0].WriterID)
}

func TestLineKeySeparatesPublishersAndSources(t *testing.T) {
	a := statement.Line{Title: "Same Title", Source: statement.MultiWriterSource{PublisherIPI: "11-22"}}
	b := statement.Line{Title: "Same Title", Source: statement.MultiWriterSource{PublisherIPI: "33-44"}}
	c := statement.Line{Title: "Same Title", Source: statement.SingleWriterSource{StatementSourceID: "row-1"}}

	assert.NotEqual(t, reconcile.Key(a), reconcile.Key(b))
	assert.NotEqual(t, reconcile.Key(a), reconcile.Key(c))

	// Formatting drift does not split keys.
	aAgain := statement.Line{Title: "SAME TITLE!", Source: statement.MultiWriterSource{PublisherIPI: "011.22"}}
	assert.Equal(t, reconcile.Key(a), reconcile.Key(aAgain))
}
