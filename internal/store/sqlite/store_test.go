package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitbook/splitbook/pkg/catalog"
	"github.com/splitbook/splitbook/pkg/statement"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "splitbook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestWorksRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertWork(ctx, catalog.Work{
		ID:     "w-euthanized",
		Title:  "Euthanized",
		Status: catalog.StatusApproved,
		Credits: []catalog.Credit{
			{WriterID: "jackson", WriterName: "Jackson Reed", SplitPercent: 16.67},
			{WriterID: "nathaniel", SplitPercent: 16.67, PublisherIPI: "11-223344", External: true},
		},
	}))
	require.NoError(t, store.InsertWork(ctx, catalog.Work{
		ID: "w-rejected", Title: "Rejected", Status: catalog.StatusRejected,
	}))

	works, err := store.TrackedWorks(ctx)
	require.NoError(t, err)
	require.Len(t, works, 1, "rejected works are filtered by the query")

	w := works[0]
	assert.Equal(t, "Euthanized", w.Title)
	require.Len(t, w.Credits, 2)
	assert.Equal(t, "jackson", w.Credits[0].WriterID, "credits keep recorded order")
	assert.InDelta(t, 16.67, w.Credits[0].SplitPercent, 1e-9)
	assert.True(t, w.Credits[1].External)
}

func TestPublisherIdentifiers(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertPublisher(ctx, "99-887766"))
	require.NoError(t, store.InsertPublisher(ctx, "99-887766"), "re-registering is idempotent")

	ids, err := store.PublisherIdentifiers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"99-887766"}, ids)
}

func TestWritersRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertWriter(ctx, catalog.Writer{
		ID: "jackson", FirstName: "Jackson", LastName: "Reed",
		IPI: "001-234.56", Affiliation: "ASCAP",
	}))

	writers, err := store.Writers(ctx)
	require.NoError(t, err)
	require.Len(t, writers, 1)
	assert.Equal(t, "Jackson Reed", writers[0].FullName())
	assert.Equal(t, "ASCAP", writers[0].Affiliation)
}

func TestFinalizedTitlesProgramFilter(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertFinalizedLine(ctx, "jackson", "Euthanized", statement.ProgramPerformance))
	require.NoError(t, store.InsertFinalizedLine(ctx, "jackson", "Orphan Song", statement.ProgramLicensing))
	require.NoError(t, store.InsertFinalizedLine(ctx, "jalan", "Unscoped", ""))

	perf, err := store.FinalizedTitles(ctx, statement.ProgramPerformance)
	require.NoError(t, err)
	assert.Equal(t, []string{"Euthanized"}, perf["jackson"])
	assert.Equal(t, []string{"Unscoped"}, perf["jalan"])

	all, err := store.FinalizedTitles(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all["jackson"], 2)
}
