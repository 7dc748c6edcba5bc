package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitbook/splitbook/internal/store/memory"
	"github.com/splitbook/splitbook/pkg/catalog"
	"github.com/splitbook/splitbook/pkg/identity"
	"github.com/splitbook/splitbook/pkg/logging"
	"github.com/splitbook/splitbook/pkg/statement"
)

func directoryWith(writers ...catalog.Writer) *memory.Store {
	store := memory.New()
	store.SetWriters(writers)
	return store
}

func TestResolveIdentifierMatch(t *testing.T) {
	store := directoryWith(
		catalog.Writer{ID: "w1", FirstName: "Jackson", LastName: "Reed", IPI: "001-234.56"},
		catalog.Writer{ID: "w2", FirstName: "Jalan", LastName: "Price", IPI: "777-888"},
	)
	m := identity.NewMatcher(store, store, nil)

	candidates, err := m.Resolve(context.Background(), identity.Query{IPI: "1234.56"})
	require.NoError(t, err)
	require.Len(t, candidates, 1, "identifier match is authoritative and short-circuits")
	assert.Equal(t, "w1", candidates[0].Writer.ID)
	assert.Equal(t, 100, candidates[0].Confidence)
	assert.Equal(t, identity.StrategyIdentifier, candidates[0].Strategy)
	assert.Equal(t, identity.FieldWriterIPI, candidates[0].MatchedField)
}

func TestResolveIdentifierMatchesPublisherField(t *testing.T) {
	store := directoryWith(
		catalog.Writer{ID: "w1", FirstName: "Nathaniel", LastName: "Cole", IPI: "111", PublisherIPI: "11-223344"},
	)
	m := identity.NewMatcher(store, store, nil)

	candidates, err := m.Resolve(context.Background(), identity.Query{IPI: "011223344"})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, identity.FieldPublisherIPI, candidates[0].MatchedField)
}

func TestResolveIdentifierShortCircuitsNameStrategy(t *testing.T) {
	// Both writers would clear the name threshold, but the identifier hit
	// on w1 ends the run before the name pass.
	store := directoryWith(
		catalog.Writer{ID: "w1", FirstName: "John", LastName: "Smith", IPI: "555"},
		catalog.Writer{ID: "w2", FirstName: "Jon", LastName: "Smith", IPI: "556"},
	)
	m := identity.NewMatcher(store, store, nil)

	candidates, err := m.Resolve(context.Background(), identity.Query{Name: "John Smith", IPI: "555"})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "w1", candidates[0].Writer.ID)
}

func TestResolveNameSimilarity(t *testing.T) {
	store := directoryWith(
		catalog.Writer{ID: "close", FirstName: "Jon", LastName: "Smith"},
		catalog.Writer{ID: "far", FirstName: "Wolfgang", LastName: "Amadeus"},
	)
	m := identity.NewMatcher(store, store, nil)

	candidates, err := m.Resolve(context.Background(), identity.Query{Name: "John Smith"})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "close", candidates[0].Writer.ID)
	assert.Equal(t, identity.StrategyName, candidates[0].Strategy)
	assert.GreaterOrEqual(t, candidates[0].Confidence, 70)
}

func TestResolveNameHeuristics(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		writer     catalog.Writer
		confidence int
	}{
		{
			// Similarity against "JW Morrison" is low, but the last name
			// is contained and a token carries the first initial.
			name:       "last name plus initial",
			query:      "MORRISON J W",
			writer:     catalog.Writer{ID: "w", FirstName: "James", LastName: "Morrison"},
			confidence: 85,
		},
		{
			name:       "last name containment only",
			query:      "THE MORRISON ESTATE",
			writer:     catalog.Writer{ID: "w", FirstName: "Quincy", LastName: "Morrison"},
			confidence: 75,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := directoryWith(tt.writer)
			m := identity.NewMatcher(store, store, nil)

			candidates, err := m.Resolve(context.Background(), identity.Query{Name: tt.query})
			require.NoError(t, err)
			require.Len(t, candidates, 1)
			assert.Equal(t, tt.confidence, candidates[0].Confidence)
		})
	}
}

func TestResolveAllClearingWritersRetained(t *testing.T) {
	store := directoryWith(
		catalog.Writer{ID: "a", FirstName: "Jon", LastName: "Smith"},
		catalog.Writer{ID: "b", FirstName: "John", LastName: "Smyth"},
	)
	m := identity.NewMatcher(store, store, nil)

	candidates, err := m.Resolve(context.Background(), identity.Query{Name: "John Smith"})
	require.NoError(t, err)
	assert.Len(t, candidates, 2, "the name pass keeps every writer above threshold, not only the best")
	// Sorted descending by confidence.
	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].Confidence, candidates[i].Confidence)
	}
}

func TestResolveHistoryAddsCandidate(t *testing.T) {
	store := directoryWith(
		catalog.Writer{ID: "w1", FirstName: "Greta", LastName: "Lindqvist"},
	)
	store.AddHistory(memory.HistoryEntry{WriterID: "w1", Title: "Euthanized", Program: statement.ProgramPerformance})
	m := identity.NewMatcher(store, store, nil)

	candidates, err := m.Resolve(context.Background(), identity.Query{
		Name:    "Someone Unrelated",
		Title:   "Euthanized",
		Program: statement.ProgramPerformance,
	})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "w1", candidates[0].Writer.ID)
	assert.Equal(t, identity.StrategyHistory, candidates[0].Strategy)
	assert.Equal(t, 100, candidates[0].Confidence)
}

func TestResolveHistoryBoostsExistingCandidate(t *testing.T) {
	store := directoryWith(
		catalog.Writer{ID: "w1", FirstName: "Jon", LastName: "Smith"},
	)
	store.AddHistory(memory.HistoryEntry{WriterID: "w1", Title: "Euthanized"})
	m := identity.NewMatcher(store, store, nil)

	// Name pass scores 90 (one edit over ten characters); the history hit
	// adds 10.
	candidates, err := m.Resolve(context.Background(), identity.Query{
		Name:  "John Smith",
		Title: "Euthanized",
	})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, 100, candidates[0].Confidence)
}

func TestResolveHistoryBoostCapped(t *testing.T) {
	store := directoryWith(
		catalog.Writer{ID: "w1", FirstName: "Jon", LastName: "Smith"},
	)
	store.AddHistory(memory.HistoryEntry{WriterID: "w1", Title: "Euthanized"})
	m := identity.NewMatcher(store, store, nil)

	candidates, err := m.Resolve(context.Background(), identity.Query{
		Name:  "Jon Smith",
		Title: "Euthanized",
	})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, 100, candidates[0].Confidence, "boost is capped at 100")
}

func TestResolveLedgerFailureDegrades(t *testing.T) {
	logging.DisableLoggingForTest(t)

	directory := directoryWith(catalog.Writer{ID: "w1", FirstName: "Jon", LastName: "Smith"})
	ledger := memory.New()
	ledger.SetError(assert.AnError)
	m := identity.NewMatcher(directory, ledger, nil)

	candidates, err := m.Resolve(context.Background(), identity.Query{Name: "Jon Smith", Title: "Euthanized"})
	require.NoError(t, err, "a ledger failure must not sink resolution")
	require.Len(t, candidates, 1)
	assert.Equal(t, identity.StrategyName, candidates[0].Strategy)
}

func TestResolveNoSignals(t *testing.T) {
	store := directoryWith(catalog.Writer{ID: "w1", FirstName: "Jon", LastName: "Smith"})
	m := identity.NewMatcher(store, store, nil)

	candidates, err := m.Resolve(context.Background(), identity.Query{})
	require.NoError(t, err)
	assert.Empty(t, candidates)
}
