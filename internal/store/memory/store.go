// Package memory provides map-backed implementations of the engine's
// read-only collaborators: the catalog store, the identity directory, and
// the historical ledger. Used by tests and by the CLI's file-seeded mode.
package memory

import (
	"context"
	"sync"

	"github.com/splitbook/splitbook/pkg/catalog"
	"github.com/splitbook/splitbook/pkg/statement"
)

// HistoryEntry is one prior finalized (writer, title) pair.
type HistoryEntry struct {
	WriterID string
	Title    string
	Program  statement.Program
}

// Store is an in-memory catalog store, identity directory, and historical
// ledger. Safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	works      []catalog.Work
	publishers []string
	writers    []catalog.Writer
	history    []HistoryEntry
	err        error
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// SetWorks replaces the tracked works.
func (s *Store) SetWorks(works []catalog.Work) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.works = works
}

// SetPublishers replaces the organization publisher identifiers.
func (s *Store) SetPublishers(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishers = ids
}

// SetWriters replaces the writer identity records.
func (s *Store) SetWriters(writers []catalog.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writers = writers
}

// AddHistory appends prior finalized line items.
func (s *Store) AddHistory(entries ...HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, entries...)
}

// SetError makes every read fail with err until cleared with nil. Used to
// exercise degraded-cache paths in tests.
func (s *Store) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// TrackedWorks implements catalog.Store. Only approved and tracking works
// are returned.
func (s *Store) TrackedWorks(_ context.Context) ([]catalog.Work, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]catalog.Work, 0, len(s.works))
	for _, w := range s.works {
		if w.Status == catalog.StatusApproved || w.Status == catalog.StatusTracking {
			out = append(out, w)
		}
	}
	return out, nil
}

// PublisherIdentifiers implements catalog.Store.
func (s *Store) PublisherIdentifiers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]string, len(s.publishers))
	copy(out, s.publishers)
	return out, nil
}

// Writers implements identity.Directory.
func (s *Store) Writers(_ context.Context) ([]catalog.Writer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]catalog.Writer, len(s.writers))
	copy(out, s.writers)
	return out, nil
}

// FinalizedTitles implements identity.Ledger. An empty program returns all
// entries; otherwise only entries recorded under that program.
func (s *Store) FinalizedTitles(_ context.Context, program statement.Program) (map[string][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string][]string)
	for _, e := range s.history {
		if program != "" && e.Program != "" && e.Program != program {
			continue
		}
		out[e.WriterID] = append(out[e.WriterID], e.Title)
	}
	return out, nil
}
