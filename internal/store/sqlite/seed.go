package sqlite

import (
	"context"

	"github.com/splitbook/splitbook/pkg/catalog"
	"github.com/splitbook/splitbook/pkg/errors"
	"github.com/splitbook/splitbook/pkg/statement"
)

// Seeding helpers used by the CLI import command and tests. The engine
// itself never writes; these exist so a database can be populated from
// catalog exports.

// InsertWork inserts a work and its credits in order.
func (s *Store) InsertWork(ctx context.Context, w catalog.Work) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO works (id, title, status) VALUES (?, ?, ?)`,
		w.ID, w.Title, string(w.Status)); err != nil {
		return errors.NewStoreError("catalog", "insert work", err)
	}
	for i, c := range w.Credits {
		external := 0
		if c.External {
			external = 1
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO credits (work_id, position, writer_id, writer_name, split_percent, writer_ipi, publisher_ipi, external, affiliation)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			w.ID, i, c.WriterID, c.WriterName, c.SplitPercent, c.WriterIPI, c.PublisherIPI, external, c.Affiliation); err != nil {
			return errors.NewStoreError("catalog", "insert credit", err)
		}
	}
	return nil
}

// InsertPublisher registers one of the organization's publisher
// identifiers.
func (s *Store) InsertPublisher(ctx context.Context, ipi string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO org_publishers (ipi, active) VALUES (?, 1)`, ipi); err != nil {
		return errors.NewStoreError("catalog", "insert publisher", err)
	}
	return nil
}

// InsertWriter inserts a writer identity record.
func (s *Store) InsertWriter(ctx context.Context, w catalog.Writer) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO writers (id, first_name, last_name, ipi, publisher_ipi, affiliation)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		w.ID, w.FirstName, w.LastName, w.IPI, w.PublisherIPI, w.Affiliation); err != nil {
		return errors.NewStoreError("identity", "insert writer", err)
	}
	return nil
}

// InsertFinalizedLine records a prior finalized (writer, title) pair.
func (s *Store) InsertFinalizedLine(ctx context.Context, writerID, title string, program statement.Program) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO finalized_lines (writer_id, title, program) VALUES (?, ?, ?)`,
		writerID, title, string(program)); err != nil {
		return errors.NewStoreError("ledger", "insert finalized line", err)
	}
	return nil
}
