// Package sqlite backs the engine's read-only collaborators with a SQLite
// database: tracked works and credits, the organization publisher
// registry, writer identities, and prior finalized line items.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/splitbook/splitbook/pkg/catalog"
	"github.com/splitbook/splitbook/pkg/errors"
	"github.com/splitbook/splitbook/pkg/statement"
)

// Store wraps a SQLite database holding catalog, identity, and ledger
// data. It implements catalog.Store, identity.Directory, and
// identity.Ledger.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapResource("open", "database", path, err)
	}
	// Serialized access keeps migrations and concurrent cache refreshes
	// from tripping SQLITE_BUSY under the pure-Go driver.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrations returns the schema statements. Each string is a single SQL
// statement (SQLite executes one at a time).
func migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS works (
			id      TEXT PRIMARY KEY,
			title   TEXT NOT NULL,
			status  TEXT NOT NULL DEFAULT 'tracking'
		)`,
		`CREATE TABLE IF NOT EXISTS credits (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			work_id       TEXT NOT NULL REFERENCES works(id),
			position      INTEGER NOT NULL DEFAULT 0,
			writer_id     TEXT NOT NULL DEFAULT '',
			writer_name   TEXT NOT NULL DEFAULT '',
			split_percent REAL NOT NULL DEFAULT 0,
			writer_ipi    TEXT NOT NULL DEFAULT '',
			publisher_ipi TEXT NOT NULL DEFAULT '',
			external      INTEGER NOT NULL DEFAULT 0,
			affiliation   TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_credits_work ON credits(work_id, position)`,
		`CREATE TABLE IF NOT EXISTS org_publishers (
			ipi    TEXT PRIMARY KEY,
			active INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS writers (
			id            TEXT PRIMARY KEY,
			first_name    TEXT NOT NULL DEFAULT '',
			last_name     TEXT NOT NULL DEFAULT '',
			ipi           TEXT NOT NULL DEFAULT '',
			publisher_ipi TEXT NOT NULL DEFAULT '',
			affiliation   TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS finalized_lines (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			writer_id TEXT NOT NULL,
			title     TEXT NOT NULL,
			program   TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_finalized_writer ON finalized_lines(writer_id)`,
	}
}

func (s *Store) migrate() error {
	for _, stmt := range migrations() {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("applying migration: %w", err)
		}
	}
	return nil
}

// TrackedWorks implements catalog.Store: all works with status approved or
// tracking, credits resolved in recorded order.
func (s *Store) TrackedWorks(ctx context.Context) ([]catalog.Work, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, status FROM works WHERE status IN ('approved', 'tracking') ORDER BY id`)
	if err != nil {
		return nil, errors.NewStoreError("catalog", "query works", err)
	}
	defer rows.Close()

	var works []catalog.Work
	for rows.Next() {
		var w catalog.Work
		var status string
		if err := rows.Scan(&w.ID, &w.Title, &status); err != nil {
			return nil, errors.NewStoreError("catalog", "scan work", err)
		}
		w.Status = catalog.Status(status)
		works = append(works, w)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreError("catalog", "iterate works", err)
	}

	for i := range works {
		credits, err := s.creditsFor(ctx, works[i].ID)
		if err != nil {
			return nil, err
		}
		works[i].Credits = credits
	}
	return works, nil
}

func (s *Store) creditsFor(ctx context.Context, workID string) ([]catalog.Credit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT writer_id, writer_name, split_percent, writer_ipi, publisher_ipi, external, affiliation
		 FROM credits WHERE work_id = ? ORDER BY position`, workID)
	if err != nil {
		return nil, errors.NewStoreError("catalog", "query credits", err)
	}
	defer rows.Close()

	var credits []catalog.Credit
	for rows.Next() {
		var c catalog.Credit
		var external int
		if err := rows.Scan(&c.WriterID, &c.WriterName, &c.SplitPercent,
			&c.WriterIPI, &c.PublisherIPI, &external, &c.Affiliation); err != nil {
			return nil, errors.NewStoreError("catalog", "scan credit", err)
		}
		c.External = external != 0
		credits = append(credits, c)
	}
	return credits, rows.Err()
}

// PublisherIdentifiers implements catalog.Store.
func (s *Store) PublisherIdentifiers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ipi FROM org_publishers WHERE active = 1`)
	if err != nil {
		return nil, errors.NewStoreError("catalog", "query publishers", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var ipi string
		if err := rows.Scan(&ipi); err != nil {
			return nil, errors.NewStoreError("catalog", "scan publisher", err)
		}
		ids = append(ids, ipi)
	}
	return ids, rows.Err()
}

// Writers implements identity.Directory.
func (s *Store) Writers(ctx context.Context) ([]catalog.Writer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, first_name, last_name, ipi, publisher_ipi, affiliation FROM writers ORDER BY id`)
	if err != nil {
		return nil, errors.NewStoreError("identity", "query writers", err)
	}
	defer rows.Close()

	var writers []catalog.Writer
	for rows.Next() {
		var w catalog.Writer
		if err := rows.Scan(&w.ID, &w.FirstName, &w.LastName, &w.IPI, &w.PublisherIPI, &w.Affiliation); err != nil {
			return nil, errors.NewStoreError("identity", "scan writer", err)
		}
		writers = append(writers, w)
	}
	return writers, rows.Err()
}

// FinalizedTitles implements identity.Ledger. An empty program returns all
// entries.
func (s *Store) FinalizedTitles(ctx context.Context, program statement.Program) (map[string][]string, error) {
	query := `SELECT writer_id, title FROM finalized_lines`
	args := []any{}
	if program != "" {
		query += ` WHERE program IN (?, '')`
		args = append(args, string(program))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStoreError("ledger", "query finalized lines", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var writerID, title string
		if err := rows.Scan(&writerID, &title); err != nil {
			return nil, errors.NewStoreError("ledger", "scan finalized line", err)
		}
		out[writerID] = append(out[writerID], title)
	}
	return out, rows.Err()
}
