package catalog

import "context"

// Store is the read-only backing store for catalog data. It is invoked only
// when the cache refreshes, never per statement line.
type Store interface {
	// TrackedWorks returns all works with status approved or tracking,
	// each with fully resolved credits.
	TrackedWorks(ctx context.Context) ([]Work, error)

	// PublisherIdentifiers returns the raw identifiers of the hosting
	// organization's active publishing entities.
	PublisherIdentifiers(ctx context.Context) ([]string, error)
}
