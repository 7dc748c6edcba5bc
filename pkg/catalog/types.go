// Package catalog defines the tracked-work catalog consumed by the
// reconciliation engine: works, writer credits, the organization's own
// publisher registry, and a TTL snapshot cache over the backing store.
// The engine is a read-only consumer; catalog data is owned by an external
// catalog-management surface and never mutated here.
package catalog

import (
	"time"

	"github.com/splitbook/splitbook/pkg/norm"
)

// Status is the tracking status of a catalog work.
type Status string

// Work tracking statuses.
const (
	StatusApproved Status = "approved"
	StatusTracking Status = "tracking"
	StatusRejected Status = "rejected"
)

// Work is a tracked creative work with its ordered writer credits.
type Work struct {
	ID      string
	Title   string
	Status  Status
	Credits []Credit
}

// Credit records one writer's participation on a work.
type Credit struct {
	// WriterID links the credit to a writer identity. Empty for unlinked or
	// external credits.
	WriterID string

	// WriterName is the display name as recorded on the work, kept for
	// exclusion diagnostics on unlinked credits.
	WriterName string

	// SplitPercent is the writer's contractual share of the work's
	// royalties, independent of any single statement line.
	SplitPercent float64

	// WriterIPI is the writer's IPI-style identifier, raw as recorded.
	WriterIPI string

	// PublisherIPI is the credit's publisher identifier, raw as recorded.
	// Empty when the writer has no publisher of their own.
	PublisherIPI string

	// External flags a credit belonging to a writer outside the hosting
	// organization's roster.
	External bool

	// Affiliation is the rights organization the writer is affiliated with.
	Affiliation string
}

// Linked reports whether the credit references a writer identity.
func (c Credit) Linked() bool { return c.WriterID != "" }

// HasOwnPublisher reports whether the credit carries an independent
// publisher identifier outside the given registry.
func (c Credit) HasOwnPublisher(registry PublisherRegistry) bool {
	return c.PublisherIPI != "" && !registry.Contains(c.PublisherIPI)
}

// Writer is a writer identity record from the identity directory.
type Writer struct {
	ID           string
	FirstName    string
	LastName     string
	IPI          string
	PublisherIPI string
	Affiliation  string
}

// FullName assembles the writer's display name.
func (w Writer) FullName() string {
	switch {
	case w.FirstName == "":
		return w.LastName
	case w.LastName == "":
		return w.FirstName
	default:
		return w.FirstName + " " + w.LastName
	}
}

// PublisherRegistry is the set of identifiers representing the hosting
// organization's own publishing entities, keyed by normalized identifier.
type PublisherRegistry map[string]struct{}

// NewPublisherRegistry builds a registry from raw identifiers, normalizing
// each entry.
func NewPublisherRegistry(ids []string) PublisherRegistry {
	r := make(PublisherRegistry, len(ids))
	for _, id := range ids {
		if n := norm.Identifier(id); n != "" {
			r[n] = struct{}{}
		}
	}
	return r
}

// Contains reports whether the identifier belongs to the organization.
// The operand is normalized before lookup.
func (r PublisherRegistry) Contains(id string) bool {
	if id == "" {
		return false
	}
	_, ok := r[norm.Identifier(id)]
	return ok
}

// Snapshot is one consistent view of the catalog: all works with status
// approved or tracking, plus the active publisher registry. A snapshot is
// immutable once published by the cache.
type Snapshot struct {
	Works      []Work
	Publishers PublisherRegistry
	LoadedAt   time.Time
}

// Empty reports whether the snapshot holds no catalog data.
func (s *Snapshot) Empty() bool {
	return s == nil || (len(s.Works) == 0 && len(s.Publishers) == 0)
}
