package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/splitbook/splitbook/pkg/errors"
	"github.com/splitbook/splitbook/pkg/logging"
	"github.com/splitbook/splitbook/pkg/metrics"
)

// DefaultTTL is how long a snapshot stays fresh before the next read
// triggers a synchronous refresh.
const DefaultTTL = 60 * time.Second

// Cache holds a consistent snapshot of the tracked-work catalog and the
// organization's publisher registry, refreshed from the Store on expiry.
//
// Snapshots are replaced atomically; concurrent readers always observe
// either the previous or the new snapshot in full, never a partial update.
// On refresh failure the last good snapshot is served if one exists; a
// first-ever load failure yields an empty snapshot so the engine degrades
// to "nothing matches" rather than failing.
type Cache struct {
	store   Store
	ttl     time.Duration
	metrics *metrics.Metrics

	current atomic.Pointer[Snapshot]

	// refreshMu serializes refreshes so an expired snapshot is loaded once,
	// not once per concurrent reader.
	refreshMu sync.Mutex
	expired   atomic.Bool
}

// NewCache creates a cache over the given store. A non-positive ttl falls
// back to DefaultTTL. The metrics argument may be nil.
func NewCache(store Store, ttl time.Duration, m *metrics.Metrics) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: store, ttl: ttl, metrics: m}
}

// Snapshot returns the current catalog snapshot, refreshing synchronously
// if the held one has expired or was invalidated.
//
// The returned snapshot is immutable and safe to read concurrently. The
// error is non-nil only when no snapshot has ever loaded successfully; an
// empty snapshot is still returned in that case so callers may degrade
// instead of aborting.
func (c *Cache) Snapshot(ctx context.Context) (*Snapshot, error) {
	if snap := c.current.Load(); snap != nil && !c.stale(snap) {
		return snap, nil
	}
	return c.refresh(ctx)
}

// Invalidate marks the held snapshot expired so the next read refreshes.
// Callers invalidate once before a batch to guarantee a single consistent
// view for the whole run.
func (c *Cache) Invalidate() {
	c.expired.Store(true)
}

func (c *Cache) stale(snap *Snapshot) bool {
	return c.expired.Load() || time.Since(snap.LoadedAt) >= c.ttl
}

func (c *Cache) refresh(ctx context.Context) (*Snapshot, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another reader may have refreshed while we waited on the lock.
	if snap := c.current.Load(); snap != nil && !c.stale(snap) {
		return snap, nil
	}

	snap, err := c.load(ctx)
	if err != nil {
		c.metrics.CacheRefresh(true)
		if last := c.current.Load(); last != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Time("snapshot_loaded_at", last.LoadedAt).
				Msg("Catalog refresh failed, serving last good snapshot")
			// Re-stamp the stale snapshot so readers do not hammer the
			// failing store until the next TTL window.
			kept := &Snapshot{Works: last.Works, Publishers: last.Publishers, LoadedAt: time.Now()}
			c.current.Store(kept)
			c.expired.Store(false)
			return kept, nil
		}
		logging.Ctx(ctx).Error().Err(err).
			Msg("Catalog load failed with no prior snapshot, serving empty catalog")
		empty := &Snapshot{Publishers: PublisherRegistry{}, LoadedAt: time.Now()}
		return empty, errors.NewStoreError("catalog", "load", err)
	}

	c.current.Store(snap)
	c.expired.Store(false)
	c.metrics.CacheRefresh(false)
	logging.Ctx(ctx).Debug().
		Int("works", len(snap.Works)).
		Int("publishers", len(snap.Publishers)).
		Msg("Catalog snapshot refreshed")
	return snap, nil
}

func (c *Cache) load(ctx context.Context) (*Snapshot, error) {
	works, err := c.store.TrackedWorks(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := c.store.PublisherIdentifiers(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Works:      works,
		Publishers: NewPublisherRegistry(ids),
		LoadedAt:   time.Now(),
	}, nil
}
