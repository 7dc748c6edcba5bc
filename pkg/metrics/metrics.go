// Package metrics exposes prometheus counters for engine activity. The
// engine registers counters on an injectable Registerer; exposition over
// HTTP is the host application's concern.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the engine's prometheus collectors. A nil *Metrics is valid
// and records nothing, so components treat it as optional.
type Metrics struct {
	linesProcessed  prometheus.Counter
	linesMatched    prometheus.Counter
	linesUntracked  prometheus.Counter
	cacheRefreshes  prometheus.Counter
	cacheFailures   prometheus.Counter
	identityMatches *prometheus.CounterVec
}

// New creates and registers the engine collectors on reg. Passing
// prometheus.DefaultRegisterer wires into the host's default registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		linesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "splitbook",
			Name:      "lines_processed_total",
			Help:      "Statement lines processed across all batches.",
		}),
		linesMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "splitbook",
			Name:      "lines_matched_total",
			Help:      "Statement lines classified as matched.",
		}),
		linesUntracked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "splitbook",
			Name:      "lines_untracked_total",
			Help:      "Statement lines classified as untracked.",
		}),
		cacheRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "splitbook",
			Name:      "catalog_refreshes_total",
			Help:      "Catalog cache refreshes, successful or degraded.",
		}),
		cacheFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "splitbook",
			Name:      "catalog_refresh_failures_total",
			Help:      "Catalog cache refreshes that fell back to a stale or empty snapshot.",
		}),
		identityMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splitbook",
			Name:      "identity_matches_total",
			Help:      "Writer identity candidates produced, by strategy.",
		}, []string{"strategy"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.linesProcessed, m.linesMatched, m.linesUntracked,
			m.cacheRefreshes, m.cacheFailures, m.identityMatches,
		)
	}
	return m
}

// LineProcessed records one processed line with its classification.
func (m *Metrics) LineProcessed(matched bool) {
	if m == nil {
		return
	}
	m.linesProcessed.Inc()
	if matched {
		m.linesMatched.Inc()
	} else {
		m.linesUntracked.Inc()
	}
}

// CacheRefresh records one cache refresh attempt.
func (m *Metrics) CacheRefresh(failed bool) {
	if m == nil {
		return
	}
	m.cacheRefreshes.Inc()
	if failed {
		m.cacheFailures.Inc()
	}
}

// IdentityMatch records one identity candidate by resolving strategy.
func (m *Metrics) IdentityMatch(strategy string) {
	if m == nil {
		return
	}
	m.identityMatches.WithLabelValues(strategy).Inc()
}
