// Package match resolves statement-line titles to catalog works using an
// exact normalized-title pass followed by a Levenshtein fuzzy pass over the
// current catalog snapshot.
package match

import (
	"context"
	"math"

	"github.com/splitbook/splitbook/pkg/catalog"
	"github.com/splitbook/splitbook/pkg/logging"
	"github.com/splitbook/splitbook/pkg/norm"
)

// DefaultMinConfidence is the similarity a fuzzy candidate must reach to
// count as a match.
const DefaultMinConfidence = 0.85

// Method records how a match was found.
type Method string

// Match methods.
const (
	MethodExact Method = "exact"
	MethodFuzzy Method = "fuzzy"
)

// Result is a successful title match against the catalog.
type Result struct {
	Work       *catalog.Work
	Confidence int // 0-100
	Method     Method
}

// Matcher resolves titles against the cached catalog.
type Matcher struct {
	cache         *catalog.Cache
	minConfidence float64
}

// NewMatcher creates a matcher over the given cache. A non-positive
// minConfidence falls back to DefaultMinConfidence.
func NewMatcher(cache *catalog.Cache, minConfidence float64) *Matcher {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Matcher{cache: cache, minConfidence: minConfidence}
}

// Work resolves one title against the current catalog snapshot. A nil
// result with nil error means no work cleared the confidence threshold.
func (m *Matcher) Work(ctx context.Context, title string) (*Result, error) {
	snap, err := m.cache.Snapshot(ctx)
	if err != nil {
		// Empty first-load snapshot: nothing can match, but the caller's
		// batch keeps going.
		logging.Ctx(ctx).Warn().Err(err).Msg("Matching against empty catalog")
	}
	return m.InSnapshot(snap, title), nil
}

// Batch resolves many titles against one consistent snapshot, forcing a
// single refresh up front so the whole batch observes the same catalog.
// The returned map is keyed by the input titles; absent matches map to nil.
func (m *Matcher) Batch(ctx context.Context, titles []string) (map[string]*Result, error) {
	m.cache.Invalidate()
	snap, err := m.cache.Snapshot(ctx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Matching batch against empty catalog")
	}

	results := make(map[string]*Result, len(titles))
	for _, title := range titles {
		results[title] = m.InSnapshot(snap, title)
	}
	return results, nil
}

// InSnapshot resolves a title against a specific snapshot.
//
// The exact pass wins outright: if any work's normalized title equals the
// normalized input, it is returned with confidence 100 and the fuzzy pass
// is skipped. Otherwise the single best fuzzy candidate at or above the
// confidence threshold is returned. Ties between equally-scored fuzzy
// candidates resolve to catalog iteration order: the first seen wins.
func (m *Matcher) InSnapshot(snap *catalog.Snapshot, title string) *Result {
	normalized := norm.Title(title)
	if normalized == "" || snap == nil {
		return nil
	}

	for i := range snap.Works {
		if norm.Title(snap.Works[i].Title) == normalized {
			return &Result{Work: &snap.Works[i], Confidence: 100, Method: MethodExact}
		}
	}

	var best *catalog.Work
	bestScore := 0.0
	for i := range snap.Works {
		score := norm.Similarity(normalized, norm.Title(snap.Works[i].Title))
		if score >= m.minConfidence && score > bestScore {
			best = &snap.Works[i]
			bestScore = score
		}
	}
	if best == nil {
		return nil
	}
	return &Result{
		Work:       best,
		Confidence: int(math.Round(bestScore * 100)),
		Method:     MethodFuzzy,
	}
}
