// Package identity resolves individual writer identities from raw
// statement-line metadata. Statement formats that embed writer names and
// IPI numbers rather than pre-linked catalog credits go through three
// ordered strategies: identifier equality, name similarity, and historical
// precedent from prior finalized line items.
package identity

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/splitbook/splitbook/pkg/catalog"
	"github.com/splitbook/splitbook/pkg/logging"
	"github.com/splitbook/splitbook/pkg/metrics"
	"github.com/splitbook/splitbook/pkg/norm"
	"github.com/splitbook/splitbook/pkg/statement"
)

// Strategy identifies which resolution strategy produced a candidate.
type Strategy string

// Resolution strategies, in precedence order.
const (
	StrategyIdentifier Strategy = "identifier"
	StrategyName       Strategy = "name"
	StrategyHistory    Strategy = "history"
)

// Matched-field labels for identifier matches.
const (
	FieldWriterIPI    = "writer_ipi"
	FieldPublisherIPI = "publisher_ipi"
)

// Name-similarity thresholds and heuristic confidences.
const (
	nameThreshold      = 70
	nameLastAndInitial = 85
	nameLastContained  = 75
	historyThreshold   = 0.85
	historyBoost       = 10
	maxConfidence      = 100
)

// Directory supplies writer identity records. Read-only collaborator.
type Directory interface {
	Writers(ctx context.Context) ([]catalog.Writer, error)
}

// Ledger supplies prior finalized statement titles per writer, optionally
// filtered by program. Read-only collaborator.
type Ledger interface {
	FinalizedTitles(ctx context.Context, program statement.Program) (map[string][]string, error)
}

// Query carries the raw line metadata a writer is resolved from.
type Query struct {
	// Name is the statement-provided display name.
	Name string

	// IPI is the statement-provided writer identifier, raw.
	IPI string

	// Title is the statement line's title, used by the history strategy.
	Title string

	// Program scopes the historical-precedent lookup.
	Program statement.Program
}

// Candidate is one resolved writer with the confidence and strategy that
// produced it.
type Candidate struct {
	Writer     catalog.Writer
	Confidence int
	Strategy   Strategy

	// MatchedField records which identifier field matched for
	// StrategyIdentifier candidates.
	MatchedField string
}

// Matcher resolves writer identities against the identity directory.
type Matcher struct {
	directory Directory
	ledger    Ledger
	metrics   *metrics.Metrics
}

// NewMatcher creates an identity matcher. The ledger and metrics arguments
// may be nil; without a ledger the history strategy is skipped.
func NewMatcher(directory Directory, ledger Ledger, m *metrics.Metrics) *Matcher {
	return &Matcher{directory: directory, ledger: ledger, metrics: m}
}

// state drives the strategy progression. The identifier strategy is
// authoritative: producing any candidate there ends the run.
type state int

const (
	stateIdentifier state = iota
	stateName
	stateHistory
	stateDone
)

// Resolve runs the strategies in order and returns candidates deduplicated
// by writer (highest confidence kept), sorted descending by confidence.
func (m *Matcher) Resolve(ctx context.Context, q Query) ([]Candidate, error) {
	writers, err := m.directory.Writers(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	for st := stateIdentifier; st != stateDone; {
		switch st {
		case stateIdentifier:
			if c := m.byIdentifier(q, writers); c != nil {
				candidates = []Candidate{*c}
				st = stateDone
				break
			}
			st = stateName
		case stateName:
			candidates = append(candidates, m.byName(q, writers)...)
			st = stateHistory
		case stateHistory:
			history, err := m.byHistory(ctx, q, writers)
			if err != nil {
				// Precedent is an enrichment pass; a ledger failure must
				// not sink the line.
				logging.Ctx(ctx).Warn().Err(err).Msg("Historical precedent lookup failed, skipping")
			} else {
				candidates = mergeHistory(candidates, history)
			}
			st = stateDone
		}
	}

	for _, c := range candidates {
		m.metrics.IdentityMatch(string(c.Strategy))
	}
	return rank(candidates), nil
}

// byIdentifier compares the normalized query IPI against every writer's
// writer identifier and, separately, publisher identifier. First equality
// wins with confidence 100.
func (m *Matcher) byIdentifier(q Query, writers []catalog.Writer) *Candidate {
	id := norm.Identifier(q.IPI)
	if id == "" {
		return nil
	}
	for _, w := range writers {
		if norm.Identifier(w.IPI) == id {
			return &Candidate{Writer: w, Confidence: maxConfidence, Strategy: StrategyIdentifier, MatchedField: FieldWriterIPI}
		}
	}
	for _, w := range writers {
		if w.PublisherIPI != "" && norm.Identifier(w.PublisherIPI) == id {
			return &Candidate{Writer: w, Confidence: maxConfidence, Strategy: StrategyIdentifier, MatchedField: FieldPublisherIPI}
		}
	}
	return nil
}

// byName scores every writer by display-name similarity and a last-name
// heuristic, keeping whichever outcome is higher. All writers clearing the
// threshold are retained as candidates, not only the best.
func (m *Matcher) byName(q Query, writers []catalog.Writer) []Candidate {
	name := norm.Title(q.Name)
	if name == "" {
		return nil
	}

	var out []Candidate
	for _, w := range writers {
		score := int(math.Round(norm.Similarity(name, norm.Title(w.FullName())) * 100))
		if h := lastNameHeuristic(name, w); h > score {
			score = h
		}
		if score >= nameThreshold {
			out = append(out, Candidate{Writer: w, Confidence: score, Strategy: StrategyName})
		}
	}
	return out
}

// lastNameHeuristic scores statement names that embed the writer's last
// name: containment plus a matching first initial scores 85, containment
// alone 75, otherwise 0.
func lastNameHeuristic(name string, w catalog.Writer) int {
	last := norm.Title(w.LastName)
	if last == "" || !strings.Contains(name, last) {
		return 0
	}
	first := norm.Title(w.FirstName)
	if first != "" {
		initial := first[:1]
		for _, token := range strings.Fields(name) {
			if token != last && strings.HasPrefix(token, initial) {
				return nameLastAndInitial
			}
		}
	}
	return nameLastContained
}

// byHistory finds, per writer, the best title similarity among prior
// finalized line items and keeps writers at or above the precedent
// threshold.
func (m *Matcher) byHistory(ctx context.Context, q Query, writers []catalog.Writer) ([]Candidate, error) {
	if m.ledger == nil || q.Title == "" {
		return nil, nil
	}
	titles, err := m.ledger.FinalizedTitles(ctx, q.Program)
	if err != nil {
		return nil, err
	}

	queryTitle := norm.Title(q.Title)
	var out []Candidate
	for _, w := range writers {
		best := 0.0
		for _, prior := range titles[w.ID] {
			if s := norm.Similarity(queryTitle, norm.Title(prior)); s > best {
				best = s
			}
		}
		if best >= historyThreshold {
			out = append(out, Candidate{
				Writer:     w,
				Confidence: int(math.Round(best * 100)),
				Strategy:   StrategyHistory,
			})
		}
	}
	return out, nil
}

// mergeHistory folds history candidates into the name-pass results: a
// writer already present is boosted by 10 capped at 100, a new writer is
// added as a history candidate.
func mergeHistory(candidates, history []Candidate) []Candidate {
	present := make(map[string]int, len(candidates))
	for i, c := range candidates {
		present[c.Writer.ID] = i
	}
	for _, h := range history {
		if i, ok := present[h.Writer.ID]; ok {
			boosted := candidates[i].Confidence + historyBoost
			if boosted > maxConfidence {
				boosted = maxConfidence
			}
			candidates[i].Confidence = boosted
			continue
		}
		candidates = append(candidates, h)
	}
	return candidates
}

// rank deduplicates by writer keeping the highest confidence, then sorts
// descending by confidence. Equal confidences keep insertion order.
func rank(candidates []Candidate) []Candidate {
	best := make(map[string]Candidate, len(candidates))
	order := make([]string, 0, len(candidates))
	for _, c := range candidates {
		prev, seen := best[c.Writer.ID]
		if !seen {
			order = append(order, c.Writer.ID)
		}
		if !seen || c.Confidence > prev.Confidence {
			best[c.Writer.ID] = c
		}
	}

	out := make([]Candidate, 0, len(best))
	for _, id := range order {
		out = append(out, best[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}
