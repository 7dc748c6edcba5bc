// Package split computes per-writer revenue shares for one statement line
// from the matched work's credits. Eligibility is publisher-aware and
// program-specific; ineligible credits are reported with typed diagnostics
// rather than silently dropped.
//
// Whenever the eligible set is non-empty, the relative split percents sum
// to 100 and the share revenues sum to the line revenue (within 1e-6).
package split

import (
	"github.com/splitbook/splitbook/pkg/catalog"
	"github.com/splitbook/splitbook/pkg/norm"
	"github.com/splitbook/splitbook/pkg/statement"
)

// ExclusionReason explains why a credit earned no share on a line.
type ExclusionReason string

// Exclusion reasons.
const (
	ReasonNoLinkedWriter    ExclusionReason = "no linked writer"
	ReasonExternalWriter    ExclusionReason = "external writer"
	ReasonZeroSplit         ExclusionReason = "zero split"
	ReasonWrongAffiliation  ExclusionReason = "wrong organization affiliation"
	ReasonPublisherMismatch ExclusionReason = "publisher mismatch"
	ReasonHasOwnPublisher   ExclusionReason = "has own publisher"
	ReasonNoOrgPublisher    ExclusionReason = "no organization publisher representation"
)

// Share is one eligible writer's cut of a line's revenue.
type Share struct {
	WriterID string

	// RelativePercent is the credit's percentage of this line's eligible
	// subset, which may differ from the writer's overall split when other
	// credits are excluded for the line.
	RelativePercent float64

	// Revenue is the gross amount attributed to the writer for this line.
	Revenue float64

	// OriginalPercent is the writer's contractual split on the work.
	OriginalPercent float64

	WriterIPI    string
	PublisherIPI string
}

// Exclusion is a credit left without a share, with the rule that excluded it.
type Exclusion struct {
	Credit catalog.Credit
	Reason ExclusionReason
}

// Result carries the computed shares and the exclusion diagnostics for one
// line.
type Result struct {
	Shares   []Share
	Excluded []Exclusion
}

// Input is everything the calculator needs for one line.
type Input struct {
	// Revenue is the line's gross revenue.
	Revenue float64

	// Credits are the matched work's credits, in catalog order.
	Credits []catalog.Credit

	// Registry is the organization's own publisher identifiers.
	Registry catalog.PublisherRegistry

	// Program selects the eligibility refinement.
	Program statement.Program

	// Organization is the statement's issuing organization, gating
	// affiliation under the performance program.
	Organization string

	// LinePublisherIPI is the line-level publisher identifier, raw. Empty
	// when the statement format carries none.
	LinePublisherIPI string
}

// Calculate computes the eligible shares and exclusion diagnostics for one
// line. An empty eligible set yields zero shares and a full set of
// diagnostics.
func Calculate(in Input) Result {
	eligible, excluded := defaultEligibility(in.Credits)
	eligible, excluded = refine(in, eligible, excluded)

	if len(eligible) == 0 {
		return Result{Excluded: excluded}
	}

	total := 0.0
	for _, c := range eligible {
		total += c.SplitPercent
	}

	shares := make([]Share, 0, len(eligible))
	for _, c := range eligible {
		relative := c.SplitPercent / total * 100
		shares = append(shares, Share{
			WriterID:        c.WriterID,
			RelativePercent: relative,
			Revenue:         in.Revenue * relative / 100,
			OriginalPercent: c.SplitPercent,
			WriterIPI:       c.WriterIPI,
			PublisherIPI:    c.PublisherIPI,
		})
	}
	return Result{Shares: shares, Excluded: excluded}
}

// defaultEligibility applies the rules common to every program: a credit
// needs a linked writer, must not be externally flagged, and must carry a
// nonzero split.
func defaultEligibility(credits []catalog.Credit) ([]catalog.Credit, []Exclusion) {
	var eligible []catalog.Credit
	var excluded []Exclusion
	for _, c := range credits {
		switch {
		case !c.Linked():
			excluded = append(excluded, Exclusion{Credit: c, Reason: ReasonNoLinkedWriter})
		case c.External:
			excluded = append(excluded, Exclusion{Credit: c, Reason: ReasonExternalWriter})
		case c.SplitPercent == 0:
			excluded = append(excluded, Exclusion{Credit: c, Reason: ReasonZeroSplit})
		default:
			eligible = append(eligible, c)
		}
	}
	return eligible, excluded
}

// refine applies the program-specific eligibility rules on top of the
// default set.
func refine(in Input, eligible []catalog.Credit, excluded []Exclusion) ([]catalog.Credit, []Exclusion) {
	switch {
	case in.Program == statement.ProgramLicensing && in.LinePublisherIPI != "":
		if in.Registry.Contains(in.LinePublisherIPI) {
			return refineOwnPublisherLine(in, eligible, excluded)
		}
		return refineExternalPublisherLine(in, eligible, excluded)
	case in.Program == statement.ProgramPerformance:
		return refineAffiliation(in, eligible, excluded)
	default:
		return refineFallback(in, eligible, excluded)
	}
}

// refineOwnPublisherLine handles licensing lines issued under one of the
// organization's own publishers: credits carrying an independent publisher
// are expected to be paid via a separate line under that publisher, so
// they are excluded here to prevent double payment.
func refineOwnPublisherLine(in Input, eligible []catalog.Credit, excluded []Exclusion) ([]catalog.Credit, []Exclusion) {
	var kept []catalog.Credit
	for _, c := range eligible {
		if c.HasOwnPublisher(in.Registry) {
			excluded = append(excluded, Exclusion{Credit: c, Reason: ReasonHasOwnPublisher})
			continue
		}
		kept = append(kept, c)
	}
	return kept, excluded
}

// refineExternalPublisherLine handles licensing lines issued under an
// external publisher: only the single credit whose publisher matches the
// line's publisher is eligible.
func refineExternalPublisherLine(in Input, eligible []catalog.Credit, excluded []Exclusion) ([]catalog.Credit, []Exclusion) {
	linePub := norm.Identifier(in.LinePublisherIPI)
	var kept []catalog.Credit
	for _, c := range eligible {
		if len(kept) == 0 && c.PublisherIPI != "" && norm.Identifier(c.PublisherIPI) == linePub {
			kept = append(kept, c)
			continue
		}
		excluded = append(excluded, Exclusion{Credit: c, Reason: ReasonPublisherMismatch})
	}
	return kept, excluded
}

// refineAffiliation handles performance lines: the writer's organization
// affiliation must equal the statement's issuing organization.
func refineAffiliation(in Input, eligible []catalog.Credit, excluded []Exclusion) ([]catalog.Credit, []Exclusion) {
	var kept []catalog.Credit
	for _, c := range eligible {
		if c.Affiliation != in.Organization {
			excluded = append(excluded, Exclusion{Credit: c, Reason: ReasonWrongAffiliation})
			continue
		}
		kept = append(kept, c)
	}
	return kept, excluded
}

// refineFallback keeps default-eligible credits with some organization
// publisher representation: either no publisher of their own or one of the
// organization's publishers.
func refineFallback(in Input, eligible []catalog.Credit, excluded []Exclusion) ([]catalog.Credit, []Exclusion) {
	var kept []catalog.Credit
	for _, c := range eligible {
		if c.HasOwnPublisher(in.Registry) {
			excluded = append(excluded, Exclusion{Credit: c, Reason: ReasonNoOrgPublisher})
			continue
		}
		kept = append(kept, c)
	}
	return kept, excluded
}
