// Package statement models parsed royalty-statement lines. Raw statement
// files are parsed upstream; this package receives structured lines and
// tags each with its program-specific source shape so downstream
// eligibility rules can handle every format exhaustively.
package statement

// Program selects the business rules applied when calculating splits.
type Program string

// Supported statement programs.
const (
	// ProgramLicensing is the multi-writer-per-line collective-licensing
	// format (publisher-aware eligibility).
	ProgramLicensing Program = "licensing"

	// ProgramPerformance is the single-writer-per-line performance-royalty
	// format (affiliation-gated eligibility).
	ProgramPerformance Program = "performance"
)

// Line is one parsed royalty-statement line item.
type Line struct {
	Title        string
	Revenue      float64
	Performances int

	// Source carries the program-specific metadata attached to the line.
	// Nil when the statement format provides none.
	Source Source
}

// Source is the tagged program-specific metadata variant of a line.
// Implementations are MultiWriterSource and SingleWriterSource.
type Source interface {
	// PublisherID returns the line-level publisher identifier, raw as
	// printed on the statement. Empty when the format carries none.
	PublisherID() string

	// SourceID returns the statement-source identifier used to key the
	// line during idempotent reprocessing. Empty when the format carries
	// none.
	SourceID() string
}

// LineWriter is one writer entry embedded in a multi-writer line.
type LineWriter struct {
	Name string
	IPI  string
}

// MultiWriterSource is the collective-licensing shape: a line-level
// publisher plus an embedded writer list.
type MultiWriterSource struct {
	PublisherIPI  string
	PublisherName string
	Writers       []LineWriter
}

// PublisherID returns the line's publisher identifier.
func (s MultiWriterSource) PublisherID() string { return s.PublisherIPI }

// SourceID returns the line's source identifier. Licensing statements key
// lines by publisher, so this is empty.
func (s MultiWriterSource) SourceID() string { return "" }

// SingleWriterSource is the performance-royalty shape: one writer per line
// with a statement-source identifier.
type SingleWriterSource struct {
	WriterName        string
	WriterIPI         string
	StatementSourceID string
}

// PublisherID returns the line's publisher identifier. Performance
// statements carry none.
func (s SingleWriterSource) PublisherID() string { return "" }

// SourceID returns the statement-source identifier for the line.
func (s SingleWriterSource) SourceID() string { return s.StatementSourceID }

// Batch is an ordered sequence of lines issued under one program by one
// rights-licensing organization.
type Batch struct {
	Program      Program
	Organization string
	Lines        []Line
}
