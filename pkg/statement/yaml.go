package statement

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/splitbook/splitbook/pkg/errors"
)

// batchDoc is the on-disk YAML shape of a statement batch. Lines declare
// their source variant through the presence of writer-list vs writer-name
// fields rather than an explicit kind tag, matching how upstream parsers
// emit them.
type batchDoc struct {
	Program      string    `yaml:"program"`
	Organization string    `yaml:"organization"`
	Lines        []lineDoc `yaml:"lines"`
}

type lineDoc struct {
	Title        string  `yaml:"title"`
	Revenue      float64 `yaml:"revenue"`
	Performances int     `yaml:"performances"`

	// Multi-writer (licensing) fields.
	PublisherIPI  string          `yaml:"publisher_ipi"`
	PublisherName string          `yaml:"publisher_name"`
	Writers       []lineWriterDoc `yaml:"writers"`

	// Single-writer (performance) fields.
	WriterName string `yaml:"writer_name"`
	WriterIPI  string `yaml:"writer_ipi"`
	SourceID   string `yaml:"source_id"`
}

type lineWriterDoc struct {
	Name string `yaml:"name"`
	IPI  string `yaml:"ipi"`
}

// LoadBatch reads a statement batch from a YAML file.
func LoadBatch(path string) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapResource("open", "statement batch", path, err)
	}
	defer f.Close()
	return ReadBatch(f)
}

// ReadBatch decodes a statement batch from YAML.
func ReadBatch(r io.Reader) (*Batch, error) {
	var doc batchDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding statement batch: %w", err)
	}

	program := Program(doc.Program)
	switch program {
	case ProgramLicensing, ProgramPerformance:
	case "":
		return nil, errors.NewValidationError("program", doc.Program, "is required")
	default:
		return nil, errors.NewValidationError("program", doc.Program, "unknown program")
	}

	batch := &Batch{
		Program:      program,
		Organization: doc.Organization,
		Lines:        make([]Line, 0, len(doc.Lines)),
	}
	for _, ld := range doc.Lines {
		batch.Lines = append(batch.Lines, ld.line())
	}
	return batch, nil
}

// line builds the tagged variant for one YAML line entry.
func (ld lineDoc) line() Line {
	l := Line{
		Title:        ld.Title,
		Revenue:      ld.Revenue,
		Performances: ld.Performances,
	}

	switch {
	case len(ld.Writers) > 0 || ld.PublisherIPI != "" || ld.PublisherName != "":
		src := MultiWriterSource{
			PublisherIPI:  ld.PublisherIPI,
			PublisherName: ld.PublisherName,
			Writers:       make([]LineWriter, 0, len(ld.Writers)),
		}
		for _, w := range ld.Writers {
			src.Writers = append(src.Writers, LineWriter{Name: w.Name, IPI: w.IPI})
		}
		l.Source = src
	case ld.WriterName != "" || ld.WriterIPI != "" || ld.SourceID != "":
		l.Source = SingleWriterSource{
			WriterName:        ld.WriterName,
			WriterIPI:         ld.WriterIPI,
			StatementSourceID: ld.SourceID,
		}
	}
	return l
}
