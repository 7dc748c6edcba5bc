package memory

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/splitbook/splitbook/pkg/catalog"
	"github.com/splitbook/splitbook/pkg/errors"
	"github.com/splitbook/splitbook/pkg/statement"
)

// seedDoc is the YAML shape of a catalog seed file.
type seedDoc struct {
	Works      []workDoc    `yaml:"works"`
	Publishers []string     `yaml:"publishers"`
	Writers    []writerDoc  `yaml:"writers"`
	History    []historyDoc `yaml:"history"`
}

type workDoc struct {
	ID      string      `yaml:"id"`
	Title   string      `yaml:"title"`
	Status  string      `yaml:"status"`
	Credits []creditDoc `yaml:"credits"`
}

type creditDoc struct {
	WriterID     string  `yaml:"writer_id"`
	WriterName   string  `yaml:"writer_name"`
	SplitPercent float64 `yaml:"split_percent"`
	WriterIPI    string  `yaml:"writer_ipi"`
	PublisherIPI string  `yaml:"publisher_ipi"`
	External     bool    `yaml:"external"`
	Affiliation  string  `yaml:"affiliation"`
}

type writerDoc struct {
	ID           string `yaml:"id"`
	FirstName    string `yaml:"first_name"`
	LastName     string `yaml:"last_name"`
	IPI          string `yaml:"ipi"`
	PublisherIPI string `yaml:"publisher_ipi"`
	Affiliation  string `yaml:"affiliation"`
}

type historyDoc struct {
	WriterID string `yaml:"writer_id"`
	Title    string `yaml:"title"`
	Program  string `yaml:"program"`
}

// LoadSeed populates the store from a YAML seed file.
func (s *Store) LoadSeed(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.WrapResource("open", "catalog seed", path, err)
	}
	defer f.Close()
	return s.ReadSeed(f)
}

// ReadSeed populates the store from YAML.
func (s *Store) ReadSeed(r io.Reader) error {
	var doc seedDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("decoding catalog seed: %w", err)
	}

	works := make([]catalog.Work, 0, len(doc.Works))
	for _, wd := range doc.Works {
		work := catalog.Work{
			ID:     wd.ID,
			Title:  wd.Title,
			Status: catalog.Status(wd.Status),
		}
		for _, cd := range wd.Credits {
			work.Credits = append(work.Credits, catalog.Credit{
				WriterID:     cd.WriterID,
				WriterName:   cd.WriterName,
				SplitPercent: cd.SplitPercent,
				WriterIPI:    cd.WriterIPI,
				PublisherIPI: cd.PublisherIPI,
				External:     cd.External,
				Affiliation:  cd.Affiliation,
			})
		}
		works = append(works, work)
	}

	writers := make([]catalog.Writer, 0, len(doc.Writers))
	for _, wd := range doc.Writers {
		writers = append(writers, catalog.Writer{
			ID:           wd.ID,
			FirstName:    wd.FirstName,
			LastName:     wd.LastName,
			IPI:          wd.IPI,
			PublisherIPI: wd.PublisherIPI,
			Affiliation:  wd.Affiliation,
		})
	}

	history := make([]HistoryEntry, 0, len(doc.History))
	for _, hd := range doc.History {
		history = append(history, HistoryEntry{
			WriterID: hd.WriterID,
			Title:    hd.Title,
			Program:  statement.Program(hd.Program),
		})
	}

	s.SetWorks(works)
	s.SetPublishers(doc.Publishers)
	s.SetWriters(writers)
	s.mu.Lock()
	s.history = history
	s.mu.Unlock()
	return nil
}
