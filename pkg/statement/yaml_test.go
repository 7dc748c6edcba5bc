package statement

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const licensingYAML = `
program: licensing
organization: ASCAP
lines:
  - title: Euthanized
    revenue: 200.5
    performances: 12
    publisher_ipi: "99-887766"
    publisher_name: House Publishing
    writers:
      - name: Jackson Reed
        ipi: "001-234.56"
      - name: Jalan Price
  - title: Orphan Song
    revenue: 10
`

const performanceYAML = `
program: performance
organization: BMI
lines:
  - title: Euthanized
    revenue: 40
    writer_name: Jackson Reed
    writer_ipi: "1234.56"
    source_id: row-9
`

func TestReadBatchLicensing(t *testing.T) {
	batch, err := ReadBatch(strings.NewReader(licensingYAML))
	require.NoError(t, err)
	assert.Equal(t, ProgramLicensing, batch.Program)
	assert.Equal(t, "ASCAP", batch.Organization)
	require.Len(t, batch.Lines, 2)

	src, ok := batch.Lines[0].Source.(MultiWriterSource)
	require.True(t, ok)
	assert.Equal(t, "99-887766", src.PublisherIPI)
	assert.Equal(t, "House Publishing", src.PublisherName)
	require.Len(t, src.Writers, 2)
	assert.Equal(t, "Jackson Reed", src.Writers[0].Name)
	assert.Equal(t, 12, batch.Lines[0].Performances)

	assert.Nil(t, batch.Lines[1].Source, "a line with no source fields carries no variant")
}

func TestReadBatchPerformance(t *testing.T) {
	batch, err := ReadBatch(strings.NewReader(performanceYAML))
	require.NoError(t, err)
	require.Len(t, batch.Lines, 1)

	src, ok := batch.Lines[0].Source.(SingleWriterSource)
	require.True(t, ok)
	assert.Equal(t, "Jackson Reed", src.WriterName)
	assert.Equal(t, "1234.56", src.WriterIPI)
	assert.Equal(t, "row-9", src.StatementSourceID)
	assert.Equal(t, "", src.PublisherID())
	assert.Equal(t, "row-9", src.SourceID())
}

func TestReadBatchRejectsUnknownProgram(t *testing.T) {
	_, err := ReadBatch(strings.NewReader("program: mechanical\nlines: []\n"))
	require.Error(t, err)

	_, err = ReadBatch(strings.NewReader("lines: []\n"))
	require.Error(t, err, "program is required")
}
