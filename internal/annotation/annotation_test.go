package annotation

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcasound/orcaprep/internal/errors"
	"github.com/orcasound/orcaprep/internal/testutil"
)

const sampleTSV = "wav_filename\tstart\tduration_s\tlocation\n" +
	"a.wav\t1.0\t2.0\tOrcasound_Lab\n" +
	"a.wav\t0.5\t1.5\tOrcasound_Lab\n" +
	"b.wav\t3.25\t2.75\tPort_Townsend\n"

func writeTable(t *testing.T, name, content string) string {
	t.Helper()
	return testutil.WriteFile(t, filepath.Join(t.TempDir(), name), content)
}

func TestLoadAnnotations(t *testing.T) {
	t.Parallel()

	table, err := LoadAnnotations(writeTable(t, "train.tsv", sampleTSV))
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"wav_filename", "start", "duration_s", "location"}, table.Columns)

	annots, err := table.Annotations()
	require.NoError(t, err)
	assert.Equal(t, Annotation{Row: 3, File: "b.wav", Start: 3.25, Duration: 2.75}, annots[2])
	assert.InDelta(t, 6.0, annots[2].End(), 1e-12)
}

func TestLoadAnnotationsCSV(t *testing.T) {
	t.Parallel()

	table, err := LoadAnnotations(writeTable(t, "train.csv", "filename,start,duration_s\nx.wav,1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, 0, table.FileColumn())
}

func TestLoadAnnotationsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"missing duration", "wav_filename\tstart\na.wav\t1\n"},
		{"missing file column", "start\tduration_s\n1\t2\n"},
		{"bad number", "wav_filename\tstart\tduration_s\na.wav\tsoon\t2\n"},
		{"negative duration", "wav_filename\tstart\tduration_s\na.wav\t1\t-2\n"},
		{"empty file", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadAnnotations(writeTable(t, "bad.tsv", tt.content))
			require.Error(t, err)
		})
	}

	_, err := LoadAnnotations(filepath.Join(t.TempDir(), "nope.tsv"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}

func TestMeanDurationAndAddEnd(t *testing.T) {
	t.Parallel()

	table, err := LoadAnnotations(writeTable(t, "train.tsv", sampleTSV))
	require.NoError(t, err)

	mean, err := MeanDuration(table)
	require.NoError(t, err)
	assert.InDelta(t, 6.25/3, mean, 1e-12)

	require.NoError(t, AddEnd(table))
	endCol := table.Column(ColumnEnd)
	require.Equal(t, 4, endCol)
	assert.Equal(t, "3", table.Records[0][endCol])
	assert.Equal(t, "2", table.Records[1][endCol])
	assert.Equal(t, "6", table.Records[2][endCol])

	// recomputing replaces rather than appends
	require.NoError(t, AddEnd(table))
	assert.Len(t, table.Columns, 5)
}

func TestMeanDurationEmptyTable(t *testing.T) {
	t.Parallel()

	table, err := LoadAnnotations(writeTable(t, "empty.tsv", "wav_filename\tstart\tduration_s\n"))
	require.NoError(t, err)

	mean, err := MeanDuration(table)
	require.NoError(t, err)
	assert.Zero(t, mean)
}

func TestWriteTSVRoundTrip(t *testing.T) {
	t.Parallel()

	table, err := LoadAnnotations(writeTable(t, "train.tsv", sampleTSV))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "sub", "copy.tsv")
	require.NoError(t, table.WriteTSV(out))

	back, err := ReadTable(out)
	require.NoError(t, err)
	assert.Equal(t, table.Columns, back.Columns)
	assert.Equal(t, table.Records, back.Records)
}
