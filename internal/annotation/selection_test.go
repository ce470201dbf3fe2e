package annotation

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcasound/orcaprep/internal/myaudio"
	"github.com/orcasound/orcaprep/internal/testutil"
)

func TestStandardize(t *testing.T) {
	t.Parallel()

	table, err := LoadAnnotations(writeTable(t, "train.tsv", sampleTSV))
	require.NoError(t, err)

	sels, err := Standardize(table, []string{"SRKWs"})
	require.NoError(t, err)
	assert.Equal(t, []Selection{
		{Filename: "a.wav", ID: 0, Start: 0.5, End: 2.0, Label: 1},
		{Filename: "a.wav", ID: 1, Start: 1.0, End: 3.0, Label: 1},
		{Filename: "b.wav", ID: 0, Start: 3.25, End: 6.0, Label: 1},
	}, sels)
}

func TestStandardizeLabels(t *testing.T) {
	t.Parallel()

	content := "filename\tstart\tduration_s\tlabel\n" +
		"a.wav\t0\t1\tSRKWs\n" +
		"a.wav\t2\t1\tboat\n" +
		"a.wav\t4\t1\t3\n" +
		"a.wav\t6\t1\tTKWs\n"
	table, err := LoadAnnotations(writeTable(t, "labels.tsv", content))
	require.NoError(t, err)

	sels, err := Standardize(table, []string{"SRKWs", "TKWs"})
	require.NoError(t, err)

	labels := make([]int, len(sels))
	for i, s := range sels {
		labels[i] = s.Label
	}
	assert.Equal(t, []int{1, 0, 3, 2}, labels)
}

func TestSelectPositives(t *testing.T) {
	t.Parallel()

	in := []Selection{
		{Filename: "a.wav", ID: 0, Start: 0.2, End: 0.6, Label: 1},
		{Filename: "a.wav", ID: 1, Start: 10, End: 12, Label: 1},
	}
	out, err := SelectPositives(in, 3)
	require.NoError(t, err)
	assert.Equal(t, Selection{Filename: "a.wav", ID: 0, Start: 0, End: 3, Label: 1}, out[0])
	assert.Equal(t, Selection{Filename: "a.wav", ID: 1, Start: 9.5, End: 12.5, Label: 1}, out[1])

	_, err = SelectPositives(in, 0)
	require.Error(t, err)
}

func TestSelectionTable(t *testing.T) {
	t.Parallel()

	table := SelectionTable([]Selection{{Filename: "a.wav", ID: 2, Start: 1.5, End: 4.5}}, ColumnSelID)
	assert.Equal(t, []string{"filename", "sel_id", "start", "end", "label"}, table.Columns)
	assert.Equal(t, [][]string{{"a.wav", "2", "1.5", "4.5", "0"}}, table.Records)
}

func TestFileDurationTable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteWAV(t, filepath.Join(dir, "b.wav"), testutil.WAVSpec{Seconds: 2})
	testutil.WriteWAV(t, filepath.Join(dir, "a.wav"), testutil.WAVSpec{Seconds: 1})
	testutil.WriteWAV(t, filepath.Join(dir, "deep", "c.wav"), testutil.WAVSpec{Seconds: 1})
	testutil.WriteFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	testutil.WriteFile(t, filepath.Join(dir, "broken.wav"), "ignored too")

	files, err := FileDurationTable(dir, myaudio.NewDurationCache())
	require.NoError(t, err)
	require.Len(t, files, 2, "subdirectories are not searched")
	assert.Equal(t, "a.wav", files[0].Filename)
	assert.InDelta(t, 1.0, files[0].Duration, 1e-9)
	assert.Equal(t, "b.wav", files[1].Filename)
	assert.InDelta(t, 2.0, files[1].Duration, 1e-9)

	_, err = FileDurationTable(filepath.Join(dir, "missing"), nil)
	require.Error(t, err)
}

func TestRandomBackground(t *testing.T) {
	t.Parallel()

	annots := []Selection{
		{Filename: "a.wav", Start: 10, End: 20, Label: 1},
		{Filename: "a.wav", Start: 40, End: 45, Label: 1},
	}
	files := []FileDuration{
		{Filename: "a.wav", Duration: 60},
		{Filename: "b.wav", Duration: 30},
		{Filename: "short.wav", Duration: 1},
	}
	opts := BackgroundOptions{Length: 3, Num: 25, Seed: 42}

	bg, err := RandomBackground(annots, files, opts)
	require.NoError(t, err)
	require.Len(t, bg, 25)

	for i, s := range bg {
		assert.NotEqual(t, "short.wav", s.Filename)
		assert.InDelta(t, 3.0, s.Length(), 1e-9)
		assert.GreaterOrEqual(t, s.Start, 0.0)
		assert.Zero(t, s.Label)
		for _, a := range annots {
			if a.Filename == s.Filename {
				assert.False(t, s.Overlaps(a), "selection %d overlaps annotation %+v", i, a)
			}
		}
		if i > 0 {
			prev := bg[i-1]
			assert.True(t, prev.Filename < s.Filename || (prev.Filename == s.Filename && prev.Start <= s.Start))
		}
	}

	again, err := RandomBackground(annots, files, opts)
	require.NoError(t, err)
	assert.Equal(t, bg, again, "same seed gives the same draw")
}

func TestRandomBackgroundShortfall(t *testing.T) {
	t.Parallel()

	annots := []Selection{{Filename: "a.wav", Start: 0, End: 10}}
	files := []FileDuration{{Filename: "a.wav", Duration: 10}}

	bg, err := RandomBackground(annots, files, BackgroundOptions{Length: 2, Num: 5, MaxAttempts: 10, Seed: 1})
	require.NoError(t, err)
	assert.Empty(t, bg)

	bg, err = RandomBackground(nil, []FileDuration{{Filename: "tiny.wav", Duration: 1}}, BackgroundOptions{Length: 2, Num: 5})
	require.NoError(t, err)
	assert.Empty(t, bg)

	_, err = RandomBackground(nil, files, BackgroundOptions{Length: 0, Num: 1})
	require.Error(t, err)
}

func TestStandardizeNormalizesFilenames(t *testing.T) {
	t.Parallel()

	// the first row spells the name with a combining accent (NFD), as macOS reports it
	content := "wav_filename\tstart\tduration_s\n" +
		"./site/Orcá.wav\t1\t1\n" +
		"site/Orcá.wav\t0\t1\n"
	table, err := LoadAnnotations(writeTable(t, "nfd.tsv", content))
	require.NoError(t, err)

	sels, err := Standardize(table, nil)
	require.NoError(t, err)
	require.Len(t, sels, 2)
	assert.Equal(t, "site/Orcá.wav", sels[0].Filename)
	assert.Equal(t, sels[0].Filename, sels[1].Filename)
	assert.Equal(t, []int{0, 1}, []int{sels[0].ID, sels[1].ID})
	assert.InDelta(t, 0.0, sels[0].Start, 0)
}
