package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcasound/orcaprep/internal/annotation"
	"github.com/orcasound/orcaprep/internal/catalog"
	"github.com/orcasound/orcaprep/internal/conf"
	"github.com/orcasound/orcaprep/internal/errors"
	"github.com/orcasound/orcaprep/internal/myaudio"
	"github.com/orcasound/orcaprep/internal/testutil"
)

// Rows: a regular call, a call running over the end of a.wav, a call past the end of
// b.wav and a recording that does not exist.
const annotationsTSV = "wav_filename\tstart\tduration_s\tlabel\n" +
	"a.wav\t1.0\t2.0\tSRKWs\n" +
	"a.wav\t8.5\t1.0\tSRKWs\n" +
	"b.wav\t12.0\t1.0\tSRKWs\n" +
	"missing.wav\t0\t1.0\tSRKWs\n"

type fixture struct {
	dir      string
	settings *conf.Settings
}

func newFixture(t *testing.T, annotations string) *fixture {
	t.Helper()
	dir := t.TempDir()

	audio := filepath.Join(dir, "audio")
	testutil.WriteWAV(t, filepath.Join(audio, "a.wav"), testutil.WAVSpec{Seconds: 10})
	testutil.WriteWAV(t, filepath.Join(audio, "b.wav"), testutil.WAVSpec{Seconds: 6, ToneHz: 440})

	settings := &conf.Settings{
		CallTime: 3,
		Case:     conf.CasePlain,
		Input: conf.InputSettings{
			AnnotationPath: testutil.WriteFile(t, filepath.Join(dir, "annotations.tsv"), annotations),
			AudioPath:      audio,
		},
		Output: conf.OutputSettings{
			PositiveClips:  filepath.Join(dir, "positive_calls"),
			NegativeClips:  filepath.Join(dir, "negative_calls"),
			PositivePlots:  filepath.Join(dir, "positive_plots"),
			NegativePlots:  filepath.Join(dir, "negative_plots"),
			NegativesTable: filepath.Join(dir, "negative2.tsv"),
			PositivePrefix: "round2_calls",
			NegativePrefix: "round2_calls_neg",
		},
		Annotation: conf.AnnotationSettings{SignalLabels: []string{"SRKWs"}, Align: conf.AlignStart},
		Negatives:  conf.NegativeSettings{Seed: 42, MaxAttempts: 1000},
		Render: conf.RenderSettings{
			Engine:  conf.EngineNative,
			Workers: 2,
			Plain:   conf.PlainSettings{NFFT: 1024, Overlap: 128, Width: 640, Height: 480},
			Mel:     conf.MelSettings{SampleRate: 22050, NFFT: 2048, HopLength: 512, Bands: 128, Width: 800, Height: 800},
			PCEN:    conf.PCENSettings{Gain: 0.98, Bias: 2, Power: 0.5, TimeConstant: 0.4, Eps: 1e-6},
		},
	}
	return &fixture{dir: dir, settings: settings}
}

func (f *fixture) pipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(f.settings)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestRunFullPipeline(t *testing.T) {
	f := newFixture(t, annotationsTSV)
	f.settings.Catalog = conf.CatalogSettings{Enabled: true, Path: filepath.Join(f.dir, "catalog.db")}
	f.settings.Metrics.Textfile = filepath.Join(f.dir, "metrics", "orcaprep.prom")

	p, err := New(f.settings)
	require.NoError(t, err)

	summary, err := p.Run(context.Background())
	require.ErrorIs(t, err, ErrIncomplete)
	require.NoError(t, p.Close())

	assert.Equal(t, 4, summary.Annotations)
	assert.InDelta(t, 1.25, summary.MeanDuration, 1e-12)
	assert.Equal(t, ClipStats{Written: 2, Truncated: 1, Skipped: 1, Failed: 1}, summary.PositiveClips)
	assert.Equal(t, 4, summary.BackgroundRequested)
	assert.Equal(t, 4, summary.BackgroundDrawn)
	assert.Equal(t, ClipStats{Written: 4}, summary.NegativeClips)
	assert.Equal(t, PlotStats{Written: 2}, summary.PositivePlots)
	assert.Equal(t, PlotStats{Written: 4}, summary.NegativePlots)
	assert.Equal(t, int64(42), summary.Seed)
	assert.Equal(t, 1, summary.Failures())

	out := f.settings.Output
	assert.FileExists(t, filepath.Join(out.PositiveClips, "round2_calls_0001.wav"))
	assert.FileExists(t, filepath.Join(out.PositiveClips, "round2_calls_0002.wav"))
	assert.NoFileExists(t, filepath.Join(out.PositiveClips, "round2_calls_0003.wav"))
	assert.NoFileExists(t, filepath.Join(out.PositiveClips, "round2_calls_0004.wav"))
	assert.FileExists(t, filepath.Join(out.PositivePlots, "round2_calls_0001.png"))
	assert.FileExists(t, filepath.Join(out.NegativePlots, "round2_calls_neg_0004.png"))

	first, err := myaudio.Load(filepath.Join(out.PositiveClips, "round2_calls_0001.wav"))
	require.NoError(t, err)
	assert.InDelta(t, 3.0, first.Seconds(), 1e-9)
	assert.Equal(t, testutil.RampValue(8000), first.Data[0])

	truncated, err := myaudio.Load(filepath.Join(out.PositiveClips, "round2_calls_0002.wav"))
	require.NoError(t, err)
	assert.InDelta(t, 1.5, truncated.Seconds(), 1e-9)

	// background windows never overlap an annotation of their file
	negatives, err := annotation.ReadTable(out.NegativesTable)
	require.NoError(t, err)
	require.Equal(t, 4, negatives.Len())
	assert.Equal(t, []string{"filename", "sel_id", "start", "end", "label"}, negatives.Columns)
	starts, err := negatives.Floats(annotation.ColumnStart)
	require.NoError(t, err)
	for i, record := range negatives.Records {
		if record[0] == "a.wav" {
			assert.True(t, starts[i] >= 3 && starts[i] <= 5.5, "start %v overlaps a call", starts[i])
		}
	}

	store, err := catalog.Open(f.settings.Catalog.Path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	run, err := store.GetRun(context.Background(), summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusFailed, run.Status)
	assert.Equal(t, CommandRun, run.Command)
	assert.Equal(t, 2, run.PositiveClips)
	assert.Equal(t, 6, run.Plots)
	assert.Equal(t, 1, run.Failures)

	background, err := store.Selections(context.Background(), run.ID, catalog.KindBackground)
	require.NoError(t, err)
	assert.Len(t, background, 4)

	plots, err := store.CountArtifacts(context.Background(), run.ID, catalog.ArtifactPlot, catalog.ArtifactWritten)
	require.NoError(t, err)
	assert.Equal(t, int64(6), plots)

	prom, err := os.ReadFile(f.settings.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `orcaprep_clips_total{kind="positive",status="failed"} 1`)
	assert.Contains(t, string(prom), `orcaprep_plots_total{case="1",status="written"} 6`)
}

func TestRunFailFast(t *testing.T) {
	f := newFixture(t, "wav_filename\tstart\tduration_s\nmissing.wav\t0\t1\na.wav\t1\t1\n")
	f.settings.FailFast = true

	summary, err := f.pipeline(t).Run(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrIncomplete)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
	assert.Equal(t, ClipStats{Failed: 1}, summary.PositiveClips)
	assert.NoFileExists(t, f.settings.Output.NegativesTable)
}

func TestRunRejectsInvalidSettings(t *testing.T) {
	f := newFixture(t, annotationsTSV)
	f.settings.Case = 4

	summary, err := f.pipeline(t).Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.Contains(t, err.Error(), "preprocess case")
	assert.NoDirExists(t, f.settings.Output.PositiveClips)
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t, annotationsTSV)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline(t).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunCenterAlignment(t *testing.T) {
	f := newFixture(t, "wav_filename\tstart\tduration_s\na.wav\t4\t1\n")
	f.settings.Annotation.Align = conf.AlignCenter

	summary, err := f.pipeline(t).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ClipStats{Written: 1}, summary.PositiveClips)

	clip, err := myaudio.Load(filepath.Join(f.settings.Output.PositiveClips, "round2_calls_0001.wav"))
	require.NoError(t, err)
	// centered on 4.5 s: 3 s window starts at 3 s
	assert.Equal(t, testutil.RampValue(3*8000), clip.Data[0])
}

func TestNegativesAreReproducible(t *testing.T) {
	f := newFixture(t, annotationsTSV)
	p := f.pipeline(t)

	first := filepath.Join(f.dir, "first.tsv")
	second := filepath.Join(f.dir, "second.tsv")

	f.settings.Output.NegativesTable = first
	summary, err := p.Negatives(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, summary.NegativesTable)
	assert.Equal(t, 4, summary.BackgroundDrawn)
	assert.Zero(t, summary.PositiveClips.Written)

	f.settings.Output.NegativesTable = second
	_, err = p.Negatives(context.Background())
	require.NoError(t, err)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.NoDirExists(t, f.settings.Output.NegativeClips)
}

func TestSliceWithCustomColumn(t *testing.T) {
	f := newFixture(t, annotationsTSV)
	table := testutil.WriteFile(t, filepath.Join(f.dir, "custom.tsv"), "filename\tbegin\na.wav\t2\nb.wav\t5\n")
	outDir := filepath.Join(f.dir, "custom")

	summary, err := f.pipeline(t).Slice(context.Background(), SliceOptions{
		Table:     table,
		Column:    "begin",
		OutputDir: outDir,
		Prefix:    "custom",
		Negative:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, ClipStats{Written: 2, Truncated: 1}, summary.NegativeClips)

	clip, err := myaudio.Load(filepath.Join(outDir, "custom_0001.wav"))
	require.NoError(t, err)
	assert.Equal(t, testutil.RampValue(2*8000), clip.Data[0])

	_, err = f.pipeline(t).Slice(context.Background(), SliceOptions{Table: table, Column: "nope", OutputDir: outDir, Prefix: "x"})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	_, err = f.pipeline(t).Slice(context.Background(), SliceOptions{Table: table, Prefix: "x"})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestSliceSkipsStartsOutsideRecording(t *testing.T) {
	f := newFixture(t, annotationsTSV)
	table := testutil.WriteFile(t, filepath.Join(f.dir, "far.tsv"),
		"filename\tstart\na.wav\t2.5e11\na.wav\tNaN\na.wav\t+Inf\nb.wav\t6\na.wav\t1\n")
	outDir := filepath.Join(f.dir, "far")

	summary, err := f.pipeline(t).Slice(context.Background(), SliceOptions{
		Table:     table,
		OutputDir: outDir,
		Prefix:    "far",
	})
	require.NoError(t, err)
	assert.Equal(t, ClipStats{Written: 1, Skipped: 4}, summary.PositiveClips)
	assert.NoFileExists(t, filepath.Join(outDir, "far_0001.wav"))
	assert.FileExists(t, filepath.Join(outDir, "far_0005.wav"))
}

func TestPlotDirectory(t *testing.T) {
	f := newFixture(t, annotationsTSV)
	f.settings.Case = conf.CasePCEN
	clips := filepath.Join(f.dir, "clips")
	testutil.WriteWAV(t, filepath.Join(clips, "c_0001.wav"), testutil.WAVSpec{Seconds: 1, ToneHz: 1000})
	plots := filepath.Join(f.dir, "plots")

	summary, err := f.pipeline(t).Plot(context.Background(), clips, plots)
	require.NoError(t, err)
	assert.Equal(t, PlotStats{Written: 1}, summary.PositivePlots)
	assert.FileExists(t, filepath.Join(plots, "c_0001_0000.png"))
}

func TestStats(t *testing.T) {
	f := newFixture(t, annotationsTSV)
	output := filepath.Join(f.dir, "with_end.tsv")

	stats, err := f.pipeline(t).Stats(output)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Rows)
	assert.Equal(t, 3, stats.Files)
	assert.InDelta(t, 1.25, stats.MeanDuration, 1e-12)
	assert.InDelta(t, 1.0, stats.MinDuration, 0)
	assert.InDelta(t, 2.0, stats.MaxDuration, 0)
	assert.InDelta(t, 5.0, stats.TotalDuration, 1e-12)
	assert.Equal(t, map[string]int{"SRKWs": 4}, stats.Labels)
	assert.Equal(t, []string{"SRKWs"}, stats.SortedLabels())

	written, err := annotation.ReadTable(output)
	require.NoError(t, err)
	ends, err := written.Floats(annotation.ColumnEnd)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{3, 9.5, 13, 1}, ends, 1e-12)
}

func TestStatsEmptyTable(t *testing.T) {
	f := newFixture(t, "wav_filename\tstart\tduration_s\n")

	stats, err := f.pipeline(t).Stats("")
	require.NoError(t, err)
	assert.Zero(t, stats.Rows)
	assert.Zero(t, stats.MeanDuration)
	assert.Zero(t, stats.MaxDuration)
}

func TestClipName(t *testing.T) {
	assert.Equal(t, "round2_calls_0007.wav", ClipName("round2_calls", 7))
	assert.Equal(t, "x_12345.wav", ClipName("x", 12345))
}
