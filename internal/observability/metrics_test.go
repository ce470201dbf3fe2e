package observability

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcasound/orcaprep/internal/errors"
	"github.com/orcasound/orcaprep/internal/observability/metrics"
)

func TestPipelineMetricsCounters(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)
	p := m.Pipeline

	p.RecordClip(metrics.KindPositive, metrics.StatusWritten)
	p.RecordClip(metrics.KindPositive, metrics.StatusWritten)
	p.RecordClip(metrics.KindNegative, metrics.StatusSkipped)
	p.RecordPlot(2, metrics.StatusWritten)
	p.SetAnnotations(12, 2.5)
	p.SetBackground(12, 10)
	p.ObserveStage(metrics.StagePositiveClips, 150*time.Millisecond)

	count, err := testutil.GatherAndCount(m.Registry(), "orcaprep_clips_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Equal(t, 2, testutil.CollectAndCount(p, "orcaprep_clips_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(p, "orcaprep_plots_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(p, "orcaprep_stage_duration_seconds"))
}

func TestErrorHookCountsBuiltErrors(t *testing.T) {
	errors.ClearErrorHooks()
	t.Cleanup(errors.ClearErrorHooks)

	m, err := NewMetrics()
	require.NoError(t, err)
	errors.AddErrorHook(m.Pipeline.ErrorHook())

	_ = errors.Newf("bad row").Component("annotation").Category(errors.CategoryValidation).Build()
	_ = errors.Newf("bad row").Component("annotation").Category(errors.CategoryValidation).Build()
	_ = errors.Newf("no file").Component("myaudio").Category(errors.CategoryFileIO).Build()

	assert.Equal(t, 2, testutil.CollectAndCount(m.Pipeline, "orcaprep_errors_total"))
}

func TestWriteTextfile(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)
	m.Pipeline.RecordClip(metrics.KindNegative, metrics.StatusFailed)

	path := filepath.Join(t.TempDir(), "textfile", "orcaprep.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `orcaprep_clips_total{kind="negative",status="failed"} 1`)
}

func findFamily(families []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestStageDurationHistogram(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)

	m.Pipeline.ObserveStage(metrics.StageBackground, 20*time.Millisecond)
	m.Pipeline.ObserveStage(metrics.StageBackground, 3*time.Second)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	mf := findFamily(families, "orcaprep_stage_duration_seconds")
	require.NotNil(t, mf)
	require.Len(t, mf.GetMetric(), 1)

	h := mf.GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(2), h.GetSampleCount())
	assert.InDelta(t, 3.02, h.GetSampleSum(), 1e-9)
	assert.Len(t, h.GetBucket(), metrics.BucketCount12)
	assert.InDelta(t, metrics.BucketStart10ms, h.GetBucket()[0].GetUpperBound(), 1e-12)
}
