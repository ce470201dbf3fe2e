package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleLoggerLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		level     LogLevel
		log       func(l Logger)
		wantEmpty bool
	}{
		{"debug suppressed at info", LogLevelInfo, func(l Logger) { l.Debug("hidden") }, true},
		{"info shown at info", LogLevelInfo, func(l Logger) { l.Info("shown") }, false},
		{"warn suppressed at error", LogLevelError, func(l Logger) { l.Warn("hidden") }, true},
		{"error always shown", LogLevelError, func(l Logger) { l.Error("shown") }, false},
		{"trace shown at trace", LogLevelTrace, func(l Logger) { l.Trace("shown") }, false},
		{"explicit level below threshold", LogLevelWarn, func(l Logger) { l.Log(LogLevelInfo, "hidden") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			tt.log(NewSlogLogger(&buf, tt.level, time.UTC))
			assert.Equal(t, tt.wantEmpty, buf.Len() == 0, buf.String())
		})
	}
}

func TestModuleAndFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := NewSlogLogger(&buf, LogLevelDebug, time.UTC)

	log := base.Module("annotation").Module("tsv").With(String("path", "annot.tsv"))
	log.Info("table loaded", Int("rows", 12), Float64("mean", 2.34567), Duration("elapsed", 1500*time.Millisecond))

	out := buf.String()
	assert.Contains(t, out, "module=annotation.tsv")
	assert.Contains(t, out, "path=annot.tsv")
	assert.Contains(t, out, "rows=12")
	assert.Contains(t, out, "mean=2.346")
	assert.Contains(t, out, "elapsed=1.5s")
	assert.NotContains(t, out, "time=")
}

func TestWithContextTraceID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewSlogLogger(&buf, LogLevelInfo, nil)

	log.WithContext(WithTraceID(context.Background(), "run-42")).Info("started")
	assert.Contains(t, buf.String(), "trace_id=run-42")

	buf.Reset()
	log.WithContext(context.Background()).Info("started")
	assert.NotContains(t, buf.String(), "trace_id")
}

func TestCentralLoggerFileOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "run.log")
	var console bytes.Buffer

	cl, err := newCentralLogger(&LoggingConfig{
		DefaultLevel: "info",
		Timezone:     "UTC",
		Console:      &ConsoleOutput{Enabled: true, Level: "warn"},
		FileOutput:   &FileOutput{Enabled: true, Path: path, Level: "debug"},
		ModuleLevels: map[string]string{"dsp": "debug"},
	}, &console)
	require.NoError(t, err)

	cl.Module("dsp").Debug("frames computed", Int("frames", 44))
	cl.Module("pipeline").Debug("not logged")
	require.NoError(t, cl.Flush())
	require.NoError(t, cl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "frames computed", rec["msg"])
	assert.Equal(t, "dsp", rec["module"])
	assert.InDelta(t, 44, rec["frames"], 0)

	// console threshold is warn
	assert.Empty(t, console.String())
}

func TestCentralLoggerRejectsBadTimezone(t *testing.T) {
	t.Parallel()

	_, err := NewCentralLogger(&LoggingConfig{Timezone: "Mars/Olympus"})
	require.Error(t, err)

	_, err = NewCentralLogger(nil)
	require.Error(t, err)
}

func TestErrorField(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Error(nil).Value)
	assert.Equal(t, "boom", Error(assertErr("boom")).Value)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
