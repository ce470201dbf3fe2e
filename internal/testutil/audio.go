// Package testutil provides shared test fixtures for the orcaprep packages.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

// Common fixture parameters.
const (
	DefaultSampleRate = 8000
	DefaultBitDepth   = 16
)

// WAVSpec describes a synthetic recording.
type WAVSpec struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Seconds    float64
	// ToneHz is the frequency of the sine written to every channel; 0 writes a ramp
	// whose sample value encodes the frame index, which makes slice offsets easy to check.
	ToneHz float64
}

func (s WAVSpec) withDefaults() WAVSpec {
	if s.SampleRate == 0 {
		s.SampleRate = DefaultSampleRate
	}
	if s.Channels == 0 {
		s.Channels = 1
	}
	if s.BitDepth == 0 {
		s.BitDepth = DefaultBitDepth
	}
	return s
}

// RampValue returns the sample a ramp fixture holds at frame i.
func RampValue(i int) int {
	return i % 30000
}

// WriteWAV writes a synthetic PCM WAV file and returns its path.
func WriteWAV(t *testing.T, path string, spec WAVSpec) string {
	t.Helper()
	spec = spec.withDefaults()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path) //nolint:gosec // G304: test fixture path
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	frames := int(math.Round(spec.Seconds * float64(spec.SampleRate)))
	amplitude := math.Ldexp(1, spec.BitDepth-1) * 0.5
	data := make([]int, frames*spec.Channels)
	for i := range frames {
		v := RampValue(i)
		if spec.ToneHz > 0 {
			v = int(amplitude * math.Sin(2*math.Pi*spec.ToneHz*float64(i)/float64(spec.SampleRate)))
		}
		for c := range spec.Channels {
			data[i*spec.Channels+c] = v
		}
	}

	enc := wav.NewEncoder(f, spec.SampleRate, spec.BitDepth, spec.Channels, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{SampleRate: spec.SampleRate, NumChannels: spec.Channels},
		SourceBitDepth: spec.BitDepth,
	}))
	require.NoError(t, enc.Close())
	return path
}

// WriteFile writes arbitrary content, creating parent directories.
func WriteFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
