package spectrogram

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/orcasound/orcaprep/internal/conf"
	"github.com/orcasound/orcaprep/internal/errors"
	"github.com/orcasound/orcaprep/internal/testutil"
)

func testSettings(preprocessCase int) *conf.Settings {
	return &conf.Settings{
		Case: preprocessCase,
		Render: conf.RenderSettings{
			Engine:  conf.EngineNative,
			Workers: 2,
			Plain:   conf.PlainSettings{NFFT: 1024, Overlap: 128, Width: 640, Height: 480},
			Mel:     conf.MelSettings{SampleRate: 22050, NFFT: 2048, HopLength: 512, Bands: 128, Width: 800, Height: 800},
			PCEN:    conf.PCENSettings{Gain: 0.98, Bias: 2, Power: 0.5, TimeConstant: 0.4, Eps: 1e-6},
		},
	}
}

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

func TestViridisEndpoints(t *testing.T) {
	t.Parallel()

	lo := Viridis(0)
	assert.InDelta(t, 68, int(lo.R), 4)
	assert.InDelta(t, 1, int(lo.G), 4)
	assert.InDelta(t, 84, int(lo.B), 4)

	hi := Viridis(1)
	assert.InDelta(t, 253, int(hi.R), 4)
	assert.InDelta(t, 231, int(hi.G), 4)
	assert.InDelta(t, 37, int(hi.B), 4)

	assert.Equal(t, lo, Viridis(-3))
	assert.Equal(t, hi, Viridis(7))
}

func TestMatrixImageOrientation(t *testing.T) {
	t.Parallel()

	m := mat.NewDense(2, 3, []float64{
		0, 0, 0,
		1, 1, 1,
	})

	bottom := MatrixImage(m, true)
	assert.Equal(t, image.Rect(0, 0, 3, 2), bottom.Bounds())
	assert.Equal(t, Viridis(0), bottom.RGBAAt(0, 1))
	assert.Equal(t, Viridis(1), bottom.RGBAAt(0, 0))

	top := MatrixImage(m, false)
	assert.Equal(t, Viridis(0), top.RGBAAt(2, 0))
	assert.Equal(t, Viridis(1), top.RGBAAt(2, 1))

	flat := MatrixImage(mat.NewDense(2, 2, []float64{5, 5, 5, 5}), false)
	assert.Equal(t, Viridis(0), flat.RGBAAt(1, 1))
}

func TestResize(t *testing.T) {
	t.Parallel()

	src := MatrixImage(mat.NewDense(4, 5, nil), false)
	assert.Equal(t, image.Rect(0, 0, 40, 30), Resize(src, 40, 30).Bounds())
	assert.Equal(t, image.Rect(0, 0, 2, 2), Resize(src, 2, 2).Bounds())
	assert.Equal(t, image.Rect(0, 0, 5, 4), Resize(src, 5, 4).Bounds())
}

func TestOutputPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join("plots", "round2_calls_0001.png"),
		OutputPath(filepath.Join("clips", "round2_calls_0001.wav"), "plots", conf.CasePlain))
	assert.Equal(t, filepath.Join("plots", "round2_calls_0001_0000.png"),
		OutputPath("round2_calls_0001.wav", "plots", conf.CasePCEN))
	assert.Equal(t, filepath.Join("p", "a.b_0000.png"),
		OutputPath("a.b.flac", "p", conf.CasePCENDenoised))
}

func TestRenderFileCases(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	clip := testutil.WriteWAV(t, filepath.Join(dir, "clip.wav"), testutil.WAVSpec{Seconds: 1, ToneHz: 1000, Channels: 2})

	tests := []struct {
		name          string
		preprocess    int
		width, height int
	}{
		{"plain", conf.CasePlain, 640, 480},
		{"pcen", conf.CasePCEN, 800, 800},
		{"pcen denoised", conf.CasePCENDenoised, 800, 800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewRenderer(testSettings(tt.preprocess), nil)
			out := OutputPath(clip, filepath.Join(t.TempDir(), "plots"), tt.preprocess)

			require.NoError(t, r.RenderFile(context.Background(), clip, out))
			img := decodePNG(t, out)
			assert.Equal(t, tt.width, img.Bounds().Dx())
			assert.Equal(t, tt.height, img.Bounds().Dy())
		})
	}
}

func TestRenderFileErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	empty := testutil.WriteWAV(t, filepath.Join(dir, "empty.wav"), testutil.WAVSpec{Seconds: 0})

	r := NewRenderer(testSettings(conf.CasePCEN), nil)
	err := r.RenderFile(context.Background(), empty, filepath.Join(dir, "empty.png"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyClip))

	err = r.RenderFile(context.Background(), filepath.Join(dir, "missing.wav"), filepath.Join(dir, "x.png"))
	require.Error(t, err)

	bad := NewRenderer(testSettings(9), nil)
	err = bad.RenderFile(context.Background(), empty, filepath.Join(dir, "x.png"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, r.RenderFile(ctx, empty, filepath.Join(dir, "x.png")), context.Canceled)
}

func TestSoxEngineFallsBackToNative(t *testing.T) {
	t.Parallel()

	_, err := NewSoxGenerator(filepath.Join(t.TempDir(), "no-sox-here"), nil)
	require.Error(t, err)

	settings := testSettings(conf.CasePlain)
	settings.Render.Engine = conf.EngineSox
	settings.Render.SoxPath = filepath.Join(t.TempDir(), "no-sox-here")

	r := NewRenderer(settings, nil)
	assert.Nil(t, r.sox)

	dir := t.TempDir()
	clip := testutil.WriteWAV(t, filepath.Join(dir, "clip.wav"), testutil.WAVSpec{Seconds: 0.5, ToneHz: 440})
	out := filepath.Join(dir, "clip.png")
	require.NoError(t, r.RenderFile(context.Background(), clip, out))
	assert.FileExists(t, out)
}

func TestSoxFailureCarriesOutputAndTiming(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in for sox")
	}
	t.Parallel()

	dir := t.TempDir()
	fake := filepath.Join(dir, "sox")
	require.NoError(t, os.WriteFile(fake, []byte("#!/bin/sh\necho sox FAIL: no handler >&2\nexit 2\n"), 0o755)) //nolint:gosec // test executable

	gen, err := NewSoxGenerator(fake, nil)
	require.NoError(t, err)

	clip := testutil.WriteWAV(t, filepath.Join(dir, "clip.wav"), testutil.WAVSpec{Seconds: 0.5})
	err = gen.Generate(context.Background(), clip, filepath.Join(dir, "out", "clip.png"), 640, 480)
	require.Error(t, err)

	var ee *errors.EnhancedError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, errors.CategoryCommandExecution, ee.Category)
	ctx := ee.GetContext()
	assert.Equal(t, "generate_with_sox", ctx["operation"])
	assert.Contains(t, ctx, "duration_ms")
	assert.Contains(t, ctx["sox_output"], "no handler")
}
