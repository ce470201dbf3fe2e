package spectrogram

import (
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/mat"

	"github.com/orcasound/orcaprep/internal/errors"
)

const (
	outputDirPermissions = 0o755

	// nearestUpscale is the magnification from which pixels are replicated instead of
	// interpolated, keeping matrix cells crisp.
	nearestUpscale = 3
)

// MatrixImage colors a matrix with viridis after min/max normalization. Row r becomes
// image line r, or line rows-1-r when lowAtBottom is set. Non-finite cells take the
// lowest color.
func MatrixImage(m mat.Matrix, lowAtBottom bool) *image.RGBA {
	rows, cols := m.Dims()
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))

	lo, hi := math.Inf(1), math.Inf(-1)
	for r := range rows {
		for c := range cols {
			v := m.At(r, c)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	span := hi - lo

	for r := range rows {
		y := r
		if lowAtBottom {
			y = rows - 1 - r
		}
		for c := range cols {
			var t float64
			if v := m.At(r, c); span > 0 && !math.IsNaN(v) && !math.IsInf(v, 0) {
				t = (v - lo) / span
			}
			img.SetRGBA(c, y, Viridis(t))
		}
	}
	return img
}

// Resize scales src to width x height. Large magnifications replicate pixels, anything
// else is interpolated with a Catmull-Rom kernel.
func Resize(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	b := src.Bounds()
	if b.Dx() == width && b.Dy() == height {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}

	var scaler draw.Scaler = draw.CatmullRom
	if width >= nearestUpscale*b.Dx() && height >= nearestUpscale*b.Dy() {
		scaler = draw.NearestNeighbor
	}
	scaler.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// SavePNG writes img to path, creating parent directories.
func SavePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), outputDirPermissions); err != nil {
		return errors.New(err).
			Component("spectrogram").
			Category(errors.CategoryFileIO).
			Context("operation", "ensure_output_directory").
			FileContext(path).
			Build()
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.FileError(err, path)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return errors.New(err).
			Component("spectrogram").
			Category(errors.CategoryRender).
			Context("operation", "encode_png").
			FileContext(path).
			Build()
	}
	return f.Close()
}
