package dsp

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/orcasound/orcaprep/internal/errors"
)

const (
	// madToSigma is the 0.75 quantile of the standard normal distribution.
	madToSigma = 0.6744897501960817
	// levelsBelowMax is how far below the maximum decomposition depth denoising stops.
	levelsBelowMax = 3
)

// detailBands holds the three detail subbands of one decomposition level.
type detailBands struct {
	ad, da, dd *mat.Dense
}

func (d detailBands) all() []*mat.Dense {
	return []*mat.Dense{d.ad, d.da, d.dd}
}

// waveletLevel is one step of a 2-D decomposition, recording the input shape so the
// inverse can crop the padded reconstruction back.
type waveletLevel struct {
	rows, cols int
	details    detailBands
}

// DenoiseWavelet removes noise from a non-negative image by soft-thresholding its Haar
// wavelet coefficients with BayesShrink thresholds. The noise level is estimated from the
// median absolute finest diagonal coefficient. The result is clipped to [0, 1].
func DenoiseWavelet(img mat.Matrix) (*mat.Dense, error) {
	rows, cols := img.Dims()
	if rows == 0 || cols == 0 {
		return nil, errors.Newf("cannot denoise an empty image").
			Component("dsp").
			Category(errors.CategorySignal).
			Build()
	}

	levels := max(maxHaarLevel(min(rows, cols))-levelsBelowMax, 1)

	approx := mat.DenseCopyOf(img)
	decomposition := make([]waveletLevel, 0, levels)
	for range levels {
		r, c := approx.Dims()
		var details detailBands
		approx, details = haarForward2D(approx)
		decomposition = append(decomposition, waveletLevel{rows: r, cols: c, details: details})
	}

	sigma := estimateSigma(decomposition[0].details.dd)
	variance := sigma * sigma
	for _, lvl := range decomposition {
		for _, band := range lvl.details.all() {
			softThreshold(band, bayesThreshold(band, variance))
		}
	}

	for i := len(decomposition) - 1; i >= 0; i-- {
		lvl := decomposition[i]
		approx = haarInverse2D(approx, lvl.details, lvl.rows, lvl.cols)
	}

	approx.Apply(func(_, _ int, v float64) float64 { return min(max(v, 0), 1) }, approx)
	return approx, nil
}

// maxHaarLevel is the deepest useful decomposition for a signal of length n.
func maxHaarLevel(n int) int {
	if n < 1 {
		return 0
	}
	return int(math.Floor(math.Log2(float64(n))))
}

// estimateSigma returns the median absolute deviation noise estimate over the non-zero
// coefficients.
func estimateSigma(band *mat.Dense) float64 {
	raw := band.RawMatrix()
	abs := make([]float64, 0, raw.Rows*raw.Cols)
	for r := range raw.Rows {
		for _, v := range raw.Data[r*raw.Stride : r*raw.Stride+raw.Cols] {
			if v != 0 {
				abs = append(abs, math.Abs(v))
			}
		}
	}
	if len(abs) == 0 {
		return 0
	}
	return median(abs) / madToSigma
}

func median(x []float64) float64 {
	slices.Sort(x)
	n := len(x)
	if n%2 == 1 {
		return x[n/2]
	}
	return (x[n/2-1] + x[n/2]) / 2
}

// bayesThreshold returns variance / signal standard deviation for one subband.
func bayesThreshold(band *mat.Dense, variance float64) float64 {
	r, c := band.Dims()
	data := mat.DenseCopyOf(band).RawMatrix().Data
	meanSquare := floats.Dot(data, data) / float64(r*c)
	return variance / math.Sqrt(max(meanSquare-variance, epsilon))
}

// epsilon is the float64 machine epsilon.
const epsilon = 2.220446049250313e-16

func softThreshold(band *mat.Dense, thresh float64) {
	band.Apply(func(_, _ int, v float64) float64 {
		mag := math.Abs(v) - thresh
		if mag <= 0 {
			return 0
		}
		return math.Copysign(mag, v)
	}, band)
}

// haarForward1D splits x into approximation and detail coefficients. An odd final sample
// is paired with itself.
func haarForward1D(x, approx, detail []float64) {
	n := len(x)
	for k := range approx {
		a := x[2*k]
		b := a
		if 2*k+1 < n {
			b = x[2*k+1]
		}
		approx[k] = (a + b) / math.Sqrt2
		detail[k] = (a - b) / math.Sqrt2
	}
}

// haarInverse1D reconstructs len(out) samples from paired coefficients.
func haarInverse1D(approx, detail, out []float64) {
	for k := range approx {
		if 2*k < len(out) {
			out[2*k] = (approx[k] + detail[k]) / math.Sqrt2
		}
		if 2*k+1 < len(out) {
			out[2*k+1] = (approx[k] - detail[k]) / math.Sqrt2
		}
	}
}

// transformRows applies a 1-D split to every row.
func transformRows(m *mat.Dense) (lo, hi *mat.Dense) {
	rows, cols := m.Dims()
	half := (cols + 1) / 2
	lo = mat.NewDense(rows, half, nil)
	hi = mat.NewDense(rows, half, nil)
	for r := range rows {
		haarForward1D(m.RawRowView(r), lo.RawRowView(r), hi.RawRowView(r))
	}
	return lo, hi
}

// inverseRows merges row coefficients back to cols columns.
func inverseRows(lo, hi *mat.Dense, cols int) *mat.Dense {
	rows, _ := lo.Dims()
	out := mat.NewDense(rows, cols, nil)
	for r := range rows {
		haarInverse1D(lo.RawRowView(r), hi.RawRowView(r), out.RawRowView(r))
	}
	return out
}

// haarForward2D transforms along columns then rows.
func haarForward2D(m *mat.Dense) (*mat.Dense, detailBands) {
	// columns are handled as rows of the transpose
	loT, hiT := transformRows(mat.DenseCopyOf(m.T()))
	lo := mat.DenseCopyOf(loT.T())
	hi := mat.DenseCopyOf(hiT.T())

	aa, ad := transformRows(lo)
	da, dd := transformRows(hi)
	return aa, detailBands{ad: ad, da: da, dd: dd}
}

// haarInverse2D undoes haarForward2D and crops to rows x cols.
func haarInverse2D(aa *mat.Dense, d detailBands, rows, cols int) *mat.Dense {
	lo := inverseRows(aa, d.ad, cols)
	hi := inverseRows(d.da, d.dd, cols)

	out := inverseRows(mat.DenseCopyOf(lo.T()), mat.DenseCopyOf(hi.T()), rows)
	return mat.DenseCopyOf(out.T())
}
