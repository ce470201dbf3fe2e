package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"

	"github.com/orcasound/orcaprep/internal/errors"
)

// minPower keeps silent bins finite on the dB scale.
const minPower = 1e-30

// Specgram computes a one-sided power spectral density in dB. Frames of nfft samples are
// taken every nfft-noverlap samples with a symmetric Hann window; the signal is zero padded
// to nfft when shorter. Density is scaled by the sampling frequency fs and the window energy.
// The result has nfft/2+1 rows, row 0 holding the DC bin.
func Specgram(x []float64, fs float64, nfft, noverlap int) (*mat.Dense, error) {
	if nfft <= 0 || noverlap < 0 || noverlap >= nfft {
		return nil, errors.Newf("invalid spectrogram framing nfft=%d noverlap=%d", nfft, noverlap).
			Component("dsp").
			Category(errors.CategorySignal).
			Build()
	}
	if fs <= 0 {
		return nil, errors.Newf("invalid sampling frequency %v", fs).
			Component("dsp").
			Category(errors.CategorySignal).
			Build()
	}

	if len(x) < nfft {
		padded := make([]float64, nfft)
		copy(padded, x)
		x = padded
	}

	step := nfft - noverlap
	frames := (len(x)-nfft)/step + 1
	bins := nfft/2 + 1

	window := HannSymmetric(nfft)
	var windowEnergy float64
	for _, w := range window {
		windowEnergy += w * w
	}
	scale := 1 / (fs * windowEnergy)

	fft := fourier.NewFFT(nfft)
	seg := make([]float64, nfft)
	coeffs := make([]complex128, bins)
	out := mat.NewDense(bins, frames, nil)

	for f := range frames {
		off := f * step
		for i := range nfft {
			seg[i] = x[off+i] * window[i]
		}
		coeffs = fft.Coefficients(coeffs, seg)

		for k, c := range coeffs {
			p := real(c)*real(c) + imag(c)*imag(c)
			// one-sided: every bin except DC and (for even nfft) Nyquist carries both halves
			if k != 0 && !(nfft%2 == 0 && k == bins-1) {
				p *= 2
			}
			out.Set(k, f, 10*math.Log10(max(p*scale, minPower)))
		}
	}

	return out, nil
}

// STFTMagnitude returns |STFT| with a periodic Hann window. With center set, the signal is
// reflect padded by nfft/2 on both sides so frame t is centered on sample t*hop.
func STFTMagnitude(x []float64, nfft, hop int, center bool) (*mat.Dense, error) {
	if nfft <= 0 || hop <= 0 {
		return nil, errors.Newf("invalid STFT framing nfft=%d hop=%d", nfft, hop).
			Component("dsp").
			Category(errors.CategorySignal).
			Build()
	}
	if len(x) == 0 {
		return nil, errors.Newf("cannot analyze an empty signal").
			Component("dsp").
			Category(errors.CategorySignal).
			Build()
	}

	if center {
		pad := nfft / 2
		padded := make([]float64, len(x)+2*pad)
		for i := range padded {
			padded[i] = x[reflectIndex(i-pad, len(x))]
		}
		x = padded
	}
	if len(x) < nfft {
		padded := make([]float64, nfft)
		copy(padded, x)
		x = padded
	}

	frames := 1 + (len(x)-nfft)/hop
	bins := nfft/2 + 1
	window := HannPeriodic(nfft)

	fft := fourier.NewFFT(nfft)
	seg := make([]float64, nfft)
	coeffs := make([]complex128, bins)
	out := mat.NewDense(bins, frames, nil)

	for f := range frames {
		off := f * hop
		for i := range nfft {
			seg[i] = x[off+i] * window[i]
		}
		coeffs = fft.Coefficients(coeffs, seg)
		for k, c := range coeffs {
			out.Set(k, f, cmplx.Abs(c))
		}
	}

	return out, nil
}
