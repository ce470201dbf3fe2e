package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/orcasound/orcaprep/internal/errors"
)

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melFSp        = 200.0 / 3
	melMinLogHz   = 1000.0
	melMinLogMel  = melMinLogHz / melFSp
	melLogStepDen = 27.0
)

var melLogStep = math.Log(6.4) / melLogStepDen

// HzToMel converts a frequency to the Slaney mel scale.
func HzToMel(hz float64) float64 {
	if hz >= melMinLogHz {
		return melMinLogMel + math.Log(hz/melMinLogHz)/melLogStep
	}
	return hz / melFSp
}

// MelToHz is the inverse of HzToMel.
func MelToHz(mel float64) float64 {
	if mel >= melMinLogMel {
		return melMinLogHz * math.Exp(melLogStep*(mel-melMinLogMel))
	}
	return melFSp * mel
}

// MelFilterBank builds an nMels x (nfft/2+1) matrix of triangular filters spaced evenly on
// the Slaney mel scale between fmin and fmax, each normalized to unit area in Hz.
func MelFilterBank(sampleRate, nfft, nMels int, fmin, fmax float64) (*mat.Dense, error) {
	if sampleRate <= 0 || nfft <= 0 || nMels <= 0 {
		return nil, errors.Newf("invalid mel filter bank sr=%d nfft=%d bands=%d", sampleRate, nfft, nMels).
			Component("dsp").
			Category(errors.CategorySignal).
			Build()
	}
	if fmax <= 0 {
		fmax = float64(sampleRate) / 2
	}

	bins := nfft/2 + 1
	fftFreqs := make([]float64, bins)
	floats.Span(fftFreqs, 0, float64(sampleRate)/2)

	mels := make([]float64, nMels+2)
	floats.Span(mels, HzToMel(fmin), HzToMel(fmax))
	melF := make([]float64, len(mels))
	for i, m := range mels {
		melF[i] = MelToHz(m)
	}

	weights := mat.NewDense(nMels, bins, nil)
	for i := range nMels {
		lowDiff := melF[i+1] - melF[i]
		highDiff := melF[i+2] - melF[i+1]
		enorm := 2 / (melF[i+2] - melF[i])
		for k, f := range fftFreqs {
			lower := (f - melF[i]) / lowDiff
			upper := (melF[i+2] - f) / highDiff
			weights.Set(i, k, max(0, min(lower, upper))*enorm)
		}
	}
	return weights, nil
}

// MelOptions configures MelSpectrogram.
type MelOptions struct {
	NFFT      int
	HopLength int
	Bands     int
	// Power is the exponent applied to the STFT magnitude; 1 gives an energy-free
	// magnitude spectrogram.
	Power float64
}

// MelSpectrogram projects a centered STFT onto a Slaney mel filter bank.
func MelSpectrogram(x []float64, sampleRate int, opts MelOptions) (*mat.Dense, error) {
	spec, err := STFTMagnitude(x, opts.NFFT, opts.HopLength, true)
	if err != nil {
		return nil, err
	}
	if opts.Power != 1 && opts.Power != 0 {
		spec.Apply(func(_, _ int, v float64) float64 { return math.Pow(v, opts.Power) }, spec)
	}

	bank, err := MelFilterBank(sampleRate, opts.NFFT, opts.Bands, 0, 0)
	if err != nil {
		return nil, err
	}

	_, frames := spec.Dims()
	out := mat.NewDense(opts.Bands, frames, nil)
	out.Mul(bank, spec)
	return out, nil
}
