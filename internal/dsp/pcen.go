package dsp

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/orcasound/orcaprep/internal/errors"
)

// PCENParams are the per-channel energy normalization constants.
type PCENParams struct {
	Gain         float64
	Bias         float64
	Power        float64
	TimeConstant float64 // seconds
	Eps          float64
}

// DefaultPCENParams returns the customary PCEN constants.
func DefaultPCENParams() PCENParams {
	return PCENParams{Gain: 0.98, Bias: 2, Power: 0.5, TimeConstant: 0.4, Eps: 1e-6}
}

// SmoothingCoefficient returns the one-pole IIR coefficient for a time constant expressed
// at the given frame rate.
func SmoothingCoefficient(timeConstant float64, sampleRate, hop int) float64 {
	t := timeConstant * float64(sampleRate) / float64(hop)
	return (math.Sqrt(1+4*t*t) - 1) / (2 * t * t)
}

// PCEN normalizes each row of a non-negative spectrogram by a smoothed version of itself:
//
//	M[t] = (1-b) M[t-1] + b S[t], with M starting at S[0]
//	P[t] = (S[t] / (eps + M[t])^gain + bias)^power - bias^power
func PCEN(spec mat.Matrix, sampleRate, hop int, p PCENParams) (*mat.Dense, error) {
	if p.TimeConstant <= 0 || p.Eps <= 0 || p.Power <= 0 || p.Gain < 0 || p.Bias < 0 {
		return nil, errors.Newf("invalid PCEN parameters %+v", p).
			Component("dsp").
			Category(errors.CategorySignal).
			Build()
	}
	if sampleRate <= 0 || hop <= 0 {
		return nil, errors.Newf("invalid PCEN frame rate sr=%d hop=%d", sampleRate, hop).
			Component("dsp").
			Category(errors.CategorySignal).
			Build()
	}

	b := SmoothingCoefficient(p.TimeConstant, sampleRate, hop)
	biasPow := math.Pow(p.Bias, p.Power)

	rows, cols := spec.Dims()
	out := mat.NewDense(rows, cols, nil)
	for r := range rows {
		m := spec.At(r, 0)
		for c := range cols {
			s := spec.At(r, c)
			if c > 0 {
				m = (1-b)*m + b*s
			}
			smooth := math.Exp(-p.Gain * (math.Log(p.Eps) + math.Log1p(m/p.Eps)))
			out.Set(r, c, math.Pow(s*smooth+p.Bias, p.Power)-biasPow)
		}
	}
	return out, nil
}
