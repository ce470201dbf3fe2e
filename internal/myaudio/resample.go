package myaudio

import (
	"math"
	"sync"

	"github.com/orcasound/orcaprep/internal/errors"
)

// Band-limited interpolation parameters. The kernel spans resampleZeros zero crossings on
// each side and is shaped by a Kaiser window; the rolloff keeps the passband just below the
// lower of the two Nyquist frequencies.
const (
	resampleZeros   = 64
	resampleRolloff = 0.9475937167399596
	resampleBeta    = 14.769656459379492

	// kernel table resolution, samples per zero crossing
	resamplePrecision = 512
)

// kernelTable holds the windowed sinc for u in [0, resampleZeros] zero crossings.
var kernelTable = sync.OnceValue(func() []float64 {
	n := resampleZeros*resamplePrecision + 1
	table := make([]float64, n+1)
	i0Beta := besselI0(resampleBeta)
	for i := range n {
		u := float64(i) / resamplePrecision
		w := u / resampleZeros
		table[i] = sinc(u) * besselI0(resampleBeta*math.Sqrt(max(0, 1-w*w))) / i0Beta
	}
	return table
})

// kernel interpolates the table at u zero crossings from the center.
func kernel(table []float64, u float64) float64 {
	pos := math.Abs(u) * resamplePrecision
	idx := int(pos)
	if idx >= len(table)-2 {
		return 0
	}
	frac := pos - float64(idx)
	return table[idx] + frac*(table[idx+1]-table[idx])
}

// ResampleAudio converts mono samples from one sample rate to another using windowed sinc
// interpolation. Output length is ceil(len(samples) * toRate / fromRate).
func ResampleAudio(samples []float64, fromRate, toRate int) ([]float64, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, errors.Newf("invalid sample rate conversion %d -> %d", fromRate, toRate).
			Component("myaudio").
			Category(errors.CategoryValidation).
			Context("from_rate", fromRate).
			Context("to_rate", toRate).
			Build()
	}
	if fromRate == toRate || len(samples) == 0 {
		out := make([]float64, len(samples))
		copy(out, samples)
		return out, nil
	}

	ratio := float64(toRate) / float64(fromRate)
	outLen := int(math.Ceil(float64(len(samples)) * ratio))
	out := make([]float64, outLen)

	// When downsampling the kernel is stretched so its cutoff follows the output Nyquist.
	cutoff := resampleRolloff * min(1, ratio)
	halfWidth := float64(resampleZeros) / cutoff
	table := kernelTable()

	for n := range out {
		t := float64(n) / ratio
		lo := max(int(math.Ceil(t-halfWidth)), 0)
		hi := min(int(math.Floor(t+halfWidth)), len(samples)-1)

		var acc float64
		for k := lo; k <= hi; k++ {
			acc += samples[k] * kernel(table, cutoff*(float64(k)-t))
		}
		out[n] = acc * cutoff
	}

	return out, nil
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// besselI0 evaluates the zeroth order modified Bessel function of the first kind.
func besselI0(x float64) float64 {
	sum, term := 1.0, 1.0
	q := x * x / 4
	for k := 1; k < 200; k++ {
		term *= q / float64(k*k)
		sum += term
		if term < sum*1e-17 {
			break
		}
	}
	return sum
}
