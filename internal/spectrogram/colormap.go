package spectrogram

import (
	"image/color"
	"math"
)

// viridis polynomial fit, one coefficient set per channel from degree 0 to 6.
var viridisCoeffs = [3][7]float64{
	{0.2777273272234177, 0.1050930431085774, -0.3308618287255563, -4.634230498983486, 6.228269936347081, 4.776384997670288, -5.435455855934631},
	{0.005407344544966578, 1.404613529898575, 0.214847559468213, -5.799100973351585, 14.17993336680509, -13.74514537774601, 4.645852612178535},
	{0.3340998053353061, 1.384590162594685, 0.09509516302823659, -19.33244095627987, 56.69055260068105, -65.35303263337234, 26.3124352495832},
}

// viridisLUT is the 256 entry viridis colormap.
var viridisLUT = func() [256]color.RGBA {
	var lut [256]color.RGBA
	for i := range lut {
		t := float64(i) / 255
		var rgb [3]uint8
		for ch, c := range viridisCoeffs {
			v := c[6]
			for k := 5; k >= 0; k-- {
				v = v*t + c[k]
			}
			rgb[ch] = uint8(math.Round(255 * min(max(v, 0), 1)))
		}
		lut[i] = color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 0xff}
	}
	return lut
}()

// Viridis maps t in [0, 1] to a color; values outside the range are clamped.
func Viridis(t float64) color.RGBA {
	if math.IsNaN(t) {
		t = 0
	}
	idx := int(math.Round(min(max(t, 0), 1) * 255))
	return viridisLUT[idx]
}
