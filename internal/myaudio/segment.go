package myaudio

import (
	"math"
	"time"
)

// Segment is decoded PCM audio with interleaved integer samples.
type Segment struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Data       []int // interleaved samples, len(Data) == Frames()*Channels
}

// Frames returns the number of sample frames (samples per channel).
func (s *Segment) Frames() int {
	if s == nil || s.Channels == 0 {
		return 0
	}
	return len(s.Data) / s.Channels
}

// Duration returns the playing time of the segment.
func (s *Segment) Duration() time.Duration {
	return time.Duration(s.Seconds() * float64(time.Second))
}

// Seconds returns the playing time in seconds.
func (s *Segment) Seconds() float64 {
	if s == nil || s.SampleRate == 0 {
		return 0
	}
	return float64(s.Frames()) / float64(s.SampleRate)
}

// frameAt converts a millisecond offset to a frame index clamped to [0, Frames()].
// The product is formed in float64 so far-off offsets clamp instead of overflowing.
func (s *Segment) frameAt(ms float64) int {
	if !(ms > 0) {
		return 0
	}
	frame := math.Floor(ms * float64(s.SampleRate) / 1000)
	if frame >= float64(s.Frames()) {
		return s.Frames()
	}
	return int(frame)
}

// Slice returns the audio between startMs and endMs, in milliseconds. Offsets past the
// end are clamped, so a window running over the end of the recording yields a shorter
// clip and a window starting past the end yields an empty one. The returned segment
// shares no memory with s.
func (s *Segment) Slice(startMs, endMs int64) *Segment {
	return s.sliceFrames(s.frameAt(float64(startMs)), s.frameAt(float64(endMs)))
}

// SliceSeconds is Slice with second offsets rounded to the nearest millisecond.
// A NaN start yields an empty clip.
func (s *Segment) SliceSeconds(start, length float64) *Segment {
	startMs := math.Round(start * 1000)
	endMs := startMs + math.Round(length*1000)
	if math.IsNaN(startMs) {
		return s.sliceFrames(0, 0)
	}
	return s.sliceFrames(s.frameAt(startMs), s.frameAt(endMs))
}

func (s *Segment) sliceFrames(start, end int) *Segment {
	end = max(end, start)

	data := make([]int, (end-start)*s.Channels)
	copy(data, s.Data[start*s.Channels:end*s.Channels])

	return &Segment{
		SampleRate: s.SampleRate,
		Channels:   s.Channels,
		BitDepth:   s.BitDepth,
		Data:       data,
	}
}

// Mono returns the samples averaged across channels and scaled to [-1, 1).
func (s *Segment) Mono() []float64 {
	frames := s.Frames()
	out := make([]float64, frames)
	if frames == 0 {
		return out
	}

	scale := 1 / (fullScale(s.BitDepth) * float64(s.Channels))
	for i := range frames {
		var sum int
		base := i * s.Channels
		for c := range s.Channels {
			sum += s.Data[base+c]
		}
		out[i] = float64(sum) * scale
	}
	return out
}

// fullScale returns the magnitude of the most negative sample for a bit depth.
func fullScale(bitDepth int) float64 {
	if bitDepth <= 0 {
		bitDepth = 16
	}
	return math.Ldexp(1, bitDepth-1)
}
