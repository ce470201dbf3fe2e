package pipeline

import (
	"time"

	"github.com/orcasound/orcaprep/internal/spectrogram"
)

// ClipStats counts the outcome of a clip extraction stage.
type ClipStats struct {
	Written   int
	Truncated int // written but shorter than the call time
	Skipped   int // start at or past the end of the recording
	Failed    int
}

// PlotStats counts the outcome of a render stage.
type PlotStats struct {
	Written int
	Skipped int
	Failed  int
}

func plotStatsFrom(s spectrogram.Stats) PlotStats {
	return PlotStats{
		Written: int(s.Completed),
		Skipped: int(s.Skipped),
		Failed:  int(s.Failed),
	}
}

// Summary describes what a command did.
type Summary struct {
	RunID   string
	Command string
	Seed    int64

	Annotations  int
	MeanDuration float64

	PositiveClips ClipStats
	NegativeClips ClipStats

	BackgroundRequested int
	BackgroundDrawn     int
	NegativesTable      string

	PositivePlots PlotStats
	NegativePlots PlotStats

	Elapsed time.Duration
}

// Failures returns the number of clips and plots that failed.
func (s *Summary) Failures() int {
	return s.PositiveClips.Failed + s.NegativeClips.Failed + s.PositivePlots.Failed + s.NegativePlots.Failed
}

// Skipped returns the number of clips and plots that were skipped.
func (s *Summary) Skipped() int {
	return s.PositiveClips.Skipped + s.NegativeClips.Skipped + s.PositivePlots.Skipped + s.NegativePlots.Skipped
}

// Plots returns the number of images written.
func (s *Summary) Plots() int {
	return s.PositivePlots.Written + s.NegativePlots.Written
}
