// Label values and histogram bucket parameters shared by the collectors.

package metrics

// Status label values.
const (
	StatusWritten = "written"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Clip kind label values.
const (
	KindPositive = "positive"
	KindNegative = "negative"
)

// Stage label values for stage durations.
const (
	StageAnnotations     = "annotations"
	StagePositiveClips   = "positive_clips"
	StageBackground      = "background"
	StageNegativeClips   = "negative_clips"
	StagePositivePlots   = "positive_plots"
	StageNegativePlots   = "negative_plots"
	StageFileDurations   = "file_durations"
	StageStandardize     = "standardize"
	StageWriteNegatives  = "write_negatives"
	StageRenderDirectory = "render_directory"
	StageSliceSelections = "slice_selections"
	StageRunTotal        = "total"
)

// Histogram bucket parameters.
const (
	// BucketStart10ms is the starting bucket for 10ms histograms (10ms to ~40s range).
	BucketStart10ms = 0.01
	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2
	// BucketCount12 defines 12 exponential buckets.
	BucketCount12 = 12
)
