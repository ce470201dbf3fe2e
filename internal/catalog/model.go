package catalog

import "time"

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Selection kinds.
const (
	KindAnnotation = "annotation"
	KindPositive   = "positive"
	KindBackground = "background"
)

// Artifact kinds and statuses.
const (
	ArtifactPositiveClip = "positive_clip"
	ArtifactNegativeClip = "negative_clip"
	ArtifactPlot         = "plot"

	ArtifactWritten = "written"
	ArtifactSkipped = "skipped"
	ArtifactFailed  = "failed"
)

// Run is one invocation of the pipeline.
type Run struct {
	ID             string `gorm:"primaryKey;size:36"`
	Command        string `gorm:"size:32"`
	StartedAt      time.Time
	FinishedAt     *time.Time
	Status         string `gorm:"size:16;index"`
	AnnotationPath string
	AudioPath      string
	CallTime       float64
	Case           int
	Seed           int64
	MeanDuration   float64
	Annotations    int
	PositiveClips  int
	NegativeClips  int
	Plots          int
	Skipped        int
	Failures       int
}

// Selection is a time window recorded for a run.
type Selection struct {
	ID       uint   `gorm:"primaryKey"`
	RunID    string `gorm:"size:36;index:idx_selection_run_kind"`
	Kind     string `gorm:"size:16;index:idx_selection_run_kind"`
	Filename string
	SelID    int
	Start    float64
	End      float64
	Label    int
}

// Artifact is a file produced, skipped or failed during a run.
type Artifact struct {
	ID        uint   `gorm:"primaryKey"`
	RunID     string `gorm:"size:36;index:idx_artifact_run_kind"`
	Kind      string `gorm:"size:16;index:idx_artifact_run_kind"`
	Path      string
	Source    string  // audio file or clip the artifact was made from
	Start     float64 // offset in Source, seconds; 0 for plots
	Status    string  `gorm:"size:16"`
	Error     string
	CreatedAt time.Time
}
