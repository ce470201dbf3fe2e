package pipeline

import (
	"maps"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/orcasound/orcaprep/internal/annotation"
	"github.com/orcasound/orcaprep/internal/conf"
)

// AnnotationStats summarizes an annotation table.
type AnnotationStats struct {
	Path          string
	Rows          int
	Files         int
	MeanDuration  float64
	MinDuration   float64
	MaxDuration   float64
	TotalDuration float64
	Labels        map[string]int // rows per raw label, empty without a label column

	// Table is the annotation table with the end column added.
	Table *annotation.Table
}

// SortedLabels returns the label values in lexical order.
func (s *AnnotationStats) SortedLabels() []string {
	return slices.Sorted(maps.Keys(s.Labels))
}

// Stats loads the annotation table, computes the mean call duration and adds the end
// column. When output is not empty the extended table is written there.
func (p *Pipeline) Stats(output string) (*AnnotationStats, error) {
	if err := conf.ValidateSettings(p.settings, conf.NeedAnnotations); err != nil {
		return nil, err
	}

	path := p.settings.Input.AnnotationPath
	table, err := annotation.LoadAnnotations(path)
	if err != nil {
		return nil, err
	}
	mean, err := annotation.MeanDuration(table)
	if err != nil {
		return nil, err
	}
	if err := annotation.AddEnd(table); err != nil {
		return nil, err
	}
	annots, err := table.Annotations()
	if err != nil {
		return nil, err
	}

	stats := &AnnotationStats{
		Path:         path,
		Rows:         len(annots),
		MeanDuration: mean,
		Labels:       make(map[string]int),
		Table:        table,
	}

	files := make(map[string]struct{})
	durations := make([]float64, len(annots))
	hasLabel := table.Column(annotation.ColumnLabel) >= 0
	for i, a := range annots {
		durations[i] = a.Duration
		files[a.File] = struct{}{}
		if hasLabel {
			stats.Labels[a.Label]++
		}
	}
	stats.Files = len(files)
	if len(durations) > 0 {
		stats.MinDuration = floats.Min(durations)
		stats.MaxDuration = floats.Max(durations)
		stats.TotalDuration = floats.Sum(durations)
	}

	if output != "" {
		if err := table.WriteTSV(output); err != nil {
			return nil, err
		}
	}
	return stats, nil
}
