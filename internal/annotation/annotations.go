package annotation

import (
	"gonum.org/v1/gonum/stat"

	"github.com/orcasound/orcaprep/internal/errors"
	"github.com/orcasound/orcaprep/internal/logger"
)

// Annotation is one parsed row of an annotation table.
type Annotation struct {
	Row      int // 1-based position in the table
	File     string
	Start    float64
	Duration float64
	Label    string
}

// End returns Start + Duration.
func (a Annotation) End() float64 {
	return a.Start + a.Duration
}

// LoadAnnotations reads an annotation table and checks that the file, start and
// duration_s columns exist and hold valid values.
func LoadAnnotations(path string) (*Table, error) {
	table, err := ReadTable(path)
	if err != nil {
		return nil, err
	}

	if _, err := table.Annotations(); err != nil {
		return nil, errors.New(err).
			Component("annotation").
			Category(errors.CategoryValidation).
			Context("operation", "load_annotations").
			FileContext(path).
			Build()
	}

	GetLogger().Info("loaded annotations",
		logger.String("path", path),
		logger.Int("rows", table.Len()),
		logger.Int("columns", len(table.Columns)))
	return table, nil
}

// Annotations parses every record.
func (t *Table) Annotations() ([]Annotation, error) {
	fileCol := t.FileColumn()
	if fileCol < 0 {
		return nil, missingColumn(ColumnWavFilename)
	}
	startCol := t.Column(ColumnStart)
	if startCol < 0 {
		return nil, missingColumn(ColumnStart)
	}
	durCol := t.Column(ColumnDuration)
	if durCol < 0 {
		return nil, missingColumn(ColumnDuration)
	}
	labelCol := t.Column(ColumnLabel)

	out := make([]Annotation, len(t.Records))
	for i, rec := range t.Records {
		start, err := t.Float(i, startCol)
		if err != nil {
			return nil, err
		}
		dur, err := t.Float(i, durCol)
		if err != nil {
			return nil, err
		}
		if dur < 0 {
			return nil, errors.Newf("negative duration %v on row %d", dur, i+1).
				Component("annotation").
				Category(errors.CategoryValidation).
				Build()
		}
		a := Annotation{Row: i + 1, File: rec[fileCol], Start: start, Duration: dur}
		if labelCol >= 0 {
			a.Label = rec[labelCol]
		}
		out[i] = a
	}
	return out, nil
}

// MeanDuration returns the arithmetic mean of duration_s. An empty table has mean 0.
func MeanDuration(t *Table) (float64, error) {
	durations, err := t.Floats(ColumnDuration)
	if err != nil {
		return 0, err
	}
	if len(durations) == 0 {
		GetLogger().Warn("annotation table is empty, mean duration is 0")
		return 0, nil
	}
	return stat.Mean(durations, nil), nil
}

// AddEnd derives the end column as start + duration_s for every record.
func AddEnd(t *Table) error {
	starts, err := t.Floats(ColumnStart)
	if err != nil {
		return err
	}
	durations, err := t.Floats(ColumnDuration)
	if err != nil {
		return err
	}

	ends := make([]string, len(starts))
	for i := range starts {
		ends[i] = formatFloat(starts[i] + durations[i])
	}
	t.SetColumn(ColumnEnd, ends)
	return nil
}
