package annotation

import (
	"cmp"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/orcasound/orcaprep/internal/errors"
)

// Selection is a labeled time window of one audio file.
type Selection struct {
	Filename string
	ID       int // annot_id for standardized annotations, sel_id otherwise
	Start    float64
	End      float64
	Label    int
}

// Length returns End - Start.
func (s Selection) Length() float64 {
	return s.End - s.Start
}

// Overlaps reports whether the half-open windows [Start, End) intersect.
func (s Selection) Overlaps(o Selection) bool {
	return s.Start < o.End && o.Start < s.End
}

// Standardize converts annotations to the standard selection layout. Labels listed in
// signalLabels map to their 1-based position in the list, numeric labels are kept, every
// other label maps to 0. A table without a label column marks every row as signal.
// The result is sorted by filename then start and annot_id counts from 0 within a file.
func Standardize(t *Table, signalLabels []string) ([]Selection, error) {
	annots, err := t.Annotations()
	if err != nil {
		return nil, err
	}
	hasLabel := t.Column(ColumnLabel) >= 0

	out := make([]Selection, len(annots))
	for i, a := range annots {
		label := 1
		if hasLabel {
			label = mapLabel(a.Label, signalLabels)
		}
		out[i] = Selection{
			Filename: normalizeFilename(a.File),
			Start:    a.Start,
			End:      a.End(),
			Label:    label,
		}
	}

	sortSelections(out)
	assignIDs(out)
	return out, nil
}

func mapLabel(raw string, signalLabels []string) int {
	raw = strings.TrimSpace(raw)
	if i := slices.Index(signalLabels, raw); i >= 0 {
		return i + 1
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return 0
}

// SelectPositives returns windows of the given length centered on each selection.
// Windows that would start before 0 are shifted to start at 0.
func SelectPositives(sels []Selection, length float64) ([]Selection, error) {
	if length <= 0 {
		return nil, errors.Newf("selection length must be positive, got %v", length).
			Component("annotation").
			Category(errors.CategoryValidation).
			Build()
	}

	out := make([]Selection, len(sels))
	for i, s := range sels {
		start := max((s.Start+s.End)/2-length/2, 0)
		out[i] = Selection{
			Filename: s.Filename,
			ID:       s.ID,
			Start:    start,
			End:      start + length,
			Label:    s.Label,
		}
	}
	return out, nil
}

// SelectionTable renders selections with the given id column name.
func SelectionTable(sels []Selection, idColumn string) *Table {
	t := &Table{Columns: []string{ColumnFilename, idColumn, ColumnStart, ColumnEnd, ColumnLabel}}
	t.Records = make([][]string, len(sels))
	for i, s := range sels {
		t.Records[i] = []string{
			s.Filename,
			strconv.Itoa(s.ID),
			formatFloat(s.Start),
			formatFloat(s.End),
			strconv.Itoa(s.Label),
		}
	}
	return t
}

func sortSelections(sels []Selection) {
	slices.SortStableFunc(sels, func(a, b Selection) int {
		return cmp.Or(cmp.Compare(a.Filename, b.Filename), cmp.Compare(a.Start, b.Start))
	})
}

// assignIDs numbers sorted selections from 0 within each file.
func assignIDs(sels []Selection) {
	for i := range sels {
		if i > 0 && sels[i].Filename == sels[i-1].Filename {
			sels[i].ID = sels[i-1].ID + 1
			continue
		}
		sels[i].ID = 0
	}
}

// normalizeFilename makes annotation file names comparable with directory listings:
// slash separated, cleaned and in Unicode NFC (macOS file systems report NFD).
func normalizeFilename(name string) string {
	return norm.NFC.String(filepath.ToSlash(filepath.Clean(strings.TrimSpace(name))))
}
