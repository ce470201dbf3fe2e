package annotation

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/orcasound/orcaprep/internal/errors"
)

// Well-known column names.
const (
	ColumnWavFilename = "wav_filename"
	ColumnFilename    = "filename"
	ColumnStart       = "start"
	ColumnDuration    = "duration_s"
	ColumnEnd         = "end"
	ColumnLabel       = "label"
	ColumnAnnotID     = "annot_id"
	ColumnSelID       = "sel_id"
)

// Table is a delimited text table. Every record has len(Columns) fields.
type Table struct {
	Columns []string
	Records [][]string
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.Records)
}

// Column returns the index of the named column or -1.
func (t *Table) Column(name string) int {
	return slices.Index(t.Columns, name)
}

// FileColumn returns the index of the column naming audio files, accepting both the raw
// annotation name and the standardized one.
func (t *Table) FileColumn() int {
	if i := t.Column(ColumnFilename); i >= 0 {
		return i
	}
	return t.Column(ColumnWavFilename)
}

// Float parses the value of a column in a record.
func (t *Table) Float(record, column int) (float64, error) {
	raw := strings.TrimSpace(t.Records[record][column])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New(err).
			Component("annotation").
			Category(errors.CategoryFileParsing).
			Context("column", t.Columns[column]).
			Context("row", record+1).
			Context("value", raw).
			Build()
	}
	return v, nil
}

// Floats parses a whole column.
func (t *Table) Floats(name string) ([]float64, error) {
	col := t.Column(name)
	if col < 0 {
		return nil, missingColumn(name)
	}
	out := make([]float64, len(t.Records))
	for i := range t.Records {
		v, err := t.Float(i, col)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// SetColumn replaces the named column with values, appending it if absent.
func (t *Table) SetColumn(name string, values []string) {
	col := t.Column(name)
	if col < 0 {
		t.Columns = append(t.Columns, name)
		for i := range t.Records {
			t.Records[i] = append(t.Records[i], "")
		}
		col = len(t.Columns) - 1
	}
	for i := range t.Records {
		t.Records[i][col] = values[i]
	}
}

// delimiterFor picks the field separator from the file extension.
func delimiterFor(path string) rune {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return ','
	}
	return '\t'
}

// ReadTable reads a delimited table with a header row. Files ending in .csv are comma
// separated, everything else is tab separated.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.FileError(err, path)
	}
	defer f.Close()

	table, err := parseTable(f, delimiterFor(path))
	if err != nil {
		return nil, errors.New(err).
			Component("annotation").
			Category(errors.CategoryFileParsing).
			Context("operation", "read_table").
			FileContext(path).
			Build()
	}
	return table, nil
}

func parseTable(r io.Reader, comma rune) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.NewStd("table has no header row")
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\uFEFF"))
	}

	table := &Table{Columns: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		table.Records = append(table.Records, record)
	}
	return table, nil
}

// WriteTSV writes the table as tab-separated text with a header row, replacing any
// existing file.
func (t *Table) WriteTSV(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.FileError(err, dir)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.FileError(err, path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'
	if err := w.Write(t.Columns); err != nil {
		return errors.FileError(err, path)
	}
	if err := w.WriteAll(t.Records); err != nil {
		return errors.FileError(err, path)
	}
	return f.Close()
}

func missingColumn(name string) error {
	return errors.Newf("required column %q is missing", name).
		Component("annotation").
		Category(errors.CategoryValidation).
		Context("column", name).
		Build()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
