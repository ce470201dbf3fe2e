// Package report renders command summaries as console tables.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/orcasound/orcaprep/internal/catalog"
	"github.com/orcasound/orcaprep/internal/pipeline"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable draws a rounded table with the given headers and column alignment.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// Summary writes the clip and plot counters of a command.
func Summary(w io.Writer, s *pipeline.Summary) {
	if s == nil {
		return
	}
	rows := [][]string{}
	addClips := func(name string, c pipeline.ClipStats) {
		if c == (pipeline.ClipStats{}) {
			return
		}
		rows = append(rows, []string{name, itoa(c.Written), itoa(c.Truncated), itoa(c.Skipped), itoa(c.Failed)})
	}
	addPlots := func(name string, p pipeline.PlotStats) {
		if p == (pipeline.PlotStats{}) {
			return
		}
		rows = append(rows, []string{name, itoa(p.Written), "", itoa(p.Skipped), itoa(p.Failed)})
	}
	addClips("positive clips", s.PositiveClips)
	addClips("negative clips", s.NegativeClips)
	addPlots("positive plots", s.PositivePlots)
	addPlots("negative plots", s.NegativePlots)

	_, _ = fmt.Fprintf(w, "Run %s (%s) finished in %s\n", s.RunID, s.Command, s.Elapsed.Round(time.Millisecond))
	if s.NegativesTable != "" {
		_, _ = fmt.Fprintf(w, "Background selections: %d of %d drawn (seed %d), written to %s\n",
			s.BackgroundDrawn, s.BackgroundRequested, s.Seed, s.NegativesTable)
	}
	if len(rows) > 0 {
		_, _ = fmt.Fprintln(w, renderTable(
			[]string{"Output", "Written", "Truncated", "Skipped", "Failed"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
		))
	}
}

// MeanDuration prints the mean call duration line.
func MeanDuration(w io.Writer, mean float64) {
	_, _ = fmt.Fprintf(w, "The mean of the call duration is %s\n", formatMean(mean))
}

// formatMean prints the shortest exact representation, keeping a ".0" on whole numbers.
func formatMean(v float64) string {
	out := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(out, ".IN") {
		out += ".0"
	}
	return out
}

// AnnotationStats writes the summary of an annotation table.
func AnnotationStats(w io.Writer, s *pipeline.AnnotationStats) {
	MeanDuration(w, s.MeanDuration)
	rows := [][]string{
		{"table", s.Path},
		{"rows", itoa(s.Rows)},
		{"recordings", itoa(s.Files)},
		{"mean duration (s)", formatSeconds(s.MeanDuration)},
		{"min duration (s)", formatSeconds(s.MinDuration)},
		{"max duration (s)", formatSeconds(s.MaxDuration)},
		{"total duration (s)", formatSeconds(s.TotalDuration)},
	}
	for _, label := range s.SortedLabels() {
		rows = append(rows, []string{"label " + strconv.Quote(label), itoa(s.Labels[label])})
	}
	_, _ = fmt.Fprintln(w, renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
}

// Runs writes catalog runs, newest first.
func Runs(w io.Writer, runs []catalog.Run) {
	rows := make([][]string, 0, len(runs))
	for i := range runs {
		r := &runs[i]
		finished := "-"
		if r.FinishedAt != nil {
			finished = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		rows = append(rows, []string{
			r.ID,
			r.Command,
			r.StartedAt.Format(time.DateTime),
			finished,
			r.Status,
			itoa(r.Case),
			itoa(r.PositiveClips),
			itoa(r.NegativeClips),
			itoa(r.Plots),
			itoa(r.Failures),
		})
	}
	_, _ = fmt.Fprintln(w, renderTable(
		[]string{"Run", "Command", "Started", "Elapsed", "Status", "Case", "Positives", "Negatives", "Plots", "Failures"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
