package pipeline

import (
	"context"
	"time"

	"github.com/orcasound/orcaprep/internal/annotation"
	"github.com/orcasound/orcaprep/internal/conf"
	"github.com/orcasound/orcaprep/internal/errors"
	"github.com/orcasound/orcaprep/internal/observability/metrics"
)

// Command names recorded in the catalog.
const (
	CommandRun       = "run"
	CommandSlice     = "slice"
	CommandNegatives = "negatives"
	CommandPlot      = "plot"
)

// Run executes the full preprocessing pipeline: positive clips from the annotation
// table, a random background table and its clips, then spectrograms of both clip
// directories. Row failures do not stop the run unless fail-fast is set; the returned
// error is ErrIncomplete when any row failed.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	if err := conf.ValidateSettings(p.settings, conf.RequireAll); err != nil {
		return nil, err
	}
	ctx, summary := p.begin(ctx, CommandRun)
	started := time.Now()
	return summary, p.finish(ctx, summary, started, p.runStages(ctx, summary))
}

func (p *Pipeline) runStages(ctx context.Context, summary *Summary) error {
	out := &p.settings.Output

	table, annots, err := p.loadAnnotations(ctx, summary)
	if err != nil {
		return err
	}

	if err := p.ensureDirs(out.PositiveClips, out.NegativeClips, out.PositivePlots, out.NegativePlots); err != nil {
		return err
	}

	err = p.stage(metrics.StagePositiveClips, func() error {
		summary.PositiveClips, err = p.extractClips(ctx, metrics.KindPositive,
			p.positiveRequests(annots), out.PositiveClips, out.PositivePrefix)
		return err
	})
	if err != nil {
		return err
	}

	if err := p.drawBackground(ctx, table, summary); err != nil {
		return err
	}

	if err := p.extractNegatives(ctx, summary, out.NegativesTable, out.NegativeClips, out.NegativePrefix); err != nil {
		return err
	}

	err = p.stage(metrics.StagePositivePlots, func() error {
		summary.PositivePlots, err = p.render(ctx, out.PositiveClips, out.PositivePlots)
		return err
	})
	if err != nil {
		return err
	}

	return p.stage(metrics.StageNegativePlots, func() error {
		summary.NegativePlots, err = p.render(ctx, out.NegativeClips, out.NegativePlots)
		return err
	})
}

// Negatives writes the random background selection table without cutting clips.
func (p *Pipeline) Negatives(ctx context.Context) (*Summary, error) {
	if err := conf.ValidateSettings(p.settings, conf.NeedAnnotations|conf.NeedAudio); err != nil {
		return nil, err
	}
	ctx, summary := p.begin(ctx, CommandNegatives)
	started := time.Now()

	err := func() error {
		table, _, err := p.loadAnnotations(ctx, summary)
		if err != nil {
			return err
		}
		return p.drawBackground(ctx, table, summary)
	}()
	return summary, p.finish(ctx, summary, started, err)
}

// SliceOptions selects the table and output of the slice command.
type SliceOptions struct {
	Table     string // selection or annotation table
	Column    string // column holding the clip start, in seconds
	OutputDir string
	Prefix    string
	Negative  bool // count the clips as background clips
}

// Slice cuts one clip of call-time length per row of any selection table.
func (p *Pipeline) Slice(ctx context.Context, opts SliceOptions) (*Summary, error) {
	if err := conf.ValidateSettings(p.settings, conf.NeedAudio); err != nil {
		return nil, err
	}
	if opts.Table == "" || opts.OutputDir == "" {
		return nil, errors.ValidationError("slice needs a selection table and an output directory")
	}
	if opts.Column == "" {
		opts.Column = annotation.ColumnStart
	}
	ctx, summary := p.begin(ctx, CommandSlice)
	started := time.Now()

	err := p.stage(metrics.StageSliceSelections, func() error {
		if err := p.ensureDirs(opts.OutputDir); err != nil {
			return err
		}
		reqs, err := p.readRequests(opts.Table, opts.Column)
		if err != nil {
			return err
		}
		kind, stats := metrics.KindPositive, &summary.PositiveClips
		if opts.Negative {
			kind, stats = metrics.KindNegative, &summary.NegativeClips
		}
		*stats, err = p.extractClips(ctx, kind, reqs, opts.OutputDir, opts.Prefix)
		return err
	})
	return summary, p.finish(ctx, summary, started, err)
}

// Plot renders spectrograms for every clip of clipDir into plotDir.
func (p *Pipeline) Plot(ctx context.Context, clipDir, plotDir string) (*Summary, error) {
	if err := conf.ValidateSettings(p.settings, conf.NeedPlots); err != nil {
		return nil, err
	}
	ctx, summary := p.begin(ctx, CommandPlot)
	started := time.Now()

	err := p.stage(metrics.StageRenderDirectory, func() error {
		if err := p.ensureDirs(plotDir); err != nil {
			return err
		}
		var err error
		summary.PositivePlots, err = p.render(ctx, clipDir, plotDir)
		return err
	})
	return summary, p.finish(ctx, summary, started, err)
}
