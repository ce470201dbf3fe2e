package pipeline

import (
	"context"
	"time"

	"github.com/orcasound/orcaprep/internal/annotation"
	"github.com/orcasound/orcaprep/internal/catalog"
	"github.com/orcasound/orcaprep/internal/errors"
	"github.com/orcasound/orcaprep/internal/logger"
	"github.com/orcasound/orcaprep/internal/observability/metrics"
	"github.com/orcasound/orcaprep/internal/spectrogram"
)

// loadAnnotations reads the annotation table, logs the mean call duration and adds the
// end column.
func (p *Pipeline) loadAnnotations(ctx context.Context, summary *Summary) (*annotation.Table, []annotation.Annotation, error) {
	var (
		table  *annotation.Table
		annots []annotation.Annotation
	)
	err := p.stage(metrics.StageAnnotations, func() error {
		var err error
		table, err = annotation.LoadAnnotations(p.settings.Input.AnnotationPath)
		if err != nil {
			return err
		}
		if summary.MeanDuration, err = annotation.MeanDuration(table); err != nil {
			return err
		}
		if err = annotation.AddEnd(table); err != nil {
			return err
		}
		annots, err = table.Annotations()
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	summary.Annotations = len(annots)
	if p.metrics != nil {
		p.metrics.Pipeline.SetAnnotations(summary.Annotations, summary.MeanDuration)
	}
	p.logger.WithContext(ctx).Info("mean call duration",
		logger.Float64("seconds", summary.MeanDuration),
		logger.Int("annotations", summary.Annotations))
	return table, annots, nil
}

// drawBackground standardizes the annotations, draws as many background windows as there
// are positive selections and writes them to the negatives table.
func (p *Pipeline) drawBackground(ctx context.Context, table *annotation.Table, summary *Summary) error {
	log := p.logger.WithContext(ctx)
	length := p.settings.CallTime

	var std, positives []annotation.Selection
	err := p.stage(metrics.StageStandardize, func() error {
		var err error
		if std, err = annotation.Standardize(table, p.settings.Annotation.SignalLabels); err != nil {
			return err
		}
		positives, err = annotation.SelectPositives(std, length)
		return err
	})
	if err != nil {
		return err
	}
	p.saveSelections(ctx, catalog.KindAnnotation, std)
	p.saveSelections(ctx, catalog.KindPositive, positives)

	var files []annotation.FileDuration
	err = p.stage(metrics.StageFileDurations, func() error {
		var err error
		files, err = annotation.FileDurationTable(p.settings.Input.AudioPath, p.durations)
		return err
	})
	if err != nil {
		return err
	}

	summary.Seed = p.settings.Negatives.Seed
	if summary.Seed == 0 {
		summary.Seed = time.Now().UnixNano()
	}
	log.Info("drawing background selections",
		logger.Int("wanted", len(positives)),
		logger.Int("files", len(files)),
		logger.Int64("seed", summary.Seed))

	var background []annotation.Selection
	err = p.stage(metrics.StageBackground, func() error {
		var err error
		background, err = annotation.RandomBackground(std, files, annotation.BackgroundOptions{
			Length:      length,
			Num:         len(positives),
			MaxAttempts: p.settings.Negatives.MaxAttempts,
			Seed:        summary.Seed,
		})
		return err
	})
	if err != nil {
		return err
	}
	summary.BackgroundRequested = len(positives)
	summary.BackgroundDrawn = len(background)
	if p.metrics != nil {
		p.metrics.Pipeline.SetBackground(summary.BackgroundRequested, summary.BackgroundDrawn)
	}
	p.saveSelections(ctx, catalog.KindBackground, background)

	path := p.settings.Output.NegativesTable
	err = p.stage(metrics.StageWriteNegatives, func() error {
		return annotation.SelectionTable(background, annotation.ColumnSelID).WriteTSV(path)
	})
	if err != nil {
		return err
	}
	summary.NegativesTable = path
	log.Info("background selection table written",
		logger.String("path", path),
		logger.Int("rows", len(background)))
	return nil
}

// extractNegatives re-reads a background table and cuts one clip per row at its start.
func (p *Pipeline) extractNegatives(ctx context.Context, summary *Summary, tablePath, outDir, prefix string) error {
	return p.stage(metrics.StageNegativeClips, func() error {
		reqs, err := p.readRequests(tablePath, annotation.ColumnStart)
		if err != nil {
			return err
		}
		summary.NegativeClips, err = p.extractClips(ctx, metrics.KindNegative, reqs, outDir, prefix)
		return err
	})
}

// readRequests loads a selection table and turns every row into a clip request.
func (p *Pipeline) readRequests(tablePath, column string) ([]ClipRequest, error) {
	table, err := annotation.ReadTable(tablePath)
	if err != nil {
		return nil, err
	}
	reqs, err := clipRequests(table, column)
	if err != nil {
		return nil, errors.New(err).
			Component("pipeline").
			Category(errors.CategoryValidation).
			Context("operation", "read_selection_table").
			Context("column", column).
			FileContext(tablePath).
			Build()
	}
	return reqs, nil
}

// render draws spectrograms for every clip in clipDir.
func (p *Pipeline) render(ctx context.Context, clipDir, plotDir string) (PlotStats, error) {
	batch := spectrogram.NewBatchRenderer(p.renderer, p.settings)
	outcomes, err := batch.RenderDir(ctx, clipDir, plotDir)

	for _, o := range outcomes {
		artifact := &catalog.Artifact{Kind: catalog.ArtifactPlot, Path: o.PlotPath, Source: o.ClipPath}
		status := metrics.StatusWritten
		switch {
		case o.Err != nil:
			status = metrics.StatusFailed
			artifact.Status = catalog.ArtifactFailed
			artifact.Error = o.Err.Error()
		case o.Skipped:
			status = metrics.StatusSkipped
			artifact.Status = catalog.ArtifactSkipped
		default:
			artifact.Status = catalog.ArtifactWritten
		}
		if p.metrics != nil {
			p.metrics.Pipeline.RecordPlot(p.settings.Case, status)
		}
		p.saveArtifact(ctx, artifact)
	}

	return plotStatsFrom(batch.GetStats()), err
}

func (p *Pipeline) saveSelections(ctx context.Context, kind string, sels []annotation.Selection) {
	if p.run == nil {
		return
	}
	if err := p.store.SaveSelections(ctx, p.run.ID, kind, sels); err != nil {
		p.logger.Warn("failed to record selections",
			logger.String("kind", kind),
			logger.Error(err))
	}
}
