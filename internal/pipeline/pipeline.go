// Package pipeline runs the preprocessing stages: clip extraction from annotations,
// background sampling and spectrogram rendering. Each exported method backs one CLI
// command. Optional collaborators (run catalog, metrics textfile) are opened from the
// settings by New and released by Close.
package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/orcasound/orcaprep/internal/catalog"
	"github.com/orcasound/orcaprep/internal/conf"
	"github.com/orcasound/orcaprep/internal/errors"
	"github.com/orcasound/orcaprep/internal/logger"
	"github.com/orcasound/orcaprep/internal/myaudio"
	"github.com/orcasound/orcaprep/internal/observability"
	"github.com/orcasound/orcaprep/internal/observability/metrics"
	"github.com/orcasound/orcaprep/internal/spectrogram"
)

// Pipeline holds the collaborators shared by the stages of a command.
type Pipeline struct {
	settings  *conf.Settings
	durations *myaudio.DurationCache
	renderer  *spectrogram.Renderer
	store     *catalog.Store         // nil unless the catalog is enabled
	metrics   *observability.Metrics // nil unless a textfile is configured
	logger    logger.Logger

	run *catalog.Run // catalog row of the command in progress
}

// New prepares a pipeline for the given settings. It opens the run catalog and the
// metrics registry when they are configured.
func New(settings *conf.Settings) (*Pipeline, error) {
	p := &Pipeline{
		settings:  settings,
		durations: myaudio.NewDurationCache(),
		logger:    GetLogger(),
	}
	p.renderer = spectrogram.NewRenderer(settings, spectrogram.GetLogger())

	if settings.Metrics.Textfile != "" {
		m, err := observability.NewMetrics()
		if err != nil {
			return nil, errors.New(err).
				Component("pipeline").
				Category(errors.CategorySystem).
				Context("operation", "init_metrics").
				Build()
		}
		p.metrics = m
	}

	if settings.Catalog.Enabled {
		store, err := catalog.Open(settings.Catalog.Path)
		if err != nil {
			return nil, err
		}
		p.store = store
	}

	if p.metrics != nil {
		errors.AddErrorHook(p.metrics.Pipeline.ErrorHook())
	}
	return p, nil
}

// Close writes the metrics textfile and closes the catalog.
func (p *Pipeline) Close() error {
	var errs []error
	if p.metrics != nil {
		if err := p.metrics.WriteTextfile(p.settings.Metrics.Textfile); err != nil {
			errs = append(errs, err)
		}
		errors.ClearErrorHooks()
	}
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// begin assigns a run id, attaches it to the context as trace id and records the run
// in the catalog.
func (p *Pipeline) begin(ctx context.Context, command string) (context.Context, *Summary) {
	summary := &Summary{RunID: uuid.NewString(), Command: command}
	ctx = logger.WithTraceID(ctx, summary.RunID)

	p.logger.WithContext(ctx).Info("starting command",
		logger.String("command", command),
		logger.String("run_id", summary.RunID),
		logger.Bool("fail_fast", p.settings.FailFast),
		logger.Time("started_at", time.Now()))

	if p.store == nil {
		return ctx, summary
	}
	p.run = &catalog.Run{
		ID:             summary.RunID,
		Command:        command,
		AnnotationPath: p.settings.Input.AnnotationPath,
		AudioPath:      p.settings.Input.AudioPath,
		CallTime:       p.settings.CallTime,
		Case:           p.settings.Case,
	}
	if err := p.store.BeginRun(ctx, p.run); err != nil {
		p.logger.Warn("failed to record run in catalog, continuing without it", logger.Error(err))
		p.run = nil
	}
	return ctx, summary
}

// finish stamps the elapsed time, stores the run counters and turns row failures into
// ErrIncomplete when err is nil.
func (p *Pipeline) finish(ctx context.Context, summary *Summary, started time.Time, err error) error {
	summary.Elapsed = time.Since(started)
	if err == nil && summary.Failures() > 0 {
		err = ErrIncomplete
	}
	if p.metrics != nil {
		p.metrics.Pipeline.ObserveStage(metrics.StageRunTotal, summary.Elapsed)
	}

	p.logger.WithContext(ctx).Info("command finished",
		logger.String("command", summary.Command),
		logger.Int("failures", summary.Failures()),
		logger.Int("skipped", summary.Skipped()),
		logger.Duration("elapsed", summary.Elapsed))

	if p.run == nil {
		return err
	}
	p.run.Seed = summary.Seed
	p.run.MeanDuration = summary.MeanDuration
	p.run.Annotations = summary.Annotations
	p.run.PositiveClips = summary.PositiveClips.Written
	p.run.NegativeClips = summary.NegativeClips.Written
	p.run.Plots = summary.Plots()
	p.run.Skipped = summary.Skipped()
	p.run.Failures = summary.Failures()
	// the run context may already be cancelled, the row is still worth saving
	if ferr := p.store.FinishRun(context.WithoutCancel(ctx), p.run, err != nil); ferr != nil {
		p.logger.Warn("failed to finish run in catalog", logger.Error(ferr))
	}
	p.run = nil
	return err
}

// stage times fn and records the duration under the given stage label.
func (p *Pipeline) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	if p.metrics != nil {
		p.metrics.Pipeline.ObserveStage(name, time.Since(start))
	}
	return err
}

// ensureDirs creates the clip and plot directories.
func (p *Pipeline) ensureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.New(err).
				Component("pipeline").
				Category(errors.CategoryFileIO).
				Context("operation", "create_output_dir").
				FileContext(dir).
				Build()
		}
	}
	return nil
}

// saveArtifact records a produced file in the catalog when it is enabled.
func (p *Pipeline) saveArtifact(ctx context.Context, a *catalog.Artifact) {
	if p.run == nil {
		return
	}
	a.RunID = p.run.ID
	if err := p.store.SaveArtifact(ctx, a); err != nil {
		p.logger.Warn("failed to record artifact", logger.String("path", a.Path), logger.Error(err))
	}
}
