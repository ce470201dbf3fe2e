package spectrogram

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/orcasound/orcaprep/internal/conf"
	"github.com/orcasound/orcaprep/internal/errors"
	"github.com/orcasound/orcaprep/internal/logger"
	"github.com/orcasound/orcaprep/internal/myaudio"
)

// Job is a single clip to render.
type Job struct {
	ClipPath string
	PlotPath string
}

// Outcome reports what happened to a job.
type Outcome struct {
	Job
	Err     error
	Skipped bool // empty clip, or plot already present with skipexisting
	Elapsed time.Duration
}

// Stats tracks batch rendering statistics.
type Stats struct {
	Queued    int64 // Number of jobs submitted
	Completed int64 // Number of spectrograms successfully generated
	Failed    int64 // Number of failed generations
	Skipped   int64 // Number skipped (empty clip or already exists)
}

// BatchRenderer renders every clip of a directory with a bounded worker pool.
type BatchRenderer struct {
	renderer     *Renderer
	workers      int
	skipExisting bool
	failFast     bool
	logger       logger.Logger

	mu    sync.Mutex
	stats Stats
}

// NewBatchRenderer creates a batch renderer using the worker and fail-fast settings.
func NewBatchRenderer(renderer *Renderer, settings *conf.Settings) *BatchRenderer {
	return &BatchRenderer{
		renderer:     renderer,
		workers:      max(settings.Render.Workers, 1),
		skipExisting: settings.Render.SkipExisting,
		failFast:     settings.FailFast,
		logger:       GetBatchLogger(),
	}
}

// ListClips returns the supported audio files directly inside dir, sorted by name.
// Subdirectories and other files are ignored.
func ListClips(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.New(err).
			Component("spectrogram").
			Category(errors.CategoryFileIO).
			Context("operation", "list_clips").
			Context("dir", dir).
			Build()
	}

	var clips []string
	for _, e := range entries {
		if e.IsDir() || !myaudio.IsSupported(e.Name()) {
			continue
		}
		clips = append(clips, filepath.Join(dir, e.Name()))
	}
	slices.Sort(clips)
	return clips, nil
}

// RenderDir renders every clip in clipDir into plotDir. Outcomes are returned in clip
// order. The error is non-nil when the directory cannot be listed, when ctx is cancelled,
// or, with fail-fast, for the first failing clip; remaining clips are then not started.
func (b *BatchRenderer) RenderDir(ctx context.Context, clipDir, plotDir string) ([]Outcome, error) {
	clips, err := ListClips(clipDir)
	if err != nil {
		return nil, err
	}

	b.logger.Info("rendering spectrograms",
		logger.String("clip_dir", clipDir),
		logger.String("plot_dir", plotDir),
		logger.Int("clips", len(clips)),
		logger.Int("workers", b.workers),
		logger.Int("case", b.renderer.settings.Case))

	outcomes := make([]Outcome, len(clips))
	started := make([]bool, len(clips))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i, clip := range clips {
		if gctx.Err() != nil {
			break
		}
		job := Job{ClipPath: clip, PlotPath: OutputPath(clip, plotDir, b.renderer.settings.Case)}

		g.Go(func() error {
			// a fail-fast abort may land while this job waited for a worker
			if gctx.Err() != nil {
				return nil
			}
			started[i] = true
			b.count(&b.stats.Queued)
			outcomes[i] = b.processJob(gctx, job)
			if outcomes[i].Err != nil && b.failFast {
				return outcomes[i].Err
			}
			return nil
		})
	}

	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	done := make([]Outcome, 0, len(outcomes))
	for i, o := range outcomes {
		if started[i] {
			done = append(done, o)
		}
	}
	return done, err
}

// processJob renders a single clip and records the result.
func (b *BatchRenderer) processJob(ctx context.Context, job Job) Outcome {
	start := time.Now()
	outcome := Outcome{Job: job}

	if b.skipExisting {
		if _, err := os.Stat(job.PlotPath); err == nil {
			b.logger.Debug("Spectrogram already exists, skipping",
				logger.String("plot_path", job.PlotPath))
			outcome.Skipped = true
			b.count(&b.stats.Skipped)
			return outcome
		}
	}

	err := b.renderer.RenderFile(ctx, job.ClipPath, job.PlotPath)
	outcome.Elapsed = time.Since(start)

	switch {
	case errors.Is(err, ErrEmptyClip):
		b.logger.Warn("clip is empty, no spectrogram written",
			logger.String("clip", job.ClipPath))
		outcome.Skipped = true
		b.count(&b.stats.Skipped)
	case err != nil:
		b.logger.Error("Failed to render spectrogram",
			logger.String("clip", job.ClipPath),
			logger.String("plot_path", job.PlotPath),
			logger.Error(err),
			logger.Duration("duration", outcome.Elapsed))
		outcome.Err = err
		b.count(&b.stats.Failed)
	default:
		b.count(&b.stats.Completed)
	}
	return outcome
}

func (b *BatchRenderer) count(field *int64) {
	b.mu.Lock()
	*field++
	b.mu.Unlock()
}

// GetStats returns a copy of the counters.
func (b *BatchRenderer) GetStats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}
