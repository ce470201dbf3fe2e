package pipeline

import (
	"context"
	"fmt"
	"math"
	"path/filepath"

	"github.com/orcasound/orcaprep/internal/annotation"
	"github.com/orcasound/orcaprep/internal/catalog"
	"github.com/orcasound/orcaprep/internal/conf"
	"github.com/orcasound/orcaprep/internal/errors"
	"github.com/orcasound/orcaprep/internal/logger"
	"github.com/orcasound/orcaprep/internal/myaudio"
	"github.com/orcasound/orcaprep/internal/observability/metrics"
)

// truncationTolerance is how much shorter than the call time a clip may be before it
// is reported as truncated, in seconds. Slicing works in whole milliseconds.
const truncationTolerance = 0.001

// ClipRequest is one clip to cut from a recording.
type ClipRequest struct {
	Index int    // 1-based, used in the clip file name
	File  string // recording, relative to the audio directory
	Start float64
}

// ClipName returns the file name of the index-th clip for a prefix.
func ClipName(prefix string, index int) string {
	return fmt.Sprintf("%s_%04d.wav", prefix, index)
}

// clipRequests reads the file column and a start column of a selection table.
func clipRequests(t *annotation.Table, startColumn string) ([]ClipRequest, error) {
	fileCol := t.FileColumn()
	if fileCol < 0 {
		return nil, errors.Newf("table has no %s or %s column", annotation.ColumnWavFilename, annotation.ColumnFilename).
			Component("pipeline").
			Category(errors.CategoryValidation).
			Build()
	}
	starts, err := t.Floats(startColumn)
	if err != nil {
		return nil, err
	}

	reqs := make([]ClipRequest, t.Len())
	for i, record := range t.Records {
		reqs[i] = ClipRequest{Index: i + 1, File: record[fileCol], Start: starts[i]}
	}
	return reqs, nil
}

// positiveRequests places one clip per annotation according to the alignment setting.
func (p *Pipeline) positiveRequests(annots []annotation.Annotation) []ClipRequest {
	reqs := make([]ClipRequest, len(annots))
	for i, a := range annots {
		start := a.Start
		if p.settings.Annotation.Align == conf.AlignCenter {
			start = max((a.Start+a.End())/2-p.settings.CallTime/2, 0)
		}
		reqs[i] = ClipRequest{Index: i + 1, File: a.File, Start: start}
	}
	return reqs
}

// clipSource keeps the most recently decoded recording; selection tables are usually
// grouped by file so consecutive rows reuse it.
type clipSource struct {
	dir  string
	path string
	seg  *myaudio.Segment
}

func (c *clipSource) load(file string) (*myaudio.Segment, error) {
	path := filepath.Join(c.dir, filepath.FromSlash(file))
	if path == c.path && c.seg != nil {
		return c.seg, nil
	}
	seg, err := myaudio.Load(path)
	if err != nil {
		c.path, c.seg = "", nil
		return nil, err
	}
	c.path, c.seg = path, seg
	return seg, nil
}

// extractClips cuts every requested clip and writes it as <prefix>_<index>.wav into
// outDir. A row that fails is logged and counted; with fail-fast the first failure is
// returned and the remaining rows are not processed.
func (p *Pipeline) extractClips(ctx context.Context, kind string, reqs []ClipRequest, outDir, prefix string) (ClipStats, error) {
	var stats ClipStats
	log := p.logger.WithContext(ctx).With(logger.String("kind", kind))
	source := &clipSource{dir: p.settings.Input.AudioPath}
	length := p.settings.CallTime
	artifactKind := catalog.ArtifactPositiveClip
	if kind == metrics.KindNegative {
		artifactKind = catalog.ArtifactNegativeClip
	}

	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return stats, errors.New(err).
				Component("pipeline").
				Category(errors.CategoryCancellation).
				Context("operation", "extract_clips").
				Build()
		}

		outPath := filepath.Join(outDir, ClipName(prefix, req.Index))
		artifact := &catalog.Artifact{Kind: artifactKind, Path: outPath, Source: req.File, Start: req.Start}

		status, truncated, err := extractClip(source, req, outPath, length, log)
		switch status {
		case metrics.StatusWritten:
			stats.Written++
			artifact.Status = catalog.ArtifactWritten
		case metrics.StatusSkipped:
			stats.Skipped++
			artifact.Status = catalog.ArtifactSkipped
		default:
			stats.Failed++
			artifact.Status = catalog.ArtifactFailed
			artifact.Error = err.Error()
		}
		if truncated {
			stats.Truncated++
		}
		p.recordClip(kind, status)
		p.saveArtifact(ctx, artifact)

		if err != nil && p.settings.FailFast {
			return stats, err
		}
	}

	log.Info("clips extracted",
		logger.String("dir", outDir),
		logger.Int("written", stats.Written),
		logger.Int("truncated", stats.Truncated),
		logger.Int("skipped", stats.Skipped),
		logger.Int("failed", stats.Failed))
	return stats, nil
}

// extractClip writes one clip and reports its status. A window that runs over the end
// of the recording is written shorter and flagged as truncated; a window starting at or
// past the end is skipped.
func extractClip(source *clipSource, req ClipRequest, outPath string, length float64, log logger.Logger) (status string, truncated bool, err error) {
	seg, err := source.load(req.File)
	if err != nil {
		log.Error("failed to load recording",
			logger.Int("row", req.Index),
			logger.String("file", req.File),
			logger.Error(err))
		return metrics.StatusFailed, false, err
	}

	if math.IsNaN(req.Start) || math.IsInf(req.Start, 0) || req.Start >= seg.Seconds() {
		log.Warn("clip starts past the end of the recording, skipping",
			logger.Int("row", req.Index),
			logger.String("file", req.File),
			logger.Float64("start", req.Start),
			logger.Float64("recording_seconds", seg.Seconds()))
		return metrics.StatusSkipped, false, nil
	}

	clip := seg.SliceSeconds(req.Start, length)
	if clip.Frames() == 0 {
		log.Warn("clip starts past the end of the recording, skipping",
			logger.Int("row", req.Index),
			logger.String("file", req.File),
			logger.Float64("start", req.Start),
			logger.Float64("recording_seconds", seg.Seconds()))
		return metrics.StatusSkipped, false, nil
	}
	if clip.Seconds() < length-truncationTolerance {
		truncated = true
		log.Warn("clip truncated at the end of the recording",
			logger.Int("row", req.Index),
			logger.String("file", req.File),
			logger.Float64("start", req.Start),
			logger.Float64("clip_seconds", clip.Seconds()))
	}

	if err := clip.ExportWAV(outPath); err != nil {
		log.Error("failed to write clip",
			logger.Int("row", req.Index),
			logger.String("path", outPath),
			logger.Error(err))
		return metrics.StatusFailed, false, err
	}
	return metrics.StatusWritten, truncated, nil
}

func (p *Pipeline) recordClip(kind, status string) {
	if p.metrics != nil {
		p.metrics.Pipeline.RecordClip(kind, status)
	}
}
