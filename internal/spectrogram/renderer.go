// Package spectrogram turns audio clips into PNG spectrogram images.
//
// Three preprocessing cases are supported: a linear power spectrogram (case 1), a mel
// spectrogram normalized with PCEN (case 2), and the PCEN image after wavelet denoising
// (case 3). Case 1 can optionally be drawn by sox; the native renderer is used when sox
// is not configured or fails.
package spectrogram

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/orcasound/orcaprep/internal/conf"
	"github.com/orcasound/orcaprep/internal/dsp"
	"github.com/orcasound/orcaprep/internal/errors"
	"github.com/orcasound/orcaprep/internal/logger"
	"github.com/orcasound/orcaprep/internal/myaudio"
)

// ErrEmptyClip is returned for clips holding no samples.
var ErrEmptyClip = errors.NewStd("clip has no audio")

// Renderer renders single clips according to the configured preprocessing case.
type Renderer struct {
	settings *conf.Settings
	sox      *SoxGenerator
	logger   logger.Logger
}

// NewRenderer creates a renderer. If logger is nil, the spectrogram module logger is used.
// When the sox engine is requested but sox cannot be found, a warning is logged and the
// native renderer is used instead.
func NewRenderer(settings *conf.Settings, log logger.Logger) *Renderer {
	if log == nil {
		log = GetLogger()
	}
	r := &Renderer{settings: settings, logger: log}

	if settings.Render.Engine == conf.EngineSox && settings.Case == conf.CasePlain {
		sox, err := NewSoxGenerator(settings.Render.SoxPath, log)
		if err != nil {
			log.Warn("sox not available, using native renderer",
				logger.String("sox_path", settings.Render.SoxPath),
				logger.Error(err))
		}
		r.sox = sox
	}
	return r
}

// OutputPath returns the image path for a clip: <stem>.png for case 1 and
// <stem>_0000.png for the mel cases.
func OutputPath(clipPath, plotDir string, preprocessCase int) string {
	base := filepath.Base(clipPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if preprocessCase == conf.CasePlain {
		return filepath.Join(plotDir, stem+".png")
	}
	return filepath.Join(plotDir, fmt.Sprintf("%s_%04d.png", stem, 0))
}

// RenderFile renders clipPath to outputPath.
func (r *Renderer) RenderFile(ctx context.Context, clipPath, outputPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()

	var (
		img image.Image
		err error
	)
	switch r.settings.Case {
	case conf.CasePlain:
		plain := r.settings.Render.Plain
		if r.sox != nil {
			err := r.sox.Generate(ctx, clipPath, outputPath, plain.Width, plain.Height)
			if err == nil {
				return nil
			}
			r.logger.Warn("sox rendering failed, falling back to native renderer",
				logger.String("clip", clipPath),
				logger.Error(err))
		}
		img, err = r.renderPlain(clipPath)
	case conf.CasePCEN, conf.CasePCENDenoised:
		img, err = r.renderPCEN(clipPath, r.settings.Case == conf.CasePCENDenoised)
	default:
		return errors.Newf("unknown preprocess case %d", r.settings.Case).
			Component("spectrogram").
			Category(errors.CategoryValidation).
			Build()
	}
	if err != nil {
		return err
	}

	if err := SavePNG(outputPath, img); err != nil {
		return err
	}

	r.logger.Debug("rendered spectrogram",
		logger.String("clip", clipPath),
		logger.String("output", outputPath),
		logger.Int("case", r.settings.Case),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}

func (r *Renderer) loadClip(clipPath string) (*myaudio.Segment, error) {
	seg, err := myaudio.Load(clipPath)
	if err != nil {
		return nil, err
	}
	if seg.Frames() == 0 {
		return nil, errors.New(ErrEmptyClip).
			Component("spectrogram").
			Category(errors.CategoryAudio).
			FileContext(clipPath).
			Build()
	}
	return seg, nil
}

func (r *Renderer) renderPlain(clipPath string) (image.Image, error) {
	seg, err := r.loadClip(clipPath)
	if err != nil {
		return nil, err
	}

	plain := r.settings.Render.Plain
	spec, err := dsp.Specgram(seg.Mono(), float64(seg.SampleRate), plain.NFFT, plain.Overlap)
	if err != nil {
		return nil, wrapRender(err, clipPath, "specgram")
	}
	return Resize(MatrixImage(spec, true), plain.Width, plain.Height), nil
}

func (r *Renderer) renderPCEN(clipPath string, denoise bool) (image.Image, error) {
	seg, err := r.loadClip(clipPath)
	if err != nil {
		return nil, err
	}

	mel := r.settings.Render.Mel
	samples, err := myaudio.ResampleAudio(seg.Mono(), seg.SampleRate, mel.SampleRate)
	if err != nil {
		return nil, err
	}

	spec, err := dsp.MelSpectrogram(samples, mel.SampleRate, dsp.MelOptions{
		NFFT:      mel.NFFT,
		HopLength: mel.HopLength,
		Bands:     mel.Bands,
		Power:     1,
	})
	if err != nil {
		return nil, wrapRender(err, clipPath, "mel_spectrogram")
	}

	p := r.settings.Render.PCEN
	normalized, err := dsp.PCEN(spec, mel.SampleRate, mel.HopLength, dsp.PCENParams{
		Gain:         p.Gain,
		Bias:         p.Bias,
		Power:        p.Power,
		TimeConstant: p.TimeConstant,
		Eps:          p.Eps,
	})
	if err != nil {
		return nil, wrapRender(err, clipPath, "pcen")
	}

	if denoise {
		normalized, err = dsp.DenoiseWavelet(normalized)
		if err != nil {
			return nil, wrapRender(err, clipPath, "wavelet_denoise")
		}
	}

	return Resize(MatrixImage(normalized, false), mel.Width, mel.Height), nil
}

func wrapRender(err error, clipPath, stage string) error {
	return errors.New(err).
		Component("spectrogram").
		Category(errors.CategorySignal).
		Context("stage", stage).
		FileContext(clipPath).
		Build()
}
