package spectrogram

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/orcasound/orcaprep/internal/errors"
	"github.com/orcasound/orcaprep/internal/logger"
	"github.com/orcasound/orcaprep/internal/myaudio"
)

const (
	// defaultGenerationTimeout bounds a single Sox invocation.
	defaultGenerationTimeout = 90 * time.Second

	// defaultDynamicRange is the Sox -z parameter in dB.
	defaultDynamicRange = "100"

	// osWindows is the GOOS value for Windows operating system
	osWindows = "windows"
)

// SoxGenerator renders linear spectrograms with the external sox binary.
type SoxGenerator struct {
	binary string
	logger logger.Logger
}

// NewSoxGenerator resolves the sox binary. An empty path looks sox up in PATH.
func NewSoxGenerator(binary string, log logger.Logger) (*SoxGenerator, error) {
	if binary == "" {
		binary = "sox"
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, errors.New(err).
			Component("spectrogram").
			Category(errors.CategoryConfiguration).
			Context("operation", "lookup_sox").
			Context("binary", binary).
			Build()
	}
	if log == nil {
		log = GetLogger()
	}
	return &SoxGenerator{binary: resolved, logger: log}, nil
}

// Generate writes a width x height spectrogram of audioPath to outputPath without axes.
func (g *SoxGenerator) Generate(ctx context.Context, audioPath, outputPath string, width, height int) error {
	ctx, cancel := context.WithTimeout(ctx, defaultGenerationTimeout)
	defer cancel()

	args, err := g.getSoxArgs(audioPath, outputPath, width, height)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), outputDirPermissions); err != nil {
		return errors.FileError(err, filepath.Dir(outputPath))
	}

	g.logger.Debug("Executing SoX command",
		logger.String("sox_binary", g.binary),
		logger.String("audio_path", audioPath),
		logger.String("output_path", outputPath))

	cmd := createCommandWithNice(ctx, g.binary, args)

	var output bytes.Buffer
	cmd.Stderr = &output
	cmd.Stdout = &output

	started := time.Now()
	if err := cmd.Run(); err != nil {
		category := errors.CategoryCommandExecution
		if ctx.Err() != nil {
			category = errors.CategoryTimeout
		}
		return errors.New(err).
			Component("spectrogram").
			Category(category).
			Timing("generate_with_sox", time.Since(started)).
			Context("audio_path", audioPath).
			Context("output_path", outputPath).
			Context("sox_output", output.String()).
			Build()
	}
	return nil
}

// getSoxArgs builds the Sox argument list. The duration is always passed explicitly so
// the image spans the whole clip regardless of width.
func (g *SoxGenerator) getSoxArgs(audioPath, outputPath string, width, height int) ([]string, error) {
	info, err := myaudio.ReadInfo(audioPath)
	if err != nil {
		return nil, err
	}

	return []string{
		audioPath,
		"-n",
		"remix", "-",
		"spectrogram",
		"-x", strconv.Itoa(width),
		"-y", strconv.Itoa(height),
		"-d", strconv.FormatFloat(info.Seconds(), 'f', 3, 64),
		"-w", "Hann",
		"-z", defaultDynamicRange,
		"-r",
		"-o", outputPath,
	}, nil
}

// createCommandWithNice creates an exec.Cmd with nice wrapper on non-Windows systems.
func createCommandWithNice(ctx context.Context, binary string, args []string) *exec.Cmd {
	if runtime.GOOS == osWindows {
		return exec.CommandContext(ctx, binary, args...) // #nosec G204 - binary validated by exec.LookPath
	}
	if _, err := exec.LookPath("nice"); err != nil {
		return exec.CommandContext(ctx, binary, args...) // #nosec G204 - binary validated by exec.LookPath
	}
	return exec.CommandContext(ctx, "nice", append([]string{"-n", "19", binary}, args...)...) // #nosec G204 - binary validated by exec.LookPath
}
