// config.go: settings for the preprocessing run and the functions that load them.
package conf

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/orcasound/orcaprep/internal/errors"
	"github.com/orcasound/orcaprep/internal/logger"
)

//go:embed config.yaml
var defaultConfigYAML []byte

// EnvPrefix is the prefix for environment variable overrides, e.g. ORCAPREP_CALLTIME=3.
const EnvPrefix = "ORCAPREP"

// Preprocess cases select how clips are rendered.
const (
	CasePlain        = 1 // linear STFT spectrogram
	CasePCEN         = 2 // mel spectrogram + PCEN
	CasePCENDenoised = 3 // mel spectrogram + PCEN + wavelet denoising
)

// Alignment of positive clips relative to the annotation.
const (
	AlignStart  = "start"  // clip begins at the annotated start
	AlignCenter = "center" // clip is centered on the annotation
)

// Render engines for the plain spectrogram case.
const (
	EngineNative = "native"
	EngineSox    = "sox"
)

// InputSettings locates the annotation table and the recordings.
type InputSettings struct {
	AnnotationPath string `yaml:"annotationpath"` // tsv/csv with start and duration_s columns
	AudioPath      string `yaml:"audiopath"`      // directory holding the recordings
}

// OutputSettings lists the directories and files the run writes.
type OutputSettings struct {
	PositiveClips  string `yaml:"positiveclips"`  // extracted call clips
	NegativeClips  string `yaml:"negativeclips"`  // extracted background clips
	PositivePlots  string `yaml:"positiveplots"`  // spectrograms of call clips
	NegativePlots  string `yaml:"negativeplots"`  // spectrograms of background clips
	NegativesTable string `yaml:"negativestable"` // background selection table
	PositivePrefix string `yaml:"positiveprefix"` // clip file name prefix for calls
	NegativePrefix string `yaml:"negativeprefix"` // clip file name prefix for background
}

// AnnotationSettings controls how the annotation table is standardized.
type AnnotationSettings struct {
	SignalLabels []string `yaml:"signallabels"` // label values that mark a call
	Align        string   `yaml:"align"`        // start or center
}

// NegativeSettings controls random background sampling.
type NegativeSettings struct {
	Seed        int64 `yaml:"seed"`        // 0 draws a seed from the clock
	MaxAttempts int   `yaml:"maxattempts"` // draws per wanted selection before giving up
}

// PlainSettings configures the linear spectrogram of case 1.
type PlainSettings struct {
	NFFT    int `yaml:"nfft"`
	Overlap int `yaml:"overlap"`
	Width   int `yaml:"width"`
	Height  int `yaml:"height"`
}

// MelSettings configures the mel spectrogram of cases 2 and 3.
type MelSettings struct {
	SampleRate int `yaml:"samplerate"` // analysis sample rate, clips are resampled to it
	NFFT       int `yaml:"nfft"`
	HopLength  int `yaml:"hoplength"`
	Bands      int `yaml:"bands"`
	Width      int `yaml:"width"`
	Height     int `yaml:"height"`
}

// PCENSettings holds per-channel energy normalization parameters.
type PCENSettings struct {
	Gain         float64 `yaml:"gain"`
	Bias         float64 `yaml:"bias"`
	Power        float64 `yaml:"power"`
	TimeConstant float64 `yaml:"timeconstant"` // seconds
	Eps          float64 `yaml:"eps"`
}

// RenderSettings groups the spectrogram rendering options.
type RenderSettings struct {
	Engine  string `yaml:"engine"`  // native or sox, case 1 only
	SoxPath string `yaml:"soxpath"` // sox binary, looked up in PATH when empty
	Workers int    `yaml:"workers"` // clips rendered concurrently
	// SkipExisting leaves plots that are already on disk untouched.
	SkipExisting bool          `yaml:"skipexisting"`
	Plain        PlainSettings `yaml:"plain"`
	Mel          MelSettings   `yaml:"mel"`
	PCEN         PCENSettings  `yaml:"pcen"`
}

// CatalogSettings configures the optional SQLite run catalog.
type CatalogSettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MetricsSettings configures the Prometheus textfile export.
type MetricsSettings struct {
	Textfile string `yaml:"textfile"` // empty disables the export
}

// Settings holds the configuration of a preprocessing run.
type Settings struct {
	Debug    bool    `yaml:"debug"`
	CallTime float64 `yaml:"calltime"` // clip length in seconds
	Case     int     `yaml:"case"`     // 1 plain, 2 pcen, 3 pcen + denoise
	FailFast bool    `yaml:"failfast"` // abort at the first failing row

	Input      InputSettings      `yaml:"input"`
	Output     OutputSettings     `yaml:"output"`
	Annotation AnnotationSettings `yaml:"annotation"`
	Negatives  NegativeSettings   `yaml:"negatives"`
	Render     RenderSettings     `yaml:"render"`
	Catalog    CatalogSettings    `yaml:"catalog"`
	Metrics    MetricsSettings    `yaml:"metrics"`

	Logging logger.LoggingConfig `yaml:"logging"`
}

// Load reads the embedded defaults, an optional config file and ORCAPREP_* environment
// variables into a Settings value. configFile may be empty. Flags bound to the global
// viper instance take precedence over all of these.
func Load(configFile string) (*Settings, error) {
	if err := initViper(configFile); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal_settings").
			Build()
	}

	return settings, nil
}

// initViper configures the global viper instance: defaults, config file and environment.
func initViper(configFile string) error {
	viper.SetConfigType("yaml")
	setDefaultConfig()

	// Embedded defaults form the base layer so documented keys always exist
	if err := viper.MergeConfig(bytes.NewReader(defaultConfigYAML)); err != nil {
		return errors.New(err).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Context("operation", "read_embedded_config").
			Build()
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.MergeInConfig(); err != nil {
			return errors.New(fmt.Errorf("error reading config file %s: %w", configFile, err)).
				Component("configuration").
				Category(errors.CategoryConfiguration).
				FileContext(configFile).
				Build()
		}
		return nil
	}

	viper.SetConfigName("orcaprep")
	for _, path := range GetDefaultConfigPaths() {
		viper.AddConfigPath(path)
	}
	if err := viper.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.New(err).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Context("operation", "read_config").
			Build()
	}

	return nil
}

// ToYAML renders the settings as YAML, e.g. for `orcaprep config`.
func (s *Settings) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("error encoding settings: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("error encoding settings: %w", err)
	}
	return buf.Bytes(), nil
}
