package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	configcmd "github.com/orcasound/orcaprep/cmd/config"
	"github.com/orcasound/orcaprep/cmd/negatives"
	"github.com/orcasound/orcaprep/cmd/plot"
	"github.com/orcasound/orcaprep/cmd/run"
	"github.com/orcasound/orcaprep/cmd/runs"
	"github.com/orcasound/orcaprep/cmd/slice"
	"github.com/orcasound/orcaprep/cmd/stats"
	"github.com/orcasound/orcaprep/internal/buildinfo"
	"github.com/orcasound/orcaprep/internal/conf"
	"github.com/orcasound/orcaprep/internal/logger"
)

// flagKeys maps persistent flag names to configuration keys.
var flagKeys = map[string]string{
	"debug":              "debug",
	"tsvpath":            "input.annotationpath",
	"audiospath":         "input.audiopath",
	"calltime":           "calltime",
	"outputpathpositive": "output.positiveclips",
	"outputpathnegative": "output.negativeclips",
	"outputplotpathpos":  "output.positiveplots",
	"outputplotpathneg":  "output.negativeplots",
	"preprocesscase":     "case",
	"seed":               "negatives.seed",
	"fail-fast":          "failfast",
	"workers":            "render.workers",
	"catalog":            "catalog.enabled",
	"metrics-textfile":   "metrics.textfile",
}

// RootCommand creates and returns the root command. settings is filled in before any
// subcommand runs: embedded defaults, then the config file, ORCAPREP_* variables and
// finally the command line flags.
func RootCommand(settings *conf.Settings, info *buildinfo.Context) *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "orcaprep",
		Short:         "Prepare orca call recordings for classifier training",
		Version:       info.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, &configFile)

	subcommands := []*cobra.Command{
		run.Command(settings),
		stats.Command(settings),
		slice.Command(settings),
		negatives.Command(settings),
		plot.Command(settings),
		configcmd.Command(settings),
		runs.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd.Flags()); err != nil {
			return err
		}

		loaded, err := conf.Load(configFile)
		if err != nil {
			return err
		}
		*settings = *loaded

		return initialize(settings)
	}

	return rootCmd
}

// initialize sets up the central logger from the loaded settings.
func initialize(settings *conf.Settings) error {
	if settings.Debug {
		settings.Logging.DefaultLevel = string(logger.LogLevelDebug)
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = string(logger.LogLevelDebug)
		}
	}

	centralLogger, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(centralLogger)
	return nil
}

// setupFlags defines flags that are global to the command line interface. Defaults are
// left to the configuration; a flag only takes effect when it is given.
func setupFlags(rootCmd *cobra.Command, configFile *string) {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(configFile, "config", "", "Path to a configuration file (default: orcaprep.yaml in the working or config directory)")
	flags.BoolP("debug", "d", false, "Enable debug output")
	flags.StringP("tsvpath", "t", "", "Path to the annotation table (tsv or csv)")
	flags.StringP("audiospath", "a", "", "Directory holding the annotated recordings")
	flags.Float64("calltime", 0, "Clip length in seconds")
	flags.String("outputpathpositive", "", "Output directory for the extracted call clips")
	flags.String("outputpathnegative", "", "Output directory for the extracted background clips")
	flags.String("outputplotpathpos", "", "Output directory for call spectrograms")
	flags.String("outputplotpathneg", "", "Output directory for background spectrograms")
	flags.IntP("preprocesscase", "c", 0, "Preprocess case: 1 plain spectrogram, 2 mel + PCEN, 3 mel + PCEN + denoise")
	flags.Int64("seed", 0, "Seed for background sampling (0 draws one from the clock)")
	flags.Bool("fail-fast", false, "Abort at the first failing row")
	flags.Int("workers", 0, "Spectrograms rendered concurrently")
	flags.Bool("catalog", false, "Record the run in the SQLite catalog")
	flags.String("metrics-textfile", "", "Write Prometheus metrics to this file when done")
}

// bindFlags binds the flags that were set on the command line to their configuration
// keys, so they override the config file and the environment.
func bindFlags(flags *pflag.FlagSet) error {
	var bindErr error
	flags.Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || bindErr != nil {
			return
		}
		if err := viper.BindPFlag(key, f); err != nil {
			bindErr = fmt.Errorf("error binding flag %s: %w", f.Name, err)
		}
	})
	return bindErr
}
