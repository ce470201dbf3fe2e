// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)
	viper.SetDefault("calltime", 3.0)
	viper.SetDefault("case", CasePlain)
	viper.SetDefault("failfast", false)

	viper.SetDefault("input.annotationpath", "")
	viper.SetDefault("input.audiopath", "")

	viper.SetDefault("output.positiveclips", "positive_calls")
	viper.SetDefault("output.negativeclips", "negative_calls")
	viper.SetDefault("output.positiveplots", "positive_plots")
	viper.SetDefault("output.negativeplots", "negative_plots")
	viper.SetDefault("output.negativestable", "negative2.tsv")
	viper.SetDefault("output.positiveprefix", "round2_calls")
	viper.SetDefault("output.negativeprefix", "round2_calls_neg")

	viper.SetDefault("annotation.signallabels", []string{"SRKWs"})
	viper.SetDefault("annotation.align", AlignStart)

	viper.SetDefault("negatives.seed", 0)
	viper.SetDefault("negatives.maxattempts", 1000)

	viper.SetDefault("render.engine", EngineNative)
	viper.SetDefault("render.soxpath", "")
	viper.SetDefault("render.workers", 2)
	viper.SetDefault("render.skipexisting", false)
	viper.SetDefault("render.plain.nfft", 1024)
	viper.SetDefault("render.plain.overlap", 128)
	viper.SetDefault("render.plain.width", 640)
	viper.SetDefault("render.plain.height", 480)
	viper.SetDefault("render.mel.samplerate", 22050)
	viper.SetDefault("render.mel.nfft", 2048)
	viper.SetDefault("render.mel.hoplength", 512)
	viper.SetDefault("render.mel.bands", 128)
	viper.SetDefault("render.mel.width", 800)
	viper.SetDefault("render.mel.height", 800)
	viper.SetDefault("render.pcen.gain", 0.98)
	viper.SetDefault("render.pcen.bias", 2.0)
	viper.SetDefault("render.pcen.power", 0.5)
	viper.SetDefault("render.pcen.timeconstant", 0.4)
	viper.SetDefault("render.pcen.eps", 1e-6)

	viper.SetDefault("catalog.enabled", false)
	viper.SetDefault("catalog.path", "orcaprep.db")

	viper.SetDefault("metrics.textfile", "")

	viper.SetDefault("logging.defaultlevel", "info")
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.fileoutput.enabled", false)
	viper.SetDefault("logging.fileoutput.path", "logs/orcaprep.log")
	viper.SetDefault("logging.fileoutput.level", "debug")
}
