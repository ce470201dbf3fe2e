package annotation

import "github.com/orcasound/orcaprep/internal/logger"

// GetLogger returns the annotation logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("annotation")
}
