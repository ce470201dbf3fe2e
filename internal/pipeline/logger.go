package pipeline

import (
	"github.com/orcasound/orcaprep/internal/logger"
)

// GetLogger returns the pipeline logger scoped to the pipeline module.
func GetLogger() logger.Logger {
	return logger.Global().Module("pipeline")
}
