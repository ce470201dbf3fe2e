package spectrogram

import (
	"github.com/orcasound/orcaprep/internal/logger"
)

// GetLogger returns the spectrogram package logger scoped to the spectrogram module.
// Fetched dynamically to ensure it uses the current centralized logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("spectrogram")
}

// GetBatchLogger returns the logger for the batch renderer.
func GetBatchLogger() logger.Logger {
	return logger.Global().Module("spectrogram.batch")
}
