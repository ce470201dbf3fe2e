package myaudio

import (
	"fmt"
	"os"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/orcasound/orcaprep/internal/errors"
	"github.com/orcasound/orcaprep/internal/logger"
)

const (
	durationCacheTTL     = 30 * time.Minute
	durationCacheCleanup = time.Hour
)

// DurationCache remembers audio durations keyed by path, size and modification time, so
// a file that changes on disk is probed again.
type DurationCache struct {
	cache *cache.Cache
}

// NewDurationCache returns an empty cache.
func NewDurationCache() *DurationCache {
	return &DurationCache{cache: cache.New(durationCacheTTL, durationCacheCleanup)}
}

// Duration returns the duration in seconds of the file at path.
func (dc *DurationCache) Duration(path string) (float64, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return 0, errors.New(err).
			Component("myaudio").
			Category(errors.CategoryFileIO).
			Context("operation", "stat_audio").
			FileContext(path).
			Build()
	}

	key := fmt.Sprintf("%s|%d|%d", path, stat.Size(), stat.ModTime().UnixNano())
	if cached, found := dc.cache.Get(key); found {
		if seconds, ok := cached.(float64); ok {
			return seconds, nil
		}
	}

	info, err := ReadInfo(path)
	if err != nil {
		return 0, err
	}

	seconds := info.Seconds()
	GetLogger().Debug("probed audio duration",
		logger.String("path", path),
		logger.Float64("seconds", seconds),
		logger.Int("sample_rate", info.SampleRate))
	dc.cache.Set(key, seconds, cache.DefaultExpiration)
	return seconds, nil
}

// Len returns the number of cached entries.
func (dc *DurationCache) Len() int {
	return dc.cache.ItemCount()
}
