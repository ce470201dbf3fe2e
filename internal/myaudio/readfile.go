package myaudio

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/orcasound/orcaprep/internal/errors"
)

// AudioInfo describes a recording without decoding its samples.
type AudioInfo struct {
	SampleRate   int
	TotalSamples int // frames per channel
	NumChannels  int
	BitDepth     int
}

// Seconds returns the duration described by the header.
func (ai AudioInfo) Seconds() float64 {
	if ai.SampleRate == 0 {
		return 0
	}
	return float64(ai.TotalSamples) / float64(ai.SampleRate)
}

// supportedExtensions lists the containers Load understands.
var supportedExtensions = map[string]bool{
	".wav":  true,
	".flac": true,
}

// IsSupported reports whether the file extension is one Load can decode.
func IsSupported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Load decodes a WAV or FLAC file into memory.
func Load(path string) (*Segment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("myaudio").
			Category(errors.CategoryFileIO).
			Context("operation", "open_audio").
			FileContext(path).
			Build()
	}
	defer file.Close()

	var seg *Segment
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		seg, err = readWAV(file)
	case ".flac":
		seg, err = readFLAC(file)
	default:
		return nil, errors.Newf("unsupported audio format").
			Component("myaudio").
			Category(errors.CategoryValidation).
			Context("operation", "load_audio").
			FileContext(path).
			Build()
	}
	if err != nil {
		return nil, errors.New(err).
			Component("myaudio").
			Category(errors.CategoryAudio).
			Context("operation", "decode_audio").
			FileContext(path).
			Build()
	}

	return seg, nil
}

// ReadInfo reads the header of a WAV or FLAC file.
func ReadInfo(path string) (AudioInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return AudioInfo{}, errors.New(err).
			Component("myaudio").
			Category(errors.CategoryFileIO).
			Context("operation", "open_audio").
			FileContext(path).
			Build()
	}
	defer file.Close()

	var info AudioInfo
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		info, err = readWAVInfo(file)
	case ".flac":
		info, err = readFLACInfo(file)
	default:
		err = errors.NewStd("unsupported audio format")
	}
	if err != nil {
		return AudioInfo{}, errors.New(err).
			Component("myaudio").
			Category(errors.CategoryAudio).
			Context("operation", "read_audio_info").
			FileContext(path).
			Build()
	}
	return info, nil
}

// getAudioDivisor returns the full-scale value for supported bit depths.
func getAudioDivisor(bitDepth int) (float64, error) {
	switch bitDepth {
	case 8, 16, 24, 32:
		return fullScale(bitDepth), nil
	default:
		return 0, errors.Newf("unsupported audio file bit depth: %d", bitDepth).
			Component("myaudio").
			Category(errors.CategoryValidation).
			Build()
	}
}
