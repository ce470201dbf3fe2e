package myaudio

import (
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/orcasound/orcaprep/internal/errors"
)

const (
	wavAudioFormatPCM  = 1
	clipDirPermissions = 0o755
)

// ExportWAV writes the segment to filePath as PCM WAV with its own sample rate,
// channel count and bit depth. Parent directories are created as needed.
func (s *Segment) ExportWAV(filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), clipDirPermissions); err != nil {
		return errors.New(err).
			Component("myaudio").
			Category(errors.CategoryFileIO).
			Context("operation", "create_clip_dir").
			FileContext(filePath).
			Build()
	}

	outFile, err := os.Create(filePath)
	if err != nil {
		return errors.New(err).
			Component("myaudio").
			Category(errors.CategoryFileIO).
			Context("operation", "create_clip").
			FileContext(filePath).
			Build()
	}
	defer outFile.Close()

	enc := wav.NewEncoder(outFile, s.SampleRate, s.BitDepth, s.Channels, wavAudioFormatPCM)

	data := s.Data
	if s.BitDepth == 8 {
		data = make([]int, len(s.Data))
		for i, v := range s.Data {
			data[i] = v + wav8BitOffset
		}
	}

	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{SampleRate: s.SampleRate, NumChannels: s.Channels},
		SourceBitDepth: s.BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return errors.New(err).
			Component("myaudio").
			Category(errors.CategoryAudio).
			Context("operation", "encode_clip").
			FileContext(filePath).
			Build()
	}

	// Close finalizes the RIFF sizes in the header
	if err := enc.Close(); err != nil {
		return errors.New(err).
			Component("myaudio").
			Category(errors.CategoryAudio).
			Context("operation", "finalize_clip").
			FileContext(filePath).
			Build()
	}

	return outFile.Close()
}
