package myaudio

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE_FORMAT_PCM tag; float and compressed WAVs are rejected.
const wavFormatPCM = 1

// wav8BitOffset recenters unsigned 8-bit WAV samples around zero.
const wav8BitOffset = 128

func newCheckedWAVDecoder(r io.ReadSeeker) (*wav.Decoder, error) {
	decoder := wav.NewDecoder(r)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, errors.New("invalid WAV file format")
	}
	if decoder.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("unsupported WAV encoding: format tag %d", decoder.WavAudioFormat)
	}
	if _, err := getAudioDivisor(int(decoder.BitDepth)); err != nil {
		return nil, err
	}
	if decoder.NumChans == 0 {
		return nil, errors.New("WAV file declares zero channels")
	}
	return decoder, nil
}

func readWAVInfo(r io.ReadSeeker) (AudioInfo, error) {
	decoder, err := newCheckedWAVDecoder(r)
	if err != nil {
		return AudioInfo{}, err
	}

	if err := decoder.FwdToPCM(); err != nil {
		return AudioInfo{}, fmt.Errorf("locating PCM data: %w", err)
	}

	bytesPerFrame := int(decoder.BitDepth/8) * int(decoder.NumChans)
	return AudioInfo{
		SampleRate:   int(decoder.SampleRate),
		TotalSamples: int(decoder.PCMLen()) / bytesPerFrame,
		NumChannels:  int(decoder.NumChans),
		BitDepth:     int(decoder.BitDepth),
	}, nil
}

func readWAV(r io.ReadSeeker) (*Segment, error) {
	decoder, err := newCheckedWAVDecoder(r)
	if err != nil {
		return nil, err
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading PCM data: %w", err)
	}

	// 8-bit PCM is stored unsigned with silence at 128
	if decoder.BitDepth == 8 {
		for i := range buf.Data {
			buf.Data[i] -= wav8BitOffset
		}
	}

	return &Segment{
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
		BitDepth:   int(decoder.BitDepth),
		Data:       buf.Data,
	}, nil
}
