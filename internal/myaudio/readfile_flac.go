package myaudio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/tphakala/flac"
)

func readFLACInfo(r io.Reader) (AudioInfo, error) {
	decoder, err := flac.NewDecoder(r)
	if err != nil {
		return AudioInfo{}, err
	}

	return AudioInfo{
		SampleRate:   decoder.SampleRate,
		TotalSamples: int(decoder.TotalSamples),
		NumChannels:  decoder.NChannels,
		BitDepth:     decoder.BitsPerSample,
	}, nil
}

func readFLAC(r io.Reader) (*Segment, error) {
	decoder, err := flac.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	if _, err := getAudioDivisor(decoder.BitsPerSample); err != nil {
		return nil, err
	}

	seg := &Segment{
		SampleRate: decoder.SampleRate,
		Channels:   decoder.NChannels,
		BitDepth:   decoder.BitsPerSample,
		Data:       make([]int, 0, int(decoder.TotalSamples)*decoder.NChannels),
	}

	bytesPerSample := decoder.BitsPerSample / 8
	for {
		frame, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("decoding FLAC frame: %w", err)
		}

		for i := 0; i+bytesPerSample <= len(frame); i += bytesPerSample {
			seg.Data = append(seg.Data, decodeSample(frame[i:], decoder.BitsPerSample))
		}
	}

	return seg, nil
}

// decodeSample reads one little-endian signed sample.
func decodeSample(b []byte, bitsPerSample int) int {
	switch bitsPerSample {
	case 8:
		return int(int8(b[0]))
	case 16:
		return int(int16(binary.LittleEndian.Uint16(b)))
	case 24:
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		// sign-extend from bit 23
		return int(v<<8) >> 8
	default:
		return int(int32(binary.LittleEndian.Uint32(b)))
	}
}
