// Package myaudio loads recordings into memory, slices them by time and writes WAV clips.
//
// A Segment keeps the source sample rate, channel count and bit depth, so a clip cut
// from a 16-bit stereo file is written back as 16-bit stereo. Analysis helpers convert a
// segment to mono float64 samples and resample them for the spectrogram stages.
package myaudio
