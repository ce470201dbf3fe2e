// Package dsp computes the time-frequency images rendered for each clip.
//
// Matrices are *mat.Dense with one row per frequency bin or mel band and one column per
// frame. Three pipelines are provided:
//
//   - Specgram: Hann-windowed power spectral density in dB on a linear frequency axis.
//   - MelSpectrogram followed by PCEN: magnitude mel spectrogram with per-channel energy
//     normalization.
//   - DenoiseWavelet: 2-D Haar wavelet shrinkage with BayesShrink thresholds, applied to a
//     PCEN image.
package dsp
