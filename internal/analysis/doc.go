// Package analysis post-processes recorded runs.
//
//   - [PowerSpectrum]: one-sided amplitude spectrum of a sampled series
//   - [DominantFrequency]: strongest non-DC bin of a spectrum
//   - [Crossings]: interpolated times where a series rises through a level
//   - [Trajectory]: pairs of two history columns, e.g. a V-I curve
//
// Spectra are computed with go-dsp, which handles lengths that are not a
// power of two.
package analysis
