package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

var (
	ErrTooShort  = errors.New("analysis: series too short")
	ErrNonFinite = errors.New("analysis: series contains NaN or Inf")
	ErrBadStep   = errors.New("analysis: sample step must be positive")
)

type Spectrum struct {
	Frequencies []float64 `json:"frequencies"`
	Amplitudes  []float64 `json:"amplitudes"`
}

// PowerSpectrum returns the one-sided amplitude spectrum of samples taken
// every dt seconds. With hann set, a Hann window is applied first.
func PowerSpectrum(samples []float64, dt float64, hann bool) (Spectrum, error) {
	n := len(samples)
	if n < 2 {
		return Spectrum{}, ErrTooShort
	}
	if dt <= 0 {
		return Spectrum{}, ErrBadStep
	}
	x := make([]float64, n)
	for i, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Spectrum{}, ErrNonFinite
		}
		x[i] = v
	}
	if hann {
		window.Apply(x, window.Hann)
	}

	coeffs := fft.FFTReal(x)
	bins := n/2 + 1
	s := Spectrum{
		Frequencies: make([]float64, bins),
		Amplitudes:  make([]float64, bins),
	}
	for k := 0; k < bins; k++ {
		amp := cmplx.Abs(coeffs[k]) / float64(n)
		if k != 0 && !(n%2 == 0 && k == n/2) {
			amp *= 2
		}
		s.Frequencies[k] = float64(k) / (float64(n) * dt)
		s.Amplitudes[k] = amp
	}
	return s, nil
}

// DominantFrequency returns the frequency and amplitude of the largest
// non-DC bin. ok is false when the spectrum has no such bin.
func DominantFrequency(s Spectrum) (freq, amp float64, ok bool) {
	for k := 1; k < len(s.Amplitudes); k++ {
		if s.Amplitudes[k] > amp {
			freq, amp, ok = s.Frequencies[k], s.Amplitudes[k], true
		}
	}
	return freq, amp, ok
}

// Crossings returns the linearly interpolated times at which series rises
// through level.
func Crossings(times, series []float64, level float64) []float64 {
	var out []float64
	for i := 1; i < len(series) && i < len(times); i++ {
		prev, curr := series[i-1], series[i]
		if !(prev < level && curr >= level) {
			continue
		}
		frac := (level - prev) / (curr - prev)
		if math.IsNaN(frac) || math.IsInf(frac, 0) {
			frac = 0.5
		}
		out = append(out, times[i-1]+frac*(times[i]-times[i-1]))
	}
	return out
}
