// Package scoring computes stability and accuracy of a pitch sample window.
package scoring

import (
	"math"

	"github.com/verte-zerg/pitchup/internal/notemath"
)

// DefaultMinSamples is the smallest window that yields a stability score.
const DefaultMinSamples = 5

// accuracyPenalty maps mean relative error to lost accuracy; 10% error scores 0.
const accuracyPenalty = 10.0

// Stability returns the fraction of samples whose pitch class matches target.
// Windows smaller than minSamples score 0.
func Stability(window []float64, target notemath.Note, minSamples int) float64 {
	if minSamples < 1 {
		minSamples = 1
	}
	if len(window) < minSamples {
		return 0
	}
	want := notemath.StripOctave(target)
	matching := 0
	for _, f := range window {
		if f <= 0 {
			continue
		}
		if notemath.PitchClassOf(f) == want {
			matching++
		}
	}
	return float64(matching) / float64(len(window))
}

// Accuracy scores the mean relative frequency error against the exact target
// frequency, in [0,1].
func Accuracy(window []float64, target notemath.Note) float64 {
	if len(window) == 0 {
		return 0
	}
	targetFreq := notemath.ToFrequency(target)
	var totalErr float64
	for _, f := range window {
		totalErr += math.Abs(f-targetFreq) / targetFreq
	}
	avgErr := totalErr / float64(len(window))
	return math.Max(0, 1-avgErr*accuracyPenalty)
}

// AverageFrequency returns the mean of the window, or 0 when empty.
func AverageFrequency(window []float64) float64 {
	if len(window) == 0 {
		return 0
	}
	var sum float64
	for _, f := range window {
		sum += f
	}
	return sum / float64(len(window))
}

// CentDifference returns the cents deviation of the window's mean frequency
// when it lands on the target pitch class.
func CentDifference(window []float64, target notemath.Note) (int, bool) {
	avg := AverageFrequency(window)
	if avg <= 0 {
		return 0, false
	}
	note, cents := notemath.FromFrequency(avg)
	if !notemath.SamePitchClass(note, target) {
		return 0, false
	}
	return cents, true
}
