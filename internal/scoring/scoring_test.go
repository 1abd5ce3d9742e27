package scoring

import (
	"math"
	"testing"

	"github.com/verte-zerg/pitchup/internal/notemath"
)

func repeat(f float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f
	}
	return out
}

func TestStabilityRequiresMinSamples(t *testing.T) {
	target := notemath.MustParseNote("A4")
	if got := Stability(repeat(440, 4), target, DefaultMinSamples); got != 0 {
		t.Fatalf("expected 0 below min samples, got %v", got)
	}
	if got := Stability(repeat(440, 5), target, DefaultMinSamples); got != 1 {
		t.Fatalf("expected 1 at min samples, got %v", got)
	}
}

func TestStabilityIgnoresOctave(t *testing.T) {
	target := notemath.MustParseNote("C4")
	c3 := notemath.ToFrequency(notemath.MustParseNote("C3"))
	window := append(repeat(c3, 4), 440)
	if got := Stability(window, target, DefaultMinSamples); math.Abs(got-0.8) > 1e-9 {
		t.Fatalf("expected 0.8, got %v", got)
	}
}

func TestAccuracyExactTarget(t *testing.T) {
	target := notemath.MustParseNote("E4")
	f := notemath.ToFrequency(target)
	if got := Accuracy(repeat(f, 6), target); math.Abs(got-1) > 1e-9 {
		t.Fatalf("expected 1, got %v", got)
	}
}

func TestAccuracyPenalty(t *testing.T) {
	target := notemath.MustParseNote("A4")
	// 5% sharp loses half the score.
	if got := Accuracy([]float64{462}, target); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("expected 0.5, got %v", got)
	}
	// 10% or more is floored at zero.
	if got := Accuracy([]float64{484, 500}, target); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := Accuracy(nil, target); got != 0 {
		t.Fatalf("expected 0 for empty window, got %v", got)
	}
}

func TestAccuracyPenalizesWrongOctave(t *testing.T) {
	target := notemath.MustParseNote("A4")
	if got := Accuracy([]float64{220, 220, 220}, target); got != 0 {
		t.Fatalf("expected 0 for an octave below, got %v", got)
	}
}

func TestCentDifference(t *testing.T) {
	target := notemath.MustParseNote("A4")
	sharp := 440 * math.Pow(2, 12.0/1200)
	cents, ok := CentDifference([]float64{sharp, sharp}, target)
	if !ok || cents != 12 {
		t.Fatalf("expected +12 cents, got %d ok=%v", cents, ok)
	}
	if _, ok := CentDifference([]float64{261.63}, target); ok {
		t.Fatalf("expected no cent difference off pitch class")
	}
	if _, ok := CentDifference(nil, target); ok {
		t.Fatalf("expected no cent difference for empty window")
	}
}
