package stats

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/pitchup/internal/model"
	"github.com/verte-zerg/pitchup/internal/notemath"
)

func TestAggregateScoresSuccessFraction(t *testing.T) {
	attempts := make([]model.NoteAttempt, 10)
	for i := range attempts {
		attempts[i] = model.NoteAttempt{
			TargetNote:     notemath.Note{PitchClass: i % 12, Octave: 4},
			TimeToReachMs:  10000,
			StabilityScore: 0,
			AccuracyScore:  0,
		}
		if i < 6 {
			attempts[i].ReachedNote = true
			attempts[i].TimeToReachMs = int64(1000 * (i + 1))
			attempts[i].StabilityScore = 100
			attempts[i].AccuracyScore = 50
		}
	}
	now := time.Unix(100, 0)
	r := Aggregate(attempts, 10*time.Second, now)
	if r.TotalScore != 60 {
		t.Fatalf("expected score 60, got %v", r.TotalScore)
	}
	if r.AverageTimeToReach != 3500 {
		t.Fatalf("expected avg time 3500 over successes, got %v", r.AverageTimeToReach)
	}
	if r.AverageStability != 60 {
		t.Fatalf("expected stability mean over all attempts 60, got %v", r.AverageStability)
	}
	if r.AverageAccuracy != 30 {
		t.Fatalf("expected accuracy mean over all attempts 30, got %v", r.AverageAccuracy)
	}
	if !r.Date.Equal(now) {
		t.Fatalf("expected date %v, got %v", now, r.Date)
	}
	if r.SuccessCount() != 6 {
		t.Fatalf("expected 6 successes, got %d", r.SuccessCount())
	}
}

func TestAggregateZeroSuccessesFallsBackToMaxTime(t *testing.T) {
	attempts := []model.NoteAttempt{
		{TargetNote: notemath.MustParseNote("C4"), TimeToReachMs: 10000},
		{TargetNote: notemath.MustParseNote("D4"), TimeToReachMs: 10000, StabilityScore: 20},
	}
	r := Aggregate(attempts, 10*time.Second, time.Now())
	if r.TotalScore != 0 {
		t.Fatalf("expected score 0, got %v", r.TotalScore)
	}
	if r.AverageTimeToReach != 10000 {
		t.Fatalf("expected fallback to 10000ms, got %v", r.AverageTimeToReach)
	}
	if r.AverageStability != 10 {
		t.Fatalf("expected stability 10, got %v", r.AverageStability)
	}
}

func TestAggregateDoesNotRoundScore(t *testing.T) {
	attempts := []model.NoteAttempt{{ReachedNote: true}, {}, {}}
	r := Aggregate(attempts, time.Second, time.Now())
	if math.Abs(r.TotalScore-100.0/3) > 1e-9 {
		t.Fatalf("expected unrounded 33.33..., got %v", r.TotalScore)
	}
}

func TestAggregateCopiesAttempts(t *testing.T) {
	cents := 5
	attempts := []model.NoteAttempt{{ReachedNote: true, CentDifference: &cents}}
	r := Aggregate(attempts, time.Second, time.Now())
	*attempts[0].CentDifference = 40
	attempts[0].ReachedNote = false
	if !r.Attempts[0].ReachedNote || *r.Attempts[0].CentDifference != 5 {
		t.Fatalf("result attempts alias caller slice: %+v", r.Attempts[0])
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 100}); got != " @" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{5, 5, 5}); got != "+++" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
	if Sparkline(nil) != "" {
		t.Fatalf("expected empty sparkline")
	}
}

func TestRenderResultListsAttempts(t *testing.T) {
	cents := -12
	r := model.ChallengeResult{
		ID:   7,
		Date: time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local),
		Attempts: []model.NoteAttempt{
			{TargetNote: notemath.MustParseNote("A4"), ReachedNote: true, TimeToReachMs: 1250, StabilityScore: 95, AccuracyScore: 88, AverageFrequency: 437.2, CentDifference: &cents},
			{TargetNote: notemath.MustParseNote("C#3"), TimeToReachMs: 10000},
		},
		TotalScore:         50,
		AverageTimeToReach: 1250,
	}
	var buf bytes.Buffer
	if err := RenderResult(&buf, r); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Result #7", "Score 50.0% (1/2)", "1.250s", "A4", "C#3", "-12", "10.000s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "No results found.") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestRenderNoteTableWeakestFirst(t *testing.T) {
	var buf bytes.Buffer
	aggs := []model.NoteAggregate{
		{PitchClass: 0, Attempts: 4, Reached: 4},
		{PitchClass: 9, Attempts: 4, Reached: 1},
	}
	if err := RenderNoteTable(&buf, aggs); err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if !strings.HasPrefix(lines[2], "A ") || !strings.HasPrefix(lines[3], "C ") {
		t.Fatalf("expected A before C:\n%s", buf.String())
	}
}

func TestNoteRowWithoutReaches(t *testing.T) {
	row := NoteRow(model.NoteAggregate{PitchClass: 1, Attempts: 2, StabilitySum: 30, AccuracySum: 10})
	if row[0] != "C#" || row[1] != "0.0%" || row[2] != "-" || row[3] != "15.0%" || row[4] != "5.0%" {
		t.Fatalf("unexpected row %v", row)
	}
}

func TestRenderCurvesWithWidth(t *testing.T) {
	results := []model.ChallengeResult{
		{TotalScore: 10, AverageStability: 20, AverageAccuracy: 30},
		{TotalScore: 90, AverageStability: 80, AverageAccuracy: 70},
	}
	var buf bytes.Buffer
	if err := RenderCurvesWithWidth(&buf, results, 1, 60); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Learning Curves", "Score", "Stability", "Accuracy", " 10.0.. 90.0"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestResample(t *testing.T) {
	got := Resample([]float64{1, 3, 5, 7}, 2)
	if len(got) != 2 || got[0] != 2 || got[1] != 6 {
		t.Fatalf("unexpected resample %v", got)
	}
	if got := Resample([]float64{1, 2}, 10); len(got) != 2 {
		t.Fatalf("expected no upsampling, got %v", got)
	}
}

func TestCurveWidthForClampsToMinimum(t *testing.T) {
	if w := CurveWidthFor(5); w != minCurveWidth {
		t.Fatalf("expected %d, got %d", minCurveWidth, w)
	}
	if w := CurveWidthFor(0); w != terminalWidthBackup-curveLabelWidth-curveRangeWidth-2 {
		t.Fatalf("unexpected fallback width %d", w)
	}
}
