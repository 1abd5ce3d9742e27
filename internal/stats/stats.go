// Package stats contains result aggregation, statistics, and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/pitchup/internal/model"
	"github.com/verte-zerg/pitchup/internal/notemath"
)

const sparkChars = " .:-=+*#%@"

// Aggregate reduces a closed attempt list into a session result.
// Average time to reach covers successful attempts only and falls back to
// maxAttempt when nothing was reached.
func Aggregate(attempts []model.NoteAttempt, maxAttempt time.Duration, now time.Time) model.ChallengeResult {
	result := model.ChallengeResult{
		Date:               now,
		Attempts:           model.CloneAttempts(attempts),
		AverageTimeToReach: float64(maxAttempt.Milliseconds()),
	}
	if len(attempts) == 0 {
		return result
	}
	var successes int
	var timeSum int64
	var stabilitySum, accuracySum float64
	for _, a := range attempts {
		if a.ReachedNote {
			successes++
			timeSum += a.TimeToReachMs
		}
		stabilitySum += a.StabilityScore
		accuracySum += a.AccuracyScore
	}
	n := float64(len(attempts))
	result.TotalScore = 100 * float64(successes) / n
	if successes > 0 {
		result.AverageTimeToReach = float64(timeSum) / float64(successes)
	}
	result.AverageStability = stabilitySum / n
	result.AverageAccuracy = accuracySum / n
	return result
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := minMax(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints a summary block for results.
func RenderSummary(w io.Writer, results []model.ChallengeResult) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No results found.")
		return err
	}
	var totalScore, totalTime, totalStab, totalAcc float64
	best := 0.0
	for _, r := range results {
		totalScore += r.TotalScore
		totalTime += r.AverageTimeToReach
		totalStab += r.AverageStability
		totalAcc += r.AverageAccuracy
		if r.TotalScore > best {
			best = r.TotalScore
		}
	}
	count := float64(len(results))
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", len(results)),
		fmt.Sprintf("Avg Score: %.1f%%", totalScore/count),
		fmt.Sprintf("Best Score: %.1f%%", best),
		fmt.Sprintf("Avg Time to Reach: %s", FormatMs(totalTime/count)),
		fmt.Sprintf("Avg Stability: %.1f%%", totalStab/count),
		fmt.Sprintf("Avg Accuracy: %.1f%%", totalAcc/count),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderResult prints one result with every attempt.
func RenderResult(w io.Writer, r model.ChallengeResult) error {
	header := fmt.Sprintf("Result #%d  %s", r.ID, r.Date.Local().Format("2006-01-02 15:04"))
	if r.ID == 0 {
		header = fmt.Sprintf("Result (unsaved)  %s", r.Date.Local().Format("2006-01-02 15:04"))
	}
	lines := []string{
		header,
		fmt.Sprintf("Score %.1f%% (%d/%d)  Avg time %s  Stability %.1f%%  Accuracy %.1f%%",
			r.TotalScore, r.SuccessCount(), len(r.Attempts), FormatMs(r.AverageTimeToReach),
			r.AverageStability, r.AverageAccuracy),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	headers := []string{"#", "Target", "Reached", "Time", "Stability", "Accuracy", "Avg Hz", "Cents"}
	rows := make([][]string, 0, len(r.Attempts))
	for i, a := range r.Attempts {
		rows = append(rows, AttemptRow(i, a))
	}
	rightAlign := map[int]bool{0: true, 3: true, 4: true, 5: true, 6: true, 7: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// AttemptRow formats an attempt as table cells.
func AttemptRow(i int, a model.NoteAttempt) []string {
	reached := "no"
	if a.ReachedNote {
		reached = "yes"
	}
	cents := "-"
	if a.CentDifference != nil {
		cents = fmt.Sprintf("%+d", *a.CentDifference)
	}
	return []string{
		fmt.Sprintf("%d", i+1),
		a.TargetNote.String(),
		reached,
		FormatMs(float64(a.TimeToReachMs)),
		fmt.Sprintf("%.0f%%", a.StabilityScore),
		fmt.Sprintf("%.0f%%", a.AccuracyScore),
		fmt.Sprintf("%.1f", a.AverageFrequency),
		cents,
	}
}

// RenderNoteTable prints per-pitch-class aggregates, weakest first.
func RenderNoteTable(w io.Writer, aggs []model.NoteAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No note stats found.")
		return err
	}
	rows := make([]model.NoteAggregate, len(aggs))
	copy(rows, aggs)
	sort.Slice(rows, func(i, j int) bool {
		si, sj := SuccessRate(rows[i]), SuccessRate(rows[j])
		if si == sj {
			return rows[i].PitchClass < rows[j].PitchClass
		}
		return si < sj
	})

	if _, err := fmt.Fprintln(w, "Per-Note (Windowed)"); err != nil {
		return err
	}
	headers := []string{"Note", "Success", "Avg Time", "Stability", "Accuracy", "Reached", "Attempts"}
	tableRows := make([][]string, 0, len(rows))
	for _, agg := range rows {
		tableRows = append(tableRows, NoteRow(agg))
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true}
	for _, line := range formatTable(headers, tableRows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// NoteRow formats a note aggregate as table cells.
func NoteRow(agg model.NoteAggregate) []string {
	avgTime := "-"
	if agg.Reached > 0 {
		avgTime = FormatMs(float64(agg.TimeSumMs) / float64(agg.Reached))
	}
	stab, acc := 0.0, 0.0
	if agg.Attempts > 0 {
		stab = agg.StabilitySum / float64(agg.Attempts)
		acc = agg.AccuracySum / float64(agg.Attempts)
	}
	return []string{
		notemath.PitchClassName(agg.PitchClass),
		fmt.Sprintf("%.1f%%", SuccessRate(agg)*100),
		avgTime,
		fmt.Sprintf("%.1f%%", stab),
		fmt.Sprintf("%.1f%%", acc),
		fmt.Sprintf("%d", agg.Reached),
		fmt.Sprintf("%d", agg.Attempts),
	}
}

// SuccessRate returns the reached fraction for a note aggregate.
func SuccessRate(agg model.NoteAggregate) float64 {
	if agg.Attempts == 0 {
		return 1
	}
	return float64(agg.Reached) / float64(agg.Attempts)
}

// FormatMs renders milliseconds as seconds with three decimals, e.g. "1.250s".
func FormatMs(ms float64) string {
	return fmt.Sprintf("%.3fs", ms/1000)
}

func minMax(values []float64) (float64, float64) {
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal
}
