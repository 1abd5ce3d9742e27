package stats

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/verte-zerg/pitchup/internal/model"
)

const (
	curveLabelWidth     = 10
	curveRangeWidth     = 14
	minCurveWidth       = 10
	terminalWidthBackup = 80
)

// Series represents a named data series.
type Series struct {
	Name   string
	Values []float64
}

// RenderCurves prints learning curves for score, stability, and accuracy,
// sized to the terminal when stdout is one.
func RenderCurves(w io.Writer, results []model.ChallengeResult, window int) error {
	return RenderCurvesWithWidth(w, results, window, TerminalWidth())
}

// RenderCurvesWithWidth prints learning curves sized to a given total width.
func RenderCurvesWithWidth(w io.Writer, results []model.ChallengeResult, window, totalWidth int) error {
	if len(results) == 0 {
		return nil
	}
	score := make([]float64, len(results))
	stab := make([]float64, len(results))
	acc := make([]float64, len(results))
	for i, r := range results {
		score[i] = r.TotalScore
		stab[i] = r.AverageStability
		acc[i] = r.AverageAccuracy
	}
	return RenderSeries(w, "Learning Curves", []Series{
		{Name: "Score", Values: MovingAverage(score, window)},
		{Name: "Stability", Values: MovingAverage(stab, window)},
		{Name: "Accuracy", Values: MovingAverage(acc, window)},
	}, totalWidth)
}

// RenderSeries prints one sparkline row per series with its min and max.
func RenderSeries(w io.Writer, title string, series []Series, totalWidth int) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	width := CurveWidthFor(totalWidth)
	for _, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		values := Resample(s.Values, width)
		lo, hi := minMax(s.Values)
		if _, err := fmt.Fprintf(w, "%-*s %s  %5.1f..%5.1f\n", curveLabelWidth, s.Name, Sparkline(values), lo, hi); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// CurveWidthFor returns the sparkline width that fits in totalWidth columns.
func CurveWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		totalWidth = terminalWidthBackup
	}
	width := totalWidth - curveLabelWidth - curveRangeWidth - 2
	if width < minCurveWidth {
		width = minCurveWidth
	}
	return width
}

// Resample bucket-averages values down to at most width points.
func Resample(values []float64, width int) []float64 {
	if width <= 0 || len(values) <= width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		start := i * len(values) / width
		end := (i + 1) * len(values) / width
		if end <= start {
			end = start + 1
		}
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

// TerminalWidth returns the width of stdout, or a fallback when it is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}
