package pitchsource

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultFrameInterval spaces frames that carry no timestamp.
const DefaultFrameInterval = 20 * time.Millisecond

// LineSource parses whitespace-separated text frames, one per line:
//
//	frequency clarity
//	seconds frequency clarity
//
// Blank lines and lines starting with # are skipped. Frames without a
// timestamp are spaced by the interval.
type LineSource struct {
	scanner  *bufio.Scanner
	interval time.Duration
	line     int
	count    int
}

// NewLineSource reads frames from r.
func NewLineSource(r io.Reader, interval time.Duration) *LineSource {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &LineSource{scanner: bufio.NewScanner(r), interval: interval}
}

// Next implements Source.
func (s *LineSource) Next(ctx context.Context) (Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return Frame{}, fmt.Errorf("failed to read frames: %w", err)
			}
			return Frame{}, io.EOF
		}
		s.line++
		text := strings.TrimSpace(s.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		frame, err := s.parse(text)
		if err != nil {
			return Frame{}, fmt.Errorf("line %d: %w", s.line, err)
		}
		s.count++
		return frame, nil
	}
}

func (s *LineSource) parse(text string) (Frame, error) {
	fields := strings.Fields(text)
	values := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil || !isFinite(v) {
			return Frame{}, fmt.Errorf("invalid number %q", field)
		}
		values[i] = v
	}
	switch len(values) {
	case 2:
		return NewFrame(time.Duration(s.count)*s.interval, values[0], clamp01(values[1])), nil
	case 3:
		return NewFrame(secondsToDuration(values[0]), values[1], clamp01(values[2])), nil
	default:
		return Frame{}, fmt.Errorf("expected 2 or 3 fields, got %d", len(values))
	}
}

func secondsToDuration(sec float64) time.Duration {
	return time.Duration(math.Round(sec * float64(time.Second)))
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
