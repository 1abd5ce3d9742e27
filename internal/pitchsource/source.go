// Package pitchsource reads pitch estimates from external detectors.
package pitchsource

import (
	"context"
	"io"
	"time"

	"github.com/verte-zerg/pitchup/internal/model"
	"github.com/verte-zerg/pitchup/internal/notemath"
)

// Frame is one pitch estimate. Note and Cents are informational; the engine
// derives its own from Frequency.
type Frame struct {
	Time      time.Duration
	Note      string
	Frequency float64
	Clarity   float64
	Cents     int
}

// Voiced reports whether the frame carries a usable frequency.
func (f Frame) Voiced() bool {
	return f.Frequency > 0
}

// Sample converts the frame to engine input.
func (f Frame) Sample() model.PitchSample {
	return model.PitchSample{Frequency: f.Frequency, Clarity: f.Clarity}
}

// Source yields frames in time order. Next returns io.EOF when exhausted.
type Source interface {
	Next(ctx context.Context) (Frame, error)
}

// Detector estimates pitch from a mono signal buffer. Hosts with an
// in-process estimator implement it and turn results into frames with NewFrame.
type Detector interface {
	Detect(buf []float32, sampleRate int) (frequency, clarity float64)
}

// NewFrame builds a frame and fills in its note name and cents.
// Non-positive or non-finite frequencies yield a silent frame.
func NewFrame(at time.Duration, frequency, clarity float64) Frame {
	if frequency <= 0 || !isFinite(frequency) {
		return Frame{Time: at}
	}
	note, cents := notemath.FromFrequency(frequency)
	return Frame{
		Time:      at,
		Note:      note.String(),
		Frequency: frequency,
		Clarity:   clarity,
		Cents:     cents,
	}
}

// FrameList serves frames from memory.
type FrameList struct {
	frames []Frame
	pos    int
}

// NewFrameList wraps frames.
func NewFrameList(frames []Frame) *FrameList {
	return &FrameList{frames: frames}
}

// Next implements Source.
func (l *FrameList) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if l.pos >= len(l.frames) {
		return Frame{}, io.EOF
	}
	f := l.frames[l.pos]
	l.pos++
	return f, nil
}

// Len returns the total number of frames.
func (l *FrameList) Len() int {
	return len(l.frames)
}
