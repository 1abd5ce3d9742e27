package pitchsource

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/verte-zerg/pitchup/internal/model"
)

// Engine is the part of a challenge engine that Replay drives.
type Engine interface {
	ProcessSample(model.PitchSample) error
	CheckTimeout() bool
	State() model.ChallengeState
	Config() model.Config
}

// VirtualClock is a settable time source for replays.
type VirtualClock struct {
	mu   sync.Mutex
	base time.Time
	at   time.Duration
}

// NewVirtualClock starts at base.
func NewVirtualClock(base time.Time) *VirtualClock {
	return &VirtualClock{base: base}
}

// Now returns base plus the current offset.
func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.base.Add(c.at)
}

// Set moves the clock to offset d. The clock never goes backwards.
func (c *VirtualClock) Set(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > c.at {
		c.at = d
	}
}

// Advance moves the clock forward by d.
func (c *VirtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at += d
}

// Replay feeds a recorded take through an active engine whose clock is clock.
// Each frame sets the clock to its timestamp, so scoring depends only on the
// recording. When the take ends first, the remaining targets time out.
// It returns the number of frames consumed.
func Replay(ctx context.Context, src Source, eng Engine, clock *VirtualClock) (int, error) {
	consumed := 0
	for eng.State().Active {
		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return consumed, err
		}
		consumed++
		clock.Set(frame.Time)
		if !frame.Voiced() {
			eng.CheckTimeout()
			continue
		}
		if err := eng.ProcessSample(frame.Sample()); err != nil {
			return consumed, err
		}
	}
	step := time.Duration(eng.Config().MaxAttemptMs) * time.Millisecond
	for eng.State().Active {
		if err := ctx.Err(); err != nil {
			return consumed, err
		}
		clock.Advance(step)
		eng.CheckTimeout()
	}
	return consumed, nil
}
