package challenge

import (
	"time"

	"github.com/verte-zerg/pitchup/internal/generator"
	"github.com/verte-zerg/pitchup/internal/logging"
	"github.com/verte-zerg/pitchup/internal/model"
	"github.com/verte-zerg/pitchup/internal/scoring"
)

// Default challenge settings.
const (
	DefaultNotes              = 10
	DefaultClarityFloor       = 0.8
	DefaultStabilityThreshold = 0.9
	DefaultAccuracyThreshold  = 10.0
	DefaultMaxAttemptMs       = 10000
)

// DefaultOctaves is the octave range targets are drawn from.
var DefaultOctaves = []int{3, 4, 5}

// DefaultConfig returns the engine defaults.
func DefaultConfig() model.Config {
	return model.Config{
		Notes:              DefaultNotes,
		Octaves:            append([]int(nil), DefaultOctaves...),
		ClarityFloor:       DefaultClarityFloor,
		StabilityThreshold: DefaultStabilityThreshold,
		AccuracyThreshold:  DefaultAccuracyThreshold,
		MaxAttemptMs:       DefaultMaxAttemptMs,
		MinSamples:         scoring.DefaultMinSamples,
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces the settings. Zero values keep their defaults.
func WithConfig(cfg model.Config) Option {
	return func(e *Engine) {
		if cfg.Notes > 0 {
			e.cfg.Notes = cfg.Notes
		}
		if len(cfg.Octaves) > 0 {
			e.cfg.Octaves = append([]int(nil), cfg.Octaves...)
		}
		if cfg.ClarityFloor > 0 {
			e.cfg.ClarityFloor = cfg.ClarityFloor
		}
		if cfg.StabilityThreshold > 0 {
			e.cfg.StabilityThreshold = cfg.StabilityThreshold
		}
		if cfg.AccuracyThreshold > 0 {
			e.cfg.AccuracyThreshold = cfg.AccuracyThreshold
		}
		if cfg.MaxAttemptMs > 0 {
			e.cfg.MaxAttemptMs = cfg.MaxAttemptMs
		}
		if cfg.MinSamples > 0 {
			e.cfg.MinSamples = cfg.MinSamples
		}
		if len(cfg.FixedNotes) > 0 {
			e.cfg.FixedNotes = cfg.FixedNotes
		}
	}
}

// WithNotes sets how many targets a session has.
func WithNotes(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.cfg.Notes = n
		}
	}
}

// WithOctaves sets the octaves targets are drawn from.
func WithOctaves(octaves ...int) Option {
	return func(e *Engine) {
		if len(octaves) > 0 {
			e.cfg.Octaves = append([]int(nil), octaves...)
		}
	}
}

// WithThresholds sets the stability fraction and accuracy tolerance in Hz.
func WithThresholds(stability, accuracyHz float64) Option {
	return func(e *Engine) {
		e.cfg.StabilityThreshold = stability
		e.cfg.AccuracyThreshold = accuracyHz
	}
}

// WithClarityFloor sets the clarity a sample must exceed to count.
func WithClarityFloor(floor float64) Option {
	return func(e *Engine) { e.cfg.ClarityFloor = floor }
}

// WithMaxAttempt sets the per-note time budget.
func WithMaxAttempt(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.cfg.MaxAttemptMs = d.Milliseconds()
		}
	}
}

// WithMinSamples sets the smallest window that yields a stability score.
func WithMinSamples(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.cfg.MinSamples = n
		}
	}
}

// WithClock injects the time source used for elapsed time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithGenerator injects the random target generator.
func WithGenerator(g *generator.Generator) Option {
	return func(e *Engine) {
		if g != nil {
			e.gen = g
		}
	}
}

// WithCompletionHandler registers fn to receive each completed result.
// It runs on the caller's goroutine after the final snapshot is published.
func WithCompletionHandler(fn func(model.ChallengeResult)) Option {
	return func(e *Engine) { e.onComplete = fn }
}

// WithLogger sets the engine logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.log = logging.OrNop(l).With("component", "challenge") }
}
