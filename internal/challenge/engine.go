// Package challenge implements the pitch-matching session state machine.
//
// An Engine owns one ChallengeState. Callers feed it pitch samples one at a
// time; after every call it publishes an immutable snapshot to subscribers.
// Elapsed time always comes from the injected clock, so arbitrary call rates
// and gaps between samples are fine.
package challenge

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/verte-zerg/pitchup/internal/event"
	"github.com/verte-zerg/pitchup/internal/generator"
	"github.com/verte-zerg/pitchup/internal/logging"
	"github.com/verte-zerg/pitchup/internal/model"
	"github.com/verte-zerg/pitchup/internal/notemath"
	"github.com/verte-zerg/pitchup/internal/scoring"
	"github.com/verte-zerg/pitchup/internal/stats"
)

var (
	// ErrSessionActive is returned when starting while a session runs.
	ErrSessionActive = errors.New("challenge session already active")
	// ErrInvalidFrequency is returned for non-positive or non-finite frequencies.
	ErrInvalidFrequency = errors.New("frequency must be positive and finite")
	// ErrNoNotes is returned when a session would have no targets.
	ErrNoNotes = errors.New("challenge needs at least one target note")
)

// Engine is a single challenge session state machine.
type Engine struct {
	mu    sync.Mutex
	cfg   model.Config
	state model.ChallengeState

	now        func() time.Time
	gen        *generator.Generator
	weak       map[int]struct{}
	weakFactor float64
	onComplete func(model.ChallengeResult)
	log        *logging.Logger
	feed       *event.Feed[model.ChallengeState]
}

// New creates an idle engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		cfg:  DefaultConfig(),
		now:  time.Now,
		log:  logging.NopLogger(),
		feed: event.NewFeed[model.ChallengeState](),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.gen == nil {
		e.gen = generator.New()
	}
	e.state = model.ChallengeState{
		StabilityThreshold: e.cfg.StabilityThreshold,
		AccuracyThreshold:  e.cfg.AccuracyThreshold,
	}
	return e
}

// Config returns the effective settings.
func (e *Engine) Config() model.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg := e.cfg
	cfg.Octaves = append([]int(nil), e.cfg.Octaves...)
	cfg.FixedNotes = append([]notemath.Note(nil), e.cfg.FixedNotes...)
	return cfg
}

// SetWeakNotes biases future random targets toward the given pitch classes.
// An empty set restores uniform draws.
func (e *Engine) SetWeakNotes(set map[int]struct{}, factor float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.weak = make(map[int]struct{}, len(set))
	for pc := range set {
		e.weak[pc] = struct{}{}
	}
	e.weakFactor = factor
}

// Start begins a session with freshly drawn targets, or the configured fixed
// notes when there are any.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.state.Active {
		e.mu.Unlock()
		return ErrSessionActive
	}
	notes := append([]notemath.Note(nil), e.cfg.FixedNotes...)
	if len(notes) == 0 {
		notes = e.gen.GenerateWeighted(e.cfg.Notes, e.cfg.Octaves, e.weak, e.weakFactor)
	}
	snap, err := e.startLocked(notes)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.feed.Publish(snap)
	return nil
}

// StartWith begins a session with the given targets.
func (e *Engine) StartWith(notes []notemath.Note) error {
	e.mu.Lock()
	if e.state.Active {
		e.mu.Unlock()
		return ErrSessionActive
	}
	snap, err := e.startLocked(append([]notemath.Note(nil), notes...))
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.feed.Publish(snap)
	return nil
}

// Restart discards any running session without saving it and starts a new one.
func (e *Engine) Restart() error {
	e.mu.Lock()
	e.state.Active = false
	e.mu.Unlock()
	return e.Start()
}

func (e *Engine) startLocked(notes []notemath.Note) (model.ChallengeState, error) {
	if len(notes) == 0 {
		return model.ChallengeState{}, ErrNoNotes
	}
	now := e.now()
	e.state = model.ChallengeState{
		Active:             true,
		Notes:              notes,
		StartTime:          now,
		NoteStartTime:      now,
		StabilityThreshold: e.cfg.StabilityThreshold,
		AccuracyThreshold:  e.cfg.AccuracyThreshold,
	}
	e.log.Info("session started", "notes", len(notes))
	return e.state.Clone(), nil
}

// Cancel stops the session without producing a result.
func (e *Engine) Cancel() {
	e.mu.Lock()
	wasActive := e.state.Active
	e.state.Active = false
	snap := e.state.Clone()
	e.mu.Unlock()
	if wasActive {
		e.log.Info("session cancelled", "index", snap.CurrentNoteIndex)
	}
	e.feed.Publish(snap)
}

// State returns the current snapshot.
func (e *Engine) State() model.ChallengeState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Subscribe registers fn for snapshots. It receives the latest snapshot
// immediately when one exists.
func (e *Engine) Subscribe(fn func(model.ChallengeState)) func() {
	return e.feed.Subscribe(fn)
}

// ProcessSample feeds one pitch estimate. It is a no-op while idle.
func (e *Engine) ProcessSample(s model.PitchSample) error {
	e.mu.Lock()
	if !e.state.Active {
		e.mu.Unlock()
		return nil
	}
	if s.Frequency <= 0 || math.IsNaN(s.Frequency) || math.IsInf(s.Frequency, 0) {
		e.mu.Unlock()
		return ErrInvalidFrequency
	}
	result, done := e.processLocked(s)
	snap := e.state.Clone()
	e.mu.Unlock()

	e.publish(snap, result, done)
	return nil
}

// CheckTimeout closes the open target when its time budget is spent, for
// hosts whose detector goes silent. It reports whether an attempt closed.
func (e *Engine) CheckTimeout() bool {
	e.mu.Lock()
	if !e.state.Active {
		e.mu.Unlock()
		return false
	}
	closed := false
	var (
		result model.ChallengeResult
		done   bool
	)
	if e.elapsedMs(e.now()) >= e.cfg.MaxAttemptMs {
		result, done = e.closeLocked(true)
		closed = true
	}
	snap := e.state.Clone()
	e.mu.Unlock()

	e.publish(snap, result, done)
	return closed
}

func (e *Engine) processLocked(s model.PitchSample) (model.ChallengeResult, bool) {
	target := e.state.Notes[e.state.CurrentNoteIndex]
	elapsed := e.elapsedMs(e.now())

	usable := s.Clarity > e.cfg.ClarityFloor
	if usable {
		// Replaced rather than appended in place so earlier snapshots keep their window.
		window := make([]float64, len(e.state.FrequencySamples), len(e.state.FrequencySamples)+1)
		copy(window, e.state.FrequencySamples)
		e.state.FrequencySamples = append(window, s.Frequency)
	}
	// The clarity floor gates the window and opening an attempt, not the match test.
	detected, _ := notemath.FromFrequency(s.Frequency)
	matches := notemath.SamePitchClass(detected, target)

	if e.state.CurrentAttempt == nil && usable {
		e.state.CurrentAttempt = &model.NoteAttempt{
			TargetNote:       target,
			ReachedNote:      matches,
			TimeToReachMs:    elapsed,
			AverageFrequency: s.Frequency,
		}
	} else if e.state.CurrentAttempt != nil && matches && !e.state.CurrentAttempt.ReachedNote {
		e.state.CurrentAttempt.ReachedNote = true
		e.state.CurrentAttempt.TimeToReachMs = elapsed
	}

	stability := scoring.Stability(e.state.FrequencySamples, target, e.cfg.MinSamples)
	timedOut := elapsed >= e.cfg.MaxAttemptMs
	if (stability >= e.cfg.StabilityThreshold && matches) || timedOut {
		return e.closeLocked(timedOut)
	}
	return model.ChallengeResult{}, false
}

// closeLocked freezes the current attempt, advances to the next target, and
// aggregates the result after the last one.
func (e *Engine) closeLocked(timedOut bool) (model.ChallengeResult, bool) {
	target := e.state.Notes[e.state.CurrentNoteIndex]
	var attempt model.NoteAttempt
	if cur := e.state.CurrentAttempt; cur != nil {
		window := e.state.FrequencySamples
		attempt = cur.Clone()
		attempt.StabilityScore = scoring.Stability(window, target, e.cfg.MinSamples) * 100
		attempt.AccuracyScore = scoring.Accuracy(window, target) * 100
		attempt.AverageFrequency = scoring.AverageFrequency(window)
		if cents, ok := scoring.CentDifference(window, target); ok {
			attempt.CentDifference = &cents
		}
	} else {
		attempt = model.NoteAttempt{
			TargetNote:    target,
			TimeToReachMs: e.cfg.MaxAttemptMs,
		}
	}

	attempts := make([]model.NoteAttempt, len(e.state.Attempts), len(e.state.Attempts)+1)
	copy(attempts, e.state.Attempts)
	e.state.Attempts = append(attempts, attempt)
	e.state.CurrentNoteIndex++
	e.state.CurrentAttempt = nil
	e.state.FrequencySamples = nil
	e.state.NoteStartTime = e.now()

	e.log.Debug("attempt closed",
		"target", target.String(),
		"reached", attempt.ReachedNote,
		"timed_out", timedOut,
		"time_ms", attempt.TimeToReachMs,
		"stability", attempt.StabilityScore,
		"accuracy", attempt.AccuracyScore,
	)

	if e.state.CurrentNoteIndex < len(e.state.Notes) {
		return model.ChallengeResult{}, false
	}
	result := stats.Aggregate(e.state.Attempts, time.Duration(e.cfg.MaxAttemptMs)*time.Millisecond, e.now())
	e.state.Active = false
	e.log.Info("session complete",
		"score", result.TotalScore,
		"avg_time_ms", result.AverageTimeToReach,
		"avg_stability", result.AverageStability,
		"avg_accuracy", result.AverageAccuracy,
	)
	return result, true
}

func (e *Engine) publish(snap model.ChallengeState, result model.ChallengeResult, done bool) {
	e.feed.Publish(snap)
	if done && e.onComplete != nil {
		e.onComplete(result)
	}
}

func (e *Engine) elapsedMs(now time.Time) int64 {
	return now.Sub(e.state.NoteStartTime).Milliseconds()
}
