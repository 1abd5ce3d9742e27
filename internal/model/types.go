// Package model defines shared data structures.
package model

import (
	"time"

	"github.com/verte-zerg/pitchup/internal/notemath"
)

// Config defines challenge settings.
type Config struct {
	Notes              int
	Octaves            []int
	ClarityFloor       float64
	StabilityThreshold float64
	AccuracyThreshold  float64
	MaxAttemptMs       int64
	MinSamples         int
	FixedNotes         []notemath.Note
	FocusWeak          bool
	WeakTop            int
	WeakFactor         float64
	WeakWindow         int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Since       *time.Time
	Last        int
	CurveWindow int
	Notes       string
}

// PitchSample is one pitch estimate from the external detector.
type PitchSample struct {
	Frequency float64
	Clarity   float64
}

// NoteAttempt is the scored effort to reach one target note.
type NoteAttempt struct {
	TargetNote       notemath.Note
	ReachedNote      bool
	TimeToReachMs    int64
	StabilityScore   float64
	AccuracyScore    float64
	AverageFrequency float64
	CentDifference   *int
}

// Clone returns a copy that shares no memory with a.
func (a NoteAttempt) Clone() NoteAttempt {
	if a.CentDifference != nil {
		c := *a.CentDifference
		a.CentDifference = &c
	}
	return a
}

// ChallengeState is a point-in-time snapshot of a session.
type ChallengeState struct {
	Active             bool
	CurrentNoteIndex   int
	Notes              []notemath.Note
	CurrentAttempt     *NoteAttempt
	Attempts           []NoteAttempt
	StartTime          time.Time
	NoteStartTime      time.Time
	FrequencySamples   []float64
	StabilityThreshold float64
	AccuracyThreshold  float64
}

// Clone returns a deep copy of the state.
func (s ChallengeState) Clone() ChallengeState {
	out := s
	out.Notes = append([]notemath.Note(nil), s.Notes...)
	out.Attempts = CloneAttempts(s.Attempts)
	out.FrequencySamples = append([]float64(nil), s.FrequencySamples...)
	if s.CurrentAttempt != nil {
		a := s.CurrentAttempt.Clone()
		out.CurrentAttempt = &a
	}
	return out
}

// TargetNote returns the note currently being attempted.
func (s ChallengeState) TargetNote() (notemath.Note, bool) {
	if s.CurrentNoteIndex < 0 || s.CurrentNoteIndex >= len(s.Notes) {
		return notemath.Note{}, false
	}
	return s.Notes[s.CurrentNoteIndex], true
}

// Complete reports whether every target note has been attempted.
func (s ChallengeState) Complete() bool {
	return len(s.Notes) > 0 && s.CurrentNoteIndex == len(s.Notes)
}

// ChallengeResult summarizes a completed session.
type ChallengeResult struct {
	ID                 int64
	Date               time.Time
	Attempts           []NoteAttempt
	TotalScore         float64
	AverageTimeToReach float64
	AverageStability   float64
	AverageAccuracy    float64
}

// ResultSummary is a result list row without attempts.
type ResultSummary struct {
	ID                 int64
	Date               time.Time
	TotalScore         float64
	AverageTimeToReach float64
	AverageStability   float64
	AverageAccuracy    float64
	NoteCount          int
}

// Summary drops the attempts.
func (r ChallengeResult) Summary() ResultSummary {
	return ResultSummary{
		ID:                 r.ID,
		Date:               r.Date,
		TotalScore:         r.TotalScore,
		AverageTimeToReach: r.AverageTimeToReach,
		AverageStability:   r.AverageStability,
		AverageAccuracy:    r.AverageAccuracy,
		NoteCount:          len(r.Attempts),
	}
}

// SuccessCount returns the number of reached notes.
func (r ChallengeResult) SuccessCount() int {
	n := 0
	for _, a := range r.Attempts {
		if a.ReachedNote {
			n++
		}
	}
	return n
}

// CloneAttempts deep-copies an attempt list.
func CloneAttempts(in []NoteAttempt) []NoteAttempt {
	if in == nil {
		return nil
	}
	out := make([]NoteAttempt, len(in))
	for i, a := range in {
		out[i] = a.Clone()
	}
	return out
}

// CloneResults deep-copies a result list.
func CloneResults(in []ChallengeResult) []ChallengeResult {
	if in == nil {
		return nil
	}
	out := make([]ChallengeResult, len(in))
	for i, r := range in {
		out[i] = r
		out[i].Attempts = CloneAttempts(r.Attempts)
	}
	return out
}

// NoteAggregate aggregates attempts for one pitch class across results.
type NoteAggregate struct {
	PitchClass   int
	Attempts     int
	Reached      int
	TimeSumMs    int64
	StabilitySum float64
	AccuracySum  float64
}
