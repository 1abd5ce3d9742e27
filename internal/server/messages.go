package server

import (
	"time"

	"github.com/verte-zerg/pitchup/internal/model"
)

// Client frame types.
const (
	frameStart   = "start"
	frameRestart = "restart"
	frameCancel  = "cancel"
	frameSample  = "sample"
	frameTick    = "tick"
	frameDelete  = "delete"
)

// Server message types.
const (
	msgState   = "state"
	msgResults = "results"
	msgError   = "error"
)

type clientFrame struct {
	Type      string   `json:"type"`
	Frequency float64  `json:"frequency,omitempty"`
	Clarity   float64  `json:"clarity,omitempty"`
	Notes     []string `json:"notes,omitempty"`
	ID        int64    `json:"id,omitempty"`
}

type attemptJSON struct {
	Target           string  `json:"target"`
	Reached          bool    `json:"reached"`
	TimeToReachMs    int64   `json:"time_to_reach_ms"`
	Stability        float64 `json:"stability"`
	Accuracy         float64 `json:"accuracy"`
	AverageFrequency float64 `json:"average_frequency"`
	CentDifference   *int    `json:"cent_difference,omitempty"`
}

type stateMessage struct {
	Type             string        `json:"type"`
	Active           bool          `json:"active"`
	CurrentNoteIndex int           `json:"current_note_index"`
	Notes            []string      `json:"notes"`
	Target           string        `json:"target,omitempty"`
	CurrentAttempt   *attemptJSON  `json:"current_attempt,omitempty"`
	Attempts         []attemptJSON `json:"attempts"`
	Samples          int           `json:"samples"`
}

type resultJSON struct {
	ID                 int64         `json:"id"`
	Date               time.Time     `json:"date"`
	TotalScore         float64       `json:"total_score"`
	AverageTimeToReach float64       `json:"average_time_to_reach_ms"`
	AverageStability   float64       `json:"average_stability"`
	AverageAccuracy    float64       `json:"average_accuracy"`
	Attempts           []attemptJSON `json:"attempts"`
}

type resultsMessage struct {
	Type    string       `json:"type"`
	Results []resultJSON `json:"results"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func toAttemptJSON(a model.NoteAttempt) attemptJSON {
	return attemptJSON{
		Target:           a.TargetNote.String(),
		Reached:          a.ReachedNote,
		TimeToReachMs:    a.TimeToReachMs,
		Stability:        a.StabilityScore,
		Accuracy:         a.AccuracyScore,
		AverageFrequency: a.AverageFrequency,
		CentDifference:   a.CentDifference,
	}
}

func toAttemptsJSON(in []model.NoteAttempt) []attemptJSON {
	out := make([]attemptJSON, len(in))
	for i, a := range in {
		out[i] = toAttemptJSON(a)
	}
	return out
}

func newStateMessage(s model.ChallengeState) stateMessage {
	msg := stateMessage{
		Type:             msgState,
		Active:           s.Active,
		CurrentNoteIndex: s.CurrentNoteIndex,
		Notes:            make([]string, len(s.Notes)),
		Attempts:         toAttemptsJSON(s.Attempts),
		Samples:          len(s.FrequencySamples),
	}
	for i, n := range s.Notes {
		msg.Notes[i] = n.String()
	}
	if target, ok := s.TargetNote(); ok && s.Active {
		msg.Target = target.String()
	}
	if s.CurrentAttempt != nil {
		a := toAttemptJSON(*s.CurrentAttempt)
		msg.CurrentAttempt = &a
	}
	return msg
}

func newResultsMessage(list []model.ChallengeResult) resultsMessage {
	msg := resultsMessage{Type: msgResults, Results: make([]resultJSON, len(list))}
	for i, r := range list {
		msg.Results[i] = resultJSON{
			ID:                 r.ID,
			Date:               r.Date,
			TotalScore:         r.TotalScore,
			AverageTimeToReach: r.AverageTimeToReach,
			AverageStability:   r.AverageStability,
			AverageAccuracy:    r.AverageAccuracy,
			Attempts:           toAttemptsJSON(r.Attempts),
		}
	}
	return msg
}
