package stats

import (
	"testing"

	"github.com/verte-zerg/pitchup/internal/model"
)

func TestTopNotesByFrequency(t *testing.T) {
	aggs := []model.NoteAggregate{
		{PitchClass: 4, Attempts: 3},
		{PitchClass: 2, Attempts: 5},
		{PitchClass: 0, Attempts: 5},
		{PitchClass: 7, Attempts: 1},
	}
	top := TopNotesByFrequency(aggs, 3)
	if len(top) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(top))
	}
	if top[0] != 0 || top[1] != 2 || top[2] != 4 {
		t.Fatalf("unexpected order: %v", top)
	}
}
