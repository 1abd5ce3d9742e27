package stats

import (
	"testing"

	"github.com/verte-zerg/pitchup/internal/model"
)

func TestSelectWeakNotes(t *testing.T) {
	aggs := []model.NoteAggregate{
		{PitchClass: 0, Attempts: 4, Reached: 4},
		{PitchClass: 1, Attempts: 4, Reached: 1},
		{PitchClass: 6, Attempts: 2, Reached: 0},
		{PitchClass: 9, Attempts: 4, Reached: 2},
	}
	weak := SelectWeakNotes(aggs, 2)
	if len(weak) != 2 {
		t.Fatalf("expected 2 weak notes, got %d", len(weak))
	}
	for _, pc := range []int{6, 1} {
		if _, ok := weak[pc]; !ok {
			t.Fatalf("expected pitch class %d in weak set: %v", pc, weak)
		}
	}
	if got := SelectWeakNotes(nil, 3); len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
}
