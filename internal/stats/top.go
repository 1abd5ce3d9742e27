package stats

import (
	"sort"

	"github.com/verte-zerg/pitchup/internal/model"
)

// TopNotesByFrequency returns the N most attempted pitch classes.
func TopNotesByFrequency(aggs []model.NoteAggregate, n int) []int {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	items := make([]model.NoteAggregate, len(aggs))
	copy(items, aggs)
	sort.Slice(items, func(i, j int) bool {
		if items[i].Attempts == items[j].Attempts {
			return items[i].PitchClass < items[j].PitchClass
		}
		return items[i].Attempts > items[j].Attempts
	})
	if n > len(items) {
		n = len(items)
	}
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, items[i].PitchClass)
	}
	return out
}
