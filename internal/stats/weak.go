package stats

import (
	"sort"

	"github.com/verte-zerg/pitchup/internal/model"
)

// SelectWeakNotes selects the lowest success-rate pitch classes from aggregates.
func SelectWeakNotes(aggs []model.NoteAggregate, top int) map[int]struct{} {
	weakSet := map[int]struct{}{}
	if len(aggs) == 0 {
		return weakSet
	}
	candidates := make([]model.NoteAggregate, len(aggs))
	copy(candidates, aggs)
	sort.Slice(candidates, func(i, j int) bool {
		si := SuccessRate(candidates[i])
		sj := SuccessRate(candidates[j])
		if si == sj {
			return candidates[i].PitchClass < candidates[j].PitchClass
		}
		return si < sj
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	for i := 0; i < top; i++ {
		weakSet[candidates[i].PitchClass] = struct{}{}
	}
	return weakSet
}
