package notelist

import "github.com/verte-zerg/pitchup/internal/notemath"

// FilterFunc returns true when a note should be kept.
type FilterFunc func(notemath.Note) bool

// FilterForOctaves keeps notes that fall in one of the given octaves.
// An empty octave list keeps everything.
func FilterForOctaves(octaves []int) FilterFunc {
	if len(octaves) == 0 {
		return func(notemath.Note) bool { return true }
	}
	allowed := make(map[int]struct{}, len(octaves))
	for _, o := range octaves {
		allowed[o] = struct{}{}
	}
	return func(n notemath.Note) bool {
		_, ok := allowed[n.Octave]
		return ok
	}
}

// Apply returns the notes accepted by filter, preserving order.
func Apply(notes []notemath.Note, filter FilterFunc) []notemath.Note {
	out := make([]notemath.Note, 0, len(notes))
	for _, n := range notes {
		if filter(n) {
			out = append(out, n)
		}
	}
	return out
}
