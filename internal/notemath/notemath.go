// Package notemath converts between frequencies, note names, and cents.
package notemath

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// ReferenceHz is the frequency of A4.
	ReferenceHz = 440.0
	// ReferenceOctave is the octave of the reference note.
	ReferenceOctave = 4
	// indexA is the pitch class of A among the canonical names.
	indexA = 9
)

var names = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var flats = map[string]string{
	"Db": "C#",
	"Eb": "D#",
	"Gb": "F#",
	"Ab": "G#",
	"Bb": "A#",
	"Cb": "B",
	"Fb": "E",
	"E#": "F",
	"B#": "C",
}

// Note is a pitch class plus an octave.
type Note struct {
	PitchClass int
	Octave     int
}

// Name returns the pitch-class name without octave, e.g. "C#".
func (n Note) Name() string {
	return names[mod12(n.PitchClass)]
}

// String renders the note with its octave, e.g. "C#4".
func (n Note) String() string {
	return n.Name() + strconv.Itoa(n.Octave)
}

// Names returns the twelve canonical pitch-class names starting at C.
func Names() []string {
	out := make([]string, len(names))
	copy(out, names[:])
	return out
}

// PitchClassName returns the canonical name for a pitch class index.
func PitchClassName(pc int) string {
	return names[mod12(pc)]
}

// FromFrequency returns the nearest note to f and the signed deviation in cents.
// f must be positive; a non-positive frequency panics.
func FromFrequency(f float64) (Note, int) {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		panic(fmt.Sprintf("notemath: invalid frequency %v", f))
	}
	n := 12 * math.Log2(f/ReferenceHz)
	k := int(math.Round(n))
	note := Note{
		PitchClass: mod12(indexA + k),
		Octave:     ReferenceOctave + floorDiv(indexA+k, 12),
	}
	cents := int(math.Round((n - float64(k)) * 100))
	return note, cents
}

// ToFrequency returns the equal-tempered frequency of a note.
func ToFrequency(n Note) float64 {
	steps := n.PitchClass - indexA + 12*(n.Octave-ReferenceOctave)
	return ReferenceHz * math.Pow(2, float64(steps)/12)
}

// PitchClassOf returns the pitch class nearest to f.
func PitchClassOf(f float64) int {
	note, _ := FromFrequency(f)
	return note.PitchClass
}

// StripOctave drops the octave, keeping only the pitch class.
func StripOctave(n Note) int {
	return mod12(n.PitchClass)
}

// SamePitchClass reports whether two notes share a pitch class, ignoring octave.
func SamePitchClass(a, b Note) bool {
	return StripOctave(a) == StripOctave(b)
}

// ParseNote parses names such as "A4", "c#3", or "Bb5".
func ParseNote(s string) (Note, error) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, func(r rune) bool {
		return r == '-' || (r >= '0' && r <= '9')
	})
	if i <= 0 {
		return Note{}, fmt.Errorf("invalid note %q", s)
	}
	name, octStr := s[:i], s[i:]
	octave, err := strconv.Atoi(octStr)
	if err != nil {
		return Note{}, fmt.Errorf("invalid octave in note %q: %w", s, err)
	}
	pc, ok := parsePitchClass(name)
	if !ok {
		return Note{}, fmt.Errorf("unknown pitch class %q", name)
	}
	return Note{PitchClass: pc, Octave: octave}, nil
}

// ParsePitchClass parses an octave-less name such as "F#" or "eb".
func ParsePitchClass(s string) (int, error) {
	pc, ok := parsePitchClass(strings.TrimSpace(s))
	if !ok {
		return 0, fmt.Errorf("unknown pitch class %q", s)
	}
	return pc, nil
}

// MustParseNote is ParseNote that panics on error.
func MustParseNote(s string) Note {
	n, err := ParseNote(s)
	if err != nil {
		panic(err)
	}
	return n
}

// AllNotes lists every pitch class in each of the given octaves.
func AllNotes(octaves []int) []Note {
	out := make([]Note, 0, len(octaves)*len(names))
	for _, oct := range octaves {
		for pc := range names {
			out = append(out, Note{PitchClass: pc, Octave: oct})
		}
	}
	return out
}

func parsePitchClass(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	name = strings.ToUpper(name[:1]) + name[1:]
	name = strings.ReplaceAll(name, "♯", "#")
	name = strings.ReplaceAll(name, "♭", "b")
	if alias, ok := flats[name]; ok {
		name = alias
	}
	for i, n := range names {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

func mod12(v int) int {
	v %= 12
	if v < 0 {
		v += 12
	}
	return v
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
