// Package generator builds target note sequences.
package generator

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/pitchup/internal/notemath"
)

// Generator produces randomized target notes.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Generator with a fixed seed.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate draws count notes uniformly from 12 pitch classes x octaves,
// independently per slot.
func (g *Generator) Generate(count int, octaves []int) []notemath.Note {
	result := make([]notemath.Note, 0, count)
	if len(octaves) == 0 {
		return result
	}
	for i := 0; i < count; i++ {
		result = append(result, notemath.Note{
			PitchClass: g.rnd.Intn(12),
			Octave:     octaves[g.rnd.Intn(len(octaves))],
		})
	}
	return result
}

// GenerateWeighted draws notes with a bias toward weak pitch classes.
// Each pitch class weighs 1, plus factor when it is in weakSet.
func (g *Generator) GenerateWeighted(count int, octaves []int, weakSet map[int]struct{}, factor float64) []notemath.Note {
	if len(weakSet) == 0 || factor <= 0 {
		return g.Generate(count, octaves)
	}
	result := make([]notemath.Note, 0, count)
	if len(octaves) == 0 {
		return result
	}
	weights := make([]float64, 12)
	total := 0.0
	for pc := range weights {
		w := 1.0
		if _, ok := weakSet[pc]; ok {
			w += factor
		}
		weights[pc] = w
		total += w
	}

	for i := 0; i < count; i++ {
		r := g.rnd.Float64() * total
		acc := 0.0
		pc := len(weights) - 1
		for j, w := range weights {
			acc += w
			if r <= acc {
				pc = j
				break
			}
		}
		result = append(result, notemath.Note{
			PitchClass: pc,
			Octave:     octaves[g.rnd.Intn(len(octaves))],
		})
	}
	return result
}
