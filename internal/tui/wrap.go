package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/pitchup/internal/model"
	"github.com/verte-zerg/pitchup/internal/notemath"
)

type styledCell struct {
	s       string
	width   int
	isSpace bool
}

func newCell(text string, style lipgloss.Style) styledCell {
	return styledCell{s: style.Render(text), width: runewidth.StringWidth(text)}
}

var spaceCell = styledCell{s: " ", width: 1, isSpace: true}

// buildNoteCells renders the target sequence: closed targets by outcome, the
// current target underlined, the rest pending.
func buildNoteCells(st model.ChallengeState) []styledCell {
	out := make([]styledCell, 0, len(st.Notes)*2)
	for i, n := range st.Notes {
		if i > 0 {
			out = append(out, spaceCell)
		}
		out = append(out, newCell(noteLabel(n), noteStyle(st, i)))
	}
	return out
}

func noteStyle(st model.ChallengeState, i int) lipgloss.Style {
	switch {
	case i < len(st.Attempts):
		if st.Attempts[i].ReachedNote {
			return correctStyle
		}
		return incorrectStyle
	case st.Active && i == st.CurrentNoteIndex:
		return cursorStyle
	default:
		return pendingStyle
	}
}

func noteLabel(n notemath.Note) string {
	return n.String()
}

func renderCells(cells []styledCell) string {
	var b strings.Builder
	for _, item := range cells {
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapCells(cells []styledCell, width int) string {
	if width <= 0 {
		return renderCells(cells)
	}
	var out strings.Builder
	line := make([]styledCell, 0, len(cells))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(cells); {
		item := cells[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderCells(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledCell{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderCells(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderCells(line))
	return out.String()
}

func lineWidthOf(line []styledCell) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledCell) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}

// centsMeter draws a tuning needle: the middle mark is in tune, the edges
// are a quarter tone flat or sharp.
func centsMeter(cents, width int) string {
	if width < 3 {
		width = 3
	}
	if width%2 == 0 {
		width++
	}
	half := width / 2
	if cents < -50 {
		cents = -50
	}
	if cents > 50 {
		cents = 50
	}
	pos := half + int(float64(cents)/50*float64(half)+copySign(0.5, cents))
	cells := []rune(strings.Repeat("─", width))
	cells[half] = '┼'
	cells[pos] = '●'
	return string(cells)
}

func copySign(v float64, sign int) float64 {
	if sign < 0 {
		return -v
	}
	return v
}
