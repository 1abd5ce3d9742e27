// Package notelist loads fixed practice note sets from files.
package notelist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/verte-zerg/pitchup/internal/notemath"
)

// LoadNotes reads notes from the provided file path. Notes may be separated by
// newlines, commas, or spaces; text after '#' is ignored.
func LoadNotes(path string) ([]notemath.Note, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only note list.
			_ = cerr
		}
	}()
	return ReadNotes(file)
}

// ReadNotes parses a note list from r.
func ReadNotes(r io.Reader) ([]notemath.Note, error) {
	var notes []notemath.Note
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		parsed, err := ParseList(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		notes = append(notes, parsed...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, fmt.Errorf("note list is empty")
	}
	return notes, nil
}

// ParseList parses a comma- or space-separated list such as "C4, E4 G4".
func ParseList(s string) ([]notemath.Note, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	notes := make([]notemath.Note, 0, len(fields))
	for _, field := range fields {
		n, err := notemath.ParseNote(field)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, nil
}
