package pitchsource

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultAubioBin is the aubio command line tool.
const DefaultAubioBin = "aubio"

// ErrAubioMissing is returned when the aubio binary is not on PATH.
var ErrAubioMissing = errors.New("aubio not found")

// LoadAubio analyses an audio file with `aubio pitch` and returns its frames.
// aubio reports 0 Hz for unvoiced frames; those become silent frames. Voiced
// frames get clarity 1 since aubio prints no confidence.
func LoadAubio(ctx context.Context, bin, path string) (*FrameList, error) {
	if bin == "" {
		bin = DefaultAubioBin
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAubioMissing, bin)
	}
	out, err := runCmd(ctx, bin, "pitch", "-i", path)
	if err != nil && out == "" {
		return nil, fmt.Errorf("aubio pitch failed: %w", err)
	}
	frames, err := ParseAubioPitch(out)
	if err != nil {
		return nil, err
	}
	return NewFrameList(frames), nil
}

// ParseAubioPitch parses `aubio pitch` output of "seconds hz" lines.
// Lines that do not start with two numbers are skipped.
func ParseAubioPitch(out string) ([]Frame, error) {
	var frames []Frame
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		sec, err := strconv.ParseFloat(fields[0], 64)
		if err != nil || !isFinite(sec) {
			continue
		}
		hz, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil || !isFinite(hz) {
			continue
		}
		at := secondsToDuration(sec)
		if hz <= 0 {
			frames = append(frames, NewFrame(at, 0, 0))
			continue
		}
		frames = append(frames, NewFrame(at, hz, 1))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no pitch frames in aubio output")
	}
	return frames, nil
}

func runCmd(ctx context.Context, bin string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	out, err := cmd.Output()
	return string(out), err
}
