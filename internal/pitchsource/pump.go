package pitchsource

import (
	"context"
	"errors"
	"io"
	"time"
)

// Pump reads src into out until the source ends or ctx is cancelled, then
// closes out. With pace set, frames are held back until their timestamp
// relative to the first frame. A clean end of input returns nil.
func Pump(ctx context.Context, src Source, out chan<- Frame, pace bool) error {
	defer close(out)
	var (
		start time.Time
		first time.Duration
		begun bool
	)
	for {
		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if pace {
			if !begun {
				start, first, begun = time.Now(), frame.Time, true
			}
			if wait := time.Until(start.Add(frame.Time - first)); wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				case <-timer.C:
				}
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- frame:
		}
	}
}
