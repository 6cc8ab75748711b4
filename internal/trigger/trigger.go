package trigger

import (
	"context"
	"errors"
	"time"

	"github.com/ivlev/eyecam/internal/clock"
	"github.com/ivlev/eyecam/internal/keys"
)

// ErrAborted is returned when the operator presses the abort key.
var ErrAborted = errors.New("aborted by operator")

type Options struct {
	TriggerKey string
	AbortKey   string
	// PollInterval is the pause between empty polls.
	PollInterval time.Duration
}

// Event describes the accepted trigger.
type Event struct {
	At  time.Time
	Key string
}

// Wait blocks until the trigger key or the abort key shows up in src. Every
// other key is ignored. On trigger all clocks are reset to the same instant,
// which becomes the zero point for the run.
func Wait(ctx context.Context, src keys.Source, opts Options, clocks ...*clock.Clock) (Event, error) {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = time.Millisecond
	}
	trig := keys.Normalize(opts.TriggerKey)
	abort := keys.Normalize(opts.AbortKey)

	for {
		for _, k := range src.PollKeys() {
			switch k {
			case trig:
				return Event{At: resetAll(clocks), Key: k}, nil
			case abort:
				return Event{}, ErrAborted
			}
		}

		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// WaitFor blocks until one of wanted is pressed and returns it. The abort
// key ends the wait with ErrAborted.
func WaitFor(ctx context.Context, src keys.Source, abortKey string, wanted ...string) (string, error) {
	abort := keys.Normalize(abortKey)
	for {
		for _, k := range src.PollKeys() {
			if k == abort {
				return "", ErrAborted
			}
			for _, w := range wanted {
				if k == keys.Normalize(w) {
					return k, nil
				}
			}
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

func resetAll(clocks []*clock.Clock) time.Time {
	if len(clocks) == 0 {
		return time.Now()
	}
	at := clocks[0].Reset()
	for _, c := range clocks[1:] {
		c.ResetTo(at)
	}
	return at
}

// Merge polls several sources as one, in order.
func Merge(sources ...keys.Source) keys.Source {
	return keys.SourceFunc(func() []string {
		var out []string
		for _, s := range sources {
			if s == nil {
				continue
			}
			out = append(out, s.PollKeys()...)
		}
		return out
	})
}
