package capture

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ivlev/eyecam/internal/aperture"
	"github.com/ivlev/eyecam/internal/camera"
	"github.com/ivlev/eyecam/internal/clock"
	"github.com/ivlev/eyecam/internal/keys"
	"github.com/ivlev/eyecam/internal/trigger"
)

// Preview shows the RA what is being recorded.
type Preview interface {
	Show(f *camera.Frame) error
}

type statusSetter interface {
	SetStatus(s string)
}

// Queue receives frames in capture order; video.HandOff implements it.
type Queue interface {
	Push(ctx context.Context, f *camera.Frame) error
	Close()
}

type Config struct {
	RunDuration time.Duration
	// Aperture crops every frame when set.
	Aperture *aperture.Aperture
	AbortKey string
	// Record off keeps the run timing but never touches the camera.
	Record bool
	// Idle is the pause per tick when nothing is recorded.
	Idle time.Duration
	// Sleep replaces time.Sleep for the idle pause.
	Sleep func(time.Duration)
}

type Result struct {
	Timestamps   []float64
	Frames       uint64
	ReadFailures int
	Aborted      bool
	// Elapsed is the run clock at the moment the loop stopped.
	Elapsed float64
}

// Loop is the producer side of a run: it reads the camera once per tick,
// stamps the frame with the run clock and hands it to the encoder.
type Loop struct {
	cfg     Config
	dev     camera.Device
	clock   *clock.Clock
	preview Preview
	keys    keys.Source
	queue   Queue
	logger  *slog.Logger
}

func NewLoop(cfg Config, dev camera.Device, clk *clock.Clock, preview Preview, src keys.Source, queue Queue, logger *slog.Logger) *Loop {
	if cfg.AbortKey == "" {
		cfg.AbortKey = keys.Escape
	}
	if cfg.Idle <= 0 {
		cfg.Idle = 10 * time.Millisecond
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		cfg:     cfg,
		dev:     dev,
		clock:   clk,
		preview: preview,
		keys:    src,
		queue:   queue,
		logger:  logger,
	}
}

// Run ticks until the run duration has elapsed on the clock, the abort key is
// pressed or ctx is done. A normal end closes the queue so the encoder can
// drain it. An abort returns trigger.ErrAborted and leaves the queue open;
// the caller cancels the encoder.
func (l *Loop) Run(ctx context.Context) (Result, error) {
	res := Result{}
	abort := keys.Normalize(l.cfg.AbortKey)

	if s, ok := l.preview.(statusSetter); ok {
		if l.cfg.Record {
			s.SetStatus("Recording...")
		} else {
			s.SetStatus("Scan in progress...")
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			res.Elapsed = l.clock.Seconds()
			return res, err
		}
		if l.clock.Elapsed() >= l.cfg.RunDuration {
			break
		}
		if l.keys != nil && keys.Contains(l.keys.PollKeys(), abort) {
			res.Aborted = true
			res.Elapsed = l.clock.Seconds()
			l.logger.Warn("run aborted", "at", res.Elapsed, "frames", res.Frames)
			return res, trigger.ErrAborted
		}

		if !l.cfg.Record {
			l.cfg.Sleep(l.cfg.Idle)
			continue
		}

		f, err := l.dev.Read()
		if err != nil {
			res.ReadFailures++
			l.logger.Warn("frame skipped", "err", err, "at", l.clock.Seconds())
			continue
		}
		if l.cfg.Aperture != nil {
			f, err = f.Crop(*l.cfg.Aperture)
			if err != nil {
				return res, fmt.Errorf("crop: %w", err)
			}
		}

		res.Timestamps = append(res.Timestamps, l.clock.Seconds())
		res.Frames++
		f.Seq = res.Frames

		if err := l.queue.Push(ctx, f); err != nil {
			res.Elapsed = l.clock.Seconds()
			return res, err
		}

		if l.preview != nil {
			if err := l.preview.Show(f); err != nil {
				l.logger.Warn("preview failed", "err", err)
			}
		}
	}

	res.Elapsed = l.clock.Seconds()
	if l.queue != nil {
		l.queue.Close()
	}
	return res, nil
}
