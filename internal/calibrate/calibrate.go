package calibrate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ivlev/eyecam/internal/aperture"
	"github.com/ivlev/eyecam/internal/camera"
	"github.com/ivlev/eyecam/internal/keys"
	"github.com/ivlev/eyecam/internal/trigger"
)

// DoneKey accepts the current aperture.
const DoneKey = "q"

// Help is shown to the RA while calibrating.
const Help = "Arrow keys will move the aperture\n\nb: Bigger aperture\ns: Smaller aperture\n\nq: Finished"

// Viewer shows the cropped eye image and reports keys typed into it.
type Viewer interface {
	Show(f *camera.Frame) error
	keys.Source
}

type Options struct {
	Shift    int
	Scale    int
	AbortKey string
	// Stored is the aperture from the site config, if any.
	Stored *aperture.Aperture
}

type Calibrator struct {
	dev    camera.Device
	view   Viewer
	opts   Options
	logger *slog.Logger
}

func New(dev camera.Device, view Viewer, opts Options, logger *slog.Logger) *Calibrator {
	if opts.Shift <= 0 {
		opts.Shift = 30
	}
	if opts.Scale <= 0 {
		opts.Scale = 15
	}
	if opts.AbortKey == "" {
		opts.AbortKey = keys.Escape
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Calibrator{dev: dev, view: view, opts: opts, logger: logger}
}

// Run lets the RA move and resize the crop over the live image until the
// done key is pressed, and returns the result. The abort key returns
// trigger.ErrAborted.
func (c *Calibrator) Run(ctx context.Context) (aperture.Aperture, error) {
	first, err := c.dev.Read()
	if err != nil {
		return aperture.Aperture{}, fmt.Errorf("read first frame: %w", err)
	}
	frameH, frameW := first.Height, first.Width
	c.logger.Info("calibration started", "frame_h", frameH, "frame_w", frameW)

	var ap aperture.Aperture
	if c.opts.Stored != nil {
		ap = aperture.ClosestLegal(*c.opts.Stored, frameH, frameW)
	} else {
		ap = aperture.Default(frameH, frameW)
	}

	abort := keys.Normalize(c.opts.AbortKey)
	frame := first
	for {
		if err := ctx.Err(); err != nil {
			return ap, err
		}

		if frame != nil {
			if cropped, err := frame.Crop(ap); err == nil {
				c.view.Show(cropped)
			}
		}

		for _, k := range c.view.PollKeys() {
			switch k {
			case abort:
				return ap, trigger.ErrAborted
			case DoneKey:
				c.logger.Info("calibration done", "aperture", ap.Slice())
				return ap, nil
			}
			cmd := aperture.Command(k)
			if !isCommand(cmd) {
				continue
			}
			ap = ap.Nudge(cmd, c.opts.Shift, c.opts.Scale, frameH, frameW)
			c.logger.Debug("aperture nudged", "key", k, "aperture", ap.Slice())
		}

		frame, err = c.dev.Read()
		if err != nil {
			c.logger.Warn("frame skipped", "err", err)
			frame = nil
		}
	}
}

func isCommand(cmd aperture.Command) bool {
	switch cmd {
	case aperture.Up, aperture.Down, aperture.Left, aperture.Right, aperture.Bigger, aperture.Smaller:
		return true
	}
	return false
}
