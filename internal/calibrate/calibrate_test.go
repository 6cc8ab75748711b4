package calibrate

import (
	"context"
	"errors"
	"testing"

	"github.com/ivlev/eyecam/internal/aperture"
	"github.com/ivlev/eyecam/internal/camera"
	"github.com/ivlev/eyecam/internal/trigger"
)

type stillCamera struct {
	w, h  int
	reads int
}

func (c *stillCamera) Read() (*camera.Frame, error) {
	c.reads++
	return camera.NewFrame(uint64(c.reads), c.w, c.h), nil
}

func (c *stillCamera) Close() error { return nil }

// scriptedViewer records shown frame sizes and hands out one key batch per
// poll.
type scriptedViewer struct {
	batches [][]string
	shown   [][2]int
}

func (v *scriptedViewer) Show(f *camera.Frame) error {
	v.shown = append(v.shown, [2]int{f.Height, f.Width})
	return nil
}

func (v *scriptedViewer) PollKeys() []string {
	if len(v.batches) == 0 {
		return []string{DoneKey}
	}
	b := v.batches[0]
	v.batches = v.batches[1:]
	return b
}

func TestCalibrateBigger(t *testing.T) {
	stored := aperture.Aperture{Top: 100, Bottom: 300, Left: 50, Right: 250}
	view := &scriptedViewer{batches: [][]string{nil, {"b"}, {"q"}}}
	c := New(&stillCamera{w: 640, h: 480}, view, Options{Shift: 30, Scale: 15, Stored: &stored}, nil)

	got, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := aperture.Aperture{Top: 85, Bottom: 315, Left: 35, Right: 265}
	if got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if len(view.shown) != 3 || view.shown[0] != [2]int{200, 200} || view.shown[2] != [2]int{230, 230} {
		t.Errorf("unexpected preview sizes %v", view.shown)
	}
}

func TestCalibrateStaysLegal(t *testing.T) {
	var script [][]string
	for i := 0; i < 20; i++ {
		script = append(script, []string{"b", "up", "left"})
	}
	for i := 0; i < 40; i++ {
		script = append(script, []string{"s", "down", "right", "right"})
	}
	view := &scriptedViewer{batches: script}
	c := New(&stillCamera{w: 640, h: 480}, view, Options{}, nil)

	got, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !got.Legal(480, 640) {
		t.Errorf("aperture %v left the frame", got)
	}
}

func TestCalibrateDefaultAndAbort(t *testing.T) {
	view := &scriptedViewer{batches: [][]string{{"x"}, {"escape", "q"}}}
	c := New(&stillCamera{w: 640, h: 480}, view, Options{}, nil)

	ap, err := c.Run(context.Background())
	if !errors.Is(err, trigger.ErrAborted) {
		t.Fatalf("Expected ErrAborted, got %v", err)
	}
	if ap != aperture.Default(480, 640) {
		t.Errorf("Expected default aperture, got %v", ap)
	}
}

func TestCalibrateIgnoresStoredOutsideFrame(t *testing.T) {
	stored := aperture.Aperture{Top: -40, Bottom: 101, Left: 600, Right: 700}
	c := New(&stillCamera{w: 640, h: 480}, &scriptedViewer{}, Options{Stored: &stored}, nil)

	got, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !got.Legal(480, 640) {
		t.Errorf("stored aperture was not clamped: %v", got)
	}
}
