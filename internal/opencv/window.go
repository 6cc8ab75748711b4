package opencv

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ivlev/eyecam/internal/camera"
	"github.com/ivlev/eyecam/internal/keys"
	"gocv.io/x/gocv"
)

var statusColor = color.RGBA{255, 0, 0, 0}

// Window is the RA's eye-video monitor. Keys typed into it are collected on
// every Show and handed out by PollKeys.
type Window struct {
	win     *gocv.Window
	status  string
	pending []string
}

func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

// SetStatus sets a one-line overlay drawn on top of every frame.
func (w *Window) SetStatus(s string) {
	w.status = s
}

// Show renders f. The frame itself is never modified.
func (w *Window) Show(f *camera.Frame) error {
	mat, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC3, f.Pix)
	if err != nil {
		return fmt.Errorf("preview frame %d: %w", f.Seq, err)
	}
	defer mat.Close()

	if w.status != "" {
		overlay := mat.Clone()
		defer overlay.Close()
		gocv.PutText(&overlay, w.status, image.Pt(10, 20), gocv.FontHersheyPlain, 1.2, statusColor, 2)
		w.win.IMShow(overlay)
	} else {
		w.win.IMShow(mat)
	}
	w.pump()
	return nil
}

func (w *Window) pump() {
	if name, ok := keys.FromHighGUI(w.win.WaitKey(1)); ok {
		w.pending = append(w.pending, name)
	}
}

func (w *Window) PollKeys() []string {
	w.pump()
	out := w.pending
	w.pending = nil
	return out
}

func (w *Window) Close() error {
	return w.win.Close()
}
