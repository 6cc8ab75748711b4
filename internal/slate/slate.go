// Package slate renders a PNG card per run that identifies the video it sits
// next to: a QR code with the session, run and trigger time, a printed
// caption and, when available, a thumbnail of the first recorded frame.
package slate

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"time"

	"github.com/ivlev/eyecam/internal/camera"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	qrSize     = 256
	margin     = 16
	lineHeight = 16
)

type Info struct {
	SessionID   string
	Scan        string
	Participant string
	Session     string
	Run         int
	Trigger     time.Time
	Video       string
	// Thumb is drawn beside the QR code when set.
	Thumb *camera.Frame
}

// Payload is the text encoded in the QR code.
func Payload(in Info) string {
	fields := []string{
		"eyecam",
		"session_id=" + in.SessionID,
		"scan=" + in.Scan,
		"session=" + in.Session,
		fmt.Sprintf("run=%d", in.Run),
		"trigger=" + in.Trigger.UTC().Format(time.RFC3339Nano),
	}
	if in.Participant != "" {
		fields = append(fields, "participant="+in.Participant)
	}
	if in.Video != "" {
		fields = append(fields, "video="+in.Video)
	}
	return strings.Join(fields, ";")
}

func caption(in Info) []string {
	return []string{
		fmt.Sprintf("%s  session %s  run %d", in.Scan, in.Session, in.Run),
		"trigger " + in.Trigger.Format("Mon Jan 02 15:04:05 2006"),
		in.SessionID,
	}
}

// Render draws the slate.
func Render(in Info) (*image.RGBA, error) {
	q, err := qrcode.New(Payload(in), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	code := q.Image(qrSize)

	lines := caption(in)
	w := qrSize + 2*margin
	if in.Thumb != nil {
		w += qrSize + margin
	}
	h := qrSize + 2*margin + len(lines)*lineHeight + margin

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(margin, margin, margin+qrSize, margin+qrSize), code, code.Bounds().Min, draw.Src)

	if in.Thumb != nil {
		src := in.Thumb.RGBA()
		dst := fitRect(src.Bounds(), image.Rect(2*margin+qrSize, margin, 2*margin+2*qrSize, margin+qrSize))
		draw.CatmullRom.Scale(img, dst, src, src.Bounds(), draw.Over, nil)
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
	}
	y := qrSize + 2*margin
	for _, line := range lines {
		y += lineHeight
		d.Dot = fixed.Point26_6{X: fixed.I(margin), Y: fixed.I(y - 3)}
		d.DrawString(line)
	}
	return img, nil
}

// fitRect centers a rectangle with src's aspect ratio inside box.
func fitRect(src, box image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	bw, bh := box.Dx(), box.Dy()
	if sw == 0 || sh == 0 {
		return box
	}
	w, h := bw, sh*bw/sw
	if h > bh {
		w, h = sw*bh/sh, bh
	}
	x := box.Min.X + (bw-w)/2
	y := box.Min.Y + (bh-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// Write renders the slate to a PNG file.
func Write(path string, in Info) error {
	img, err := Render(in)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode slate: %w", err)
	}
	return f.Close()
}
