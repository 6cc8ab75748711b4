package camera

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/ivlev/eyecam/internal/aperture"
)

// Channels is the number of bytes per pixel (BGR, as delivered by OpenCV).
const Channels = 3

// Frame is one captured image. Pix is tightly packed BGR24 with a stride of
// Width*Channels. A frame is not modified after it leaves the capture loop.
type Frame struct {
	Seq    uint64
	Width  int
	Height int
	Pix    []byte
}

func NewFrame(seq uint64, width, height int) *Frame {
	return &Frame{
		Seq:    seq,
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*Channels),
	}
}

// Crop copies the aperture region into a new frame.
func (f *Frame) Crop(ap aperture.Aperture) (*Frame, error) {
	if f == nil {
		return nil, errors.New("nil frame")
	}
	if ap.Top < 0 || ap.Left < 0 || ap.Bottom > f.Height || ap.Right > f.Width || ap.Height() <= 0 || ap.Width() <= 0 {
		return nil, fmt.Errorf("aperture %v outside %dx%d frame", ap, f.Height, f.Width)
	}

	out := NewFrame(f.Seq, ap.Width(), ap.Height())
	srcStride := f.Width * Channels
	dstStride := out.Width * Channels
	for y := 0; y < out.Height; y++ {
		src := (ap.Top+y)*srcStride + ap.Left*Channels
		copy(out.Pix[y*dstStride:(y+1)*dstStride], f.Pix[src:src+dstStride])
	}
	return out, nil
}

// RGBA converts the frame for image/draw based consumers.
func (f *Frame) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i, j := 0, 0; i+2 < len(f.Pix) && j+3 < len(img.Pix); i, j = i+Channels, j+4 {
		img.Pix[j] = f.Pix[i+2]
		img.Pix[j+1] = f.Pix[i+1]
		img.Pix[j+2] = f.Pix[i]
		img.Pix[j+3] = 0xff
	}
	return img
}

// FromImage builds a BGR frame from any image.
func FromImage(seq uint64, img image.Image) *Frame {
	b := img.Bounds()
	f := NewFrame(seq, b.Dx(), b.Dy())
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			f.Pix[i], f.Pix[i+1], f.Pix[i+2] = c.B, c.G, c.R
			i += Channels
		}
	}
	return f
}
