// Package opencv binds the camera device and the RA preview window to
// OpenCV through gocv.
package opencv

import (
	"fmt"

	"github.com/ivlev/eyecam/internal/camera"
	"gocv.io/x/gocv"
)

// Camera reads from a local camera or frame grabber.
type Camera struct {
	vc  *gocv.VideoCapture
	mat gocv.Mat
	seq uint64
}

// OpenCamera opens device index and asks the driver for fps frames per second.
func OpenCamera(index int, fps float64) (*Camera, error) {
	vc, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", index, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("camera %d is not available", index)
	}
	if fps > 0 {
		vc.Set(gocv.VideoCaptureFPS, fps)
	}
	return &Camera{vc: vc, mat: gocv.NewMat()}, nil
}

func (c *Camera) Read() (*camera.Frame, error) {
	if ok := c.vc.Read(&c.mat); !ok {
		return nil, camera.ErrReadFailed
	}
	if c.mat.Empty() {
		return nil, camera.ErrEmptyFrame
	}

	src := c.mat
	if src.Channels() == 1 {
		bgr := gocv.NewMat()
		defer bgr.Close()
		gocv.CvtColor(c.mat, &bgr, gocv.ColorGrayToBGR)
		src = bgr
	} else if src.Channels() != camera.Channels {
		return nil, fmt.Errorf("unsupported camera format with %d channels", src.Channels())
	}

	c.seq++
	return &camera.Frame{
		Seq:    c.seq,
		Width:  src.Cols(),
		Height: src.Rows(),
		Pix:    src.ToBytes(),
	}, nil
}

// FPS reports the rate the driver settled on.
func (c *Camera) FPS() float64 {
	return c.vc.Get(gocv.VideoCaptureFPS)
}

func (c *Camera) Close() error {
	c.mat.Close()
	return c.vc.Close()
}
