package camera

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ivlev/eyecam/internal/aperture"
)

// gradient frame: pixel (x, y) = B:x G:y R:7
func gradient(w, h int) *Frame {
	f := NewFrame(1, w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * Channels
			f.Pix[i], f.Pix[i+1], f.Pix[i+2] = byte(x), byte(y), 7
		}
	}
	return f
}

func TestCrop(t *testing.T) {
	f := gradient(64, 48)
	out, err := f.Crop(aperture.Aperture{Top: 10, Bottom: 20, Left: 4, Right: 12})
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}

	if out.Width != 8 || out.Height != 10 {
		t.Fatalf("Expected 8x10, got %dx%d", out.Width, out.Height)
	}
	if len(out.Pix) != 8*10*Channels {
		t.Fatalf("unexpected buffer length %d", len(out.Pix))
	}
	if out.Seq != f.Seq {
		t.Errorf("crop lost sequence number")
	}

	// top-left of the crop is (4, 10) in the source
	if out.Pix[0] != 4 || out.Pix[1] != 10 {
		t.Errorf("unexpected first pixel %v", out.Pix[:3])
	}
	last := len(out.Pix) - Channels
	if out.Pix[last] != 11 || out.Pix[last+1] != 19 {
		t.Errorf("unexpected last pixel %v", out.Pix[last:])
	}

	// the source is untouched
	out.Pix[0] = 255
	if f.Pix[(10*64+4)*Channels] != 4 {
		t.Error("crop shares memory with the source frame")
	}
}

func TestCropOutside(t *testing.T) {
	f := gradient(64, 48)
	if _, err := f.Crop(aperture.Aperture{Top: 0, Bottom: 50, Left: 0, Right: 10}); err == nil {
		t.Error("expected error for aperture taller than frame")
	}
	var nilFrame *Frame
	if _, err := nilFrame.Crop(aperture.Aperture{Top: 0, Bottom: 2, Left: 0, Right: 2}); err == nil {
		t.Error("expected error for nil frame")
	}
}

func TestImageConversion(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	img.Set(1, 0, color.RGBA{R: 40, G: 50, B: 60, A: 255})

	f := FromImage(3, img)
	if f.Pix[0] != 30 || f.Pix[1] != 20 || f.Pix[2] != 10 {
		t.Errorf("expected BGR order, got %v", f.Pix[:3])
	}

	back := f.RGBA()
	if c := back.RGBAAt(1, 0); c.R != 40 || c.G != 50 || c.B != 60 || c.A != 255 {
		t.Errorf("unexpected round trip color %v", c)
	}
}

func TestReplayDeviceLoops(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"b.png", "a.png"} {
		img := image.NewRGBA(image.Rect(0, 0, 4, 2))
		img.Set(0, 0, color.RGBA{R: uint8(i + 1), A: 255})
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		png.Encode(f, img)
		f.Close()
	}
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644)

	dev, err := NewReplayDevice(dir, 0)
	if err != nil {
		t.Fatalf("NewReplayDevice failed: %v", err)
	}
	defer dev.Close()

	// a.png (R=2) sorts first, then b.png (R=1), then a.png again
	wantRed := []byte{2, 1, 2}
	for i, want := range wantRed {
		f, err := dev.Read()
		if err != nil {
			t.Fatalf("Read %d failed: %v", i, err)
		}
		if f.Seq != uint64(i+1) {
			t.Errorf("Expected seq %d, got %d", i+1, f.Seq)
		}
		if f.Width != 4 || f.Height != 2 {
			t.Errorf("unexpected size %dx%d", f.Width, f.Height)
		}
		if f.Pix[2] != want {
			t.Errorf("frame %d: expected red %d, got %d", i, want, f.Pix[2])
		}
	}
}

func TestReplayDeviceEmptyDir(t *testing.T) {
	if _, err := NewReplayDevice(t.TempDir(), 0); err == nil {
		t.Error("expected error for directory without images")
	}
}
