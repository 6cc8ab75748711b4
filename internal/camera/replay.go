package camera

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ReplayDevice plays a directory of still images as if they came from a
// camera. It is used for dry runs on machines without a frame grabber.
type ReplayDevice struct {
	paths    []string
	frames   map[int]*Frame
	next     int
	seq      uint64
	interval time.Duration
	last     time.Time
}

// NewReplayDevice loads the image list from path (a directory or a single
// file). interval paces Read like a real camera; zero disables pacing.
func NewReplayDevice(path string, interval time.Duration) (*ReplayDevice, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var paths []string
	if fi.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(entry.Name())) {
			case ".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff":
				paths = append(paths, filepath.Join(path, entry.Name()))
			}
		}
		sort.Strings(paths)
	} else {
		paths = []string{path}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images found in %s", path)
	}

	return &ReplayDevice{paths: paths, frames: make(map[int]*Frame), interval: interval}, nil
}

func (d *ReplayDevice) Read() (*Frame, error) {
	if d.interval > 0 && !d.last.IsZero() {
		if wait := d.interval - time.Since(d.last); wait > 0 {
			time.Sleep(wait)
		}
	}
	d.last = time.Now()

	i := d.next % len(d.paths)
	d.next++

	base, ok := d.frames[i]
	if !ok {
		img, err := decodeImage(d.paths[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
		}
		base = FromImage(0, img)
		d.frames[i] = base
	}

	d.seq++
	pix := make([]byte, len(base.Pix))
	copy(pix, base.Pix)
	return &Frame{Seq: d.seq, Width: base.Width, Height: base.Height, Pix: pix}, nil
}

func (d *ReplayDevice) Close() error {
	d.frames = nil
	return nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}
