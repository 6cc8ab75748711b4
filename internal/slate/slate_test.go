package slate

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ivlev/eyecam/internal/camera"
)

func testInfo() Info {
	return Info{
		SessionID: "3f1c9a52-4a0e-4a57-9d0c-6f6a8a1f2b10",
		Scan:      "REST",
		Session:   "S01",
		Run:       2,
		Trigger:   time.Date(2017, 2, 1, 10, 0, 0, 500, time.UTC),
		Video:     "REST_S01_run2_2017-02-01_100000.mp4",
	}
}

func TestPayload(t *testing.T) {
	p := Payload(testInfo())
	for _, want := range []string{"session_id=3f1c9a52", "run=2", "trigger=2017-02-01T10:00:00.0000005Z", "video=REST_S01_run2"} {
		if !strings.Contains(p, want) {
			t.Errorf("missing %q in %s", want, p)
		}
	}
	if strings.Contains(p, "participant=") {
		t.Errorf("empty participant should be left out: %s", p)
	}
}

func TestRenderSize(t *testing.T) {
	img, err := Render(testInfo())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if img.Bounds().Dx() != qrSize+2*margin {
		t.Errorf("unexpected width %d", img.Bounds().Dx())
	}

	in := testInfo()
	in.Thumb = camera.NewFrame(1, 640, 480)
	img, err = Render(in)
	if err != nil {
		t.Fatalf("Render with thumbnail failed: %v", err)
	}
	if img.Bounds().Dx() != 2*qrSize+3*margin {
		t.Errorf("thumbnail column missing, width %d", img.Bounds().Dx())
	}
}

func TestFitRect(t *testing.T) {
	got := fitRect(image.Rect(0, 0, 640, 480), image.Rect(0, 0, 256, 256))
	if got != image.Rect(0, 32, 256, 224) {
		t.Errorf("unexpected fit %v", got)
	}
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slate.png")
	if err := Write(path, testInfo()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("slate is not a PNG: %v", err)
	}
}
