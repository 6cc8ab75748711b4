package analyzer

import (
	"image"
	"image/color"
	"testing"
)

func filled(v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestMeasure(t *testing.T) {
	// dark background with a bright pupil-sized square
	img := filled(60)
	for y := 30; y < 70; y++ {
		for x := 30; x < 70; x++ {
			img.SetGray(x, y, color.Gray{Y: 200})
		}
	}

	e := Measure(img, DefaultLimits.EdgeThreshold)
	want := (60*8400 + 200*1600) / 10000.0
	if e.MeanLuma != want {
		t.Errorf("Expected mean %f, got %f", want, e.MeanLuma)
	}
	if e.EdgeDensity < 0.01 {
		t.Errorf("square outline should produce edges, got %f", e.EdgeDensity)
	}
	if probs := DefaultLimits.Check(e); len(probs) != 0 {
		t.Errorf("Expected a usable image, got %v", probs)
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
		want int
	}{
		{"black", filled(0), 2},
		{"white", filled(255), 2},
		{"flat grey", filled(128), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultLimits.Check(Measure(tt.img, DefaultLimits.EdgeThreshold))
			if len(got) != tt.want {
				t.Errorf("Expected %d problems, got %v", tt.want, got)
			}
		})
	}
}

func TestMeasureRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 255, 255, 255, 255
	}
	if e := Measure(img, 30); e.MeanLuma != 255 || e.Clipped != 1 {
		t.Errorf("unexpected exposure %+v", e)
	}
}
