// Package analyzer checks a camera image before recording starts: an eye
// video that is black, blown out or without any edges is worth a warning to
// the RA while there is still time to fix the IR light or the focus.
package analyzer

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// Exposure summarizes one image.
type Exposure struct {
	MeanLuma float64 // 0-255
	Dark     float64 // fraction of pixels <= 8
	Clipped  float64 // fraction of pixels >= 247
	// EdgeDensity is the fraction of pixels whose Sobel gradient exceeds the
	// threshold; a blurred or covered lens scores close to zero.
	EdgeDensity float64
}

type Limits struct {
	MinLuma        float64
	MaxLuma        float64
	MaxClipped     float64
	MinEdgeDensity float64
	EdgeThreshold  float64
}

var DefaultLimits = Limits{
	MinLuma:        20,
	MaxLuma:        235,
	MaxClipped:     0.25,
	MinEdgeDensity: 0.002,
	EdgeThreshold:  30,
}

// Measure computes the exposure of img.
func Measure(img image.Image, edgeThreshold float64) Exposure {
	gray := toGrayscale(img)
	b := gray.Bounds()
	n := float64(b.Dx() * b.Dy())
	if n == 0 {
		return Exposure{}
	}

	var e Exposure
	var sum float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := gray.GrayAt(x, y).Y
			sum += float64(v)
			if v <= 8 {
				e.Dark++
			}
			if v >= 247 {
				e.Clipped++
			}
		}
	}
	e.MeanLuma = sum / n
	e.Dark /= n
	e.Clipped /= n
	e.EdgeDensity = float64(countEdges(gray, edgeThreshold)) / n
	return e
}

// Check lists the problems found in e.
func (l Limits) Check(e Exposure) []string {
	var out []string
	if e.MeanLuma < l.MinLuma {
		out = append(out, fmt.Sprintf("image is too dark (mean %.0f); check the IR illuminator", e.MeanLuma))
	}
	if e.MeanLuma > l.MaxLuma || e.Clipped > l.MaxClipped {
		out = append(out, fmt.Sprintf("image is overexposed (%.0f%% clipped)", e.Clipped*100))
	}
	if e.EdgeDensity < l.MinEdgeDensity {
		out = append(out, "image has almost no detail; check focus and that the lens is uncovered")
	}
	return out
}

func toGrayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

var (
	sobelX = [3][3]int{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY = [3][3]int{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

// countEdges counts pixels whose Sobel gradient magnitude exceeds threshold.
func countEdges(gray *image.Gray, threshold float64) int {
	b := gray.Bounds()
	count := 0
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := float64(gray.GrayAt(x+kx, y+ky).Y)
					gx += v * float64(sobelX[ky+1][kx+1])
					gy += v * float64(sobelY[ky+1][kx+1])
				}
			}
			if math.Hypot(gx, gy) > threshold {
				count++
			}
		}
	}
	return count
}
