package display

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// RGB is a color parsed from the site config.
type RGB struct {
	R, G, B uint8
}

// ParseHex reads "#3EB4F0" style colors.
func ParseHex(s string) (RGB, error) {
	var c RGB
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return c, fmt.Errorf("bad color %q", s)
	}
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, fmt.Errorf("bad color %q: %w", s, err)
	}
	return c, nil
}

// Wrap breaks text into lines of at most width characters. Existing line
// breaks are kept; a single word longer than width gets its own line.
func Wrap(text string, width int) []string {
	if width <= 0 {
		return strings.Split(text, "\n")
	}

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len(line)+1+len(w) > width {
				lines = append(lines, line)
				line = w
				continue
			}
			line += " " + w
		}
		lines = append(lines, line)
	}
	return lines
}

// FontPath returns the configured font, a TTF from ./fonts, or a common
// system font, in that order. Empty when nothing is found.
func FontPath(configured string) string {
	if configured != "" {
		return configured
	}

	entries, err := os.ReadDir("fonts")
	if err == nil {
		for _, entry := range entries {
			if !entry.IsDir() {
				ext := strings.ToLower(filepath.Ext(entry.Name()))
				if ext == ".ttf" || ext == ".ttc" {
					return filepath.Join("fonts", entry.Name())
				}
			}
		}
	}

	var paths []string
	switch runtime.GOOS {
	case "windows":
		paths = []string{"C:\\Windows\\Fonts\\arial.ttf"}
	case "darwin":
		paths = []string{"/System/Library/Fonts/Helvetica.ttc", "/Library/Fonts/Arial.ttf"}
	default:
		paths = []string{
			"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		}
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// letterPixels converts a letter height given in degrees of visual angle to
// pixels for a monitor of widthCM at distanceCM, resX pixels across.
func letterPixels(deg, widthCM, distanceCM float64, resX int) float32 {
	if widthCM <= 0 || distanceCM <= 0 || resX <= 0 {
		return float32(deg * 20)
	}
	cmPerDeg := distanceCM * 0.017455 // tan(1 deg)
	return float32(deg * cmPerDeg * float64(resX) / widthCM)
}
