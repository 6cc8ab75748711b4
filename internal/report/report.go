package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Bin is one row of the frame-rate distribution: Seconds is how many whole
// seconds of the run contained exactly FramesPerSecond frames.
type Bin struct {
	FramesPerSecond int `yaml:"fps"`
	Seconds         int `yaml:"seconds"`
}

// WriteTimestamps stores one timestamp per line, in seconds since trigger.
func WriteTimestamps(path string, ts []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := writeTimestamps(f, ts); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func writeTimestamps(w io.Writer, ts []float64) error {
	var b strings.Builder
	for _, t := range ts {
		b.WriteString(strconv.FormatFloat(t, 'f', 6, 64))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// FrameRateDistribution buckets timestamps by whole second and counts how
// many seconds had each frame count. Bins are sorted by frame count.
func FrameRateDistribution(ts []float64) []Bin {
	perSecond := make(map[int]int)
	for _, t := range ts {
		perSecond[int(math.Floor(t))]++
	}

	counts := make(map[int]int)
	for _, n := range perSecond {
		counts[n]++
	}

	bins := make([]Bin, 0, len(counts))
	for fps, secs := range counts {
		bins = append(bins, Bin{FramesPerSecond: fps, Seconds: secs})
	}
	sort.Slice(bins, func(i, j int) bool { return bins[i].FramesPerSecond < bins[j].FramesPerSecond })
	return bins
}

// PrintDiagnostics prints the per-run timing banner for the RA.
func PrintDiagnostics(w io.Writer, run int, bins []Bin) {
	rule := strings.Repeat("*", 58)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Run %d Timing Diagnostics:\n", run)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Frequency: Frames Within Each Second")
	if len(bins) == 0 {
		fmt.Fprintln(w, "  no frames recorded")
	}
	for _, b := range bins {
		fmt.Fprintf(w, "  %3d fps : %d s\n", b.FramesPerSecond, b.Seconds)
	}
	fmt.Fprintln(w, rule)
}

// WriteDistribution stores the distribution as CSV.
func WriteDistribution(path string, bins []Bin) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Write([]string{"frames_per_second", "seconds"})
	for _, b := range bins {
		w.Write([]string{strconv.Itoa(b.FramesPerSecond), strconv.Itoa(b.Seconds)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
