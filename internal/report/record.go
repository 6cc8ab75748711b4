package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// RunRecord is the summary written next to each run's video. Video is empty
// when no frame was encoded.
type RunRecord struct {
	Run             int       `yaml:"run"`
	SessionID       string    `yaml:"session_id"`
	Participant     string    `yaml:"participant"`
	ScanType        string    `yaml:"scan_type"`
	TriggerWallTime time.Time `yaml:"trigger_wall_time"`
	PlannedDuration float64   `yaml:"planned_duration"`
	ActualDuration  float64   `yaml:"actual_duration"`
	Frames          uint64    `yaml:"frames"`
	Encoded         uint64    `yaml:"encoded"`
	Dropped         uint64    `yaml:"dropped"`
	ReadFailures    int       `yaml:"read_failures"`
	QueueStalls     uint64    `yaml:"queue_stalls"`
	Aborted         bool      `yaml:"aborted"`
	Video           string    `yaml:"video,omitempty"`
	Aperture        []int     `yaml:"aperture,omitempty,flow"`
	FrameRate       []Bin     `yaml:"frame_rate,omitempty"`
	Onsets          []Onset   `yaml:"onsets,omitempty"`
}

// WriteRunRecord saves rec as YAML at path.
func WriteRunRecord(rec *RunRecord, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("run record: %w", err)
	}

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(rec); err != nil {
		f.Close()
		return fmt.Errorf("run record %s: %w", filepath.Base(path), err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("run record %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
