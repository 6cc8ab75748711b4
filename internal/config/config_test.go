package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const siteYAML = `
trigger: "5"
monitor:
  screen: 1
  width: 53
  distance: 120
style:
  titleLetterSize: 3
  textLetterSize: 1.5
  fixLetterSize: 2.5
  wrapWidth: 30
  subtitleLetterSize: 1
  verbalColor: '#3EB4F0'
record: 'yes'
use_aperture: 'yes'
aperture: [100, 300, 50, 250]
dualCam: 1
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "siteConfig.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "siteConfig.yaml"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "siteConfig.yaml.example") {
		t.Errorf("error should tell the operator what to copy: %v", err)
	}
}

func TestLoadSiteFile(t *testing.T) {
	cfg, err := Load(writeFile(t, siteYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Trigger != "5" {
		t.Errorf("Expected trigger 5, got %q", cfg.Trigger)
	}
	if !cfg.Record || !cfg.UseAperture || !cfg.DualCam {
		t.Errorf("yes/1 switches not parsed: record=%v use_aperture=%v dualCam=%v", cfg.Record, cfg.UseAperture, cfg.DualCam)
	}
	if cfg.Monitor.Screen != 1 {
		t.Errorf("Expected screen 1, got %d", cfg.Monitor.Screen)
	}
	if len(cfg.Aperture) != 4 || cfg.Aperture[1] != 300 {
		t.Errorf("unexpected aperture %v", cfg.Aperture)
	}

	// defaults for keys the file leaves out
	if cfg.AbortKey != "escape" {
		t.Errorf("Expected default abort key, got %q", cfg.AbortKey)
	}
	if cfg.QueueCapacity != 256 {
		t.Errorf("Expected default queue capacity 256, got %d", cfg.QueueCapacity)
	}
	if cfg.Camera.Index != -1 || cfg.Camera.FPS != 30 {
		t.Errorf("unexpected camera defaults %+v", cfg.Camera)
	}
	if cfg.Calibration.Shift != 30 || cfg.Calibration.Scale != 15 {
		t.Errorf("unexpected calibration defaults %+v", cfg.Calibration)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no trigger", "record: 'no'\n"},
		{"bad switch", "trigger: '5'\nrecord: maybe\n"},
		{"short aperture", "trigger: '5'\naperture: [1, 2, 3]\n"},
		{"empty aperture", "trigger: '5'\naperture: [300, 100, 50, 250]\n"},
		{"aperture required", "trigger: '5'\nuse_aperture: yes\n"},
		{"same keys", "trigger: escape\n"},
		{"same keys spelled differently", "trigger: esc\nabort_key: Escape\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeFile(t, tt.yaml)); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestCameraIndex(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DualCam = true
	if got := cfg.CameraIndex(false); got != 1 {
		t.Errorf("dual camera: expected 1, got %d", got)
	}
	if got := cfg.CameraIndex(true); got != 0 {
		t.Errorf("test mode: expected 0, got %d", got)
	}
	cfg.Camera.Index = 3
	if got := cfg.CameraIndex(false); got != 3 {
		t.Errorf("explicit index: expected 3, got %d", got)
	}
}

func TestSaveKeepsAperture(t *testing.T) {
	cfg, err := Load(writeFile(t, siteYAML))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Aperture = []int{10, 20, 30, 40}

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "record: \"yes\"") && !strings.Contains(string(data), "record: yes") {
		t.Errorf("switch should be written as yes/no:\n%s", data)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if back.Aperture[0] != 10 || back.Aperture[3] != 40 {
		t.Errorf("aperture not persisted: %v", back.Aperture)
	}
}
