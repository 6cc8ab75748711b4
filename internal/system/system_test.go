package system

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRequirementsCheck(t *testing.T) {
	tests := []struct {
		name string
		host Host
		want int
	}{
		{"ok", Host{CPUs: 8, MemoryGB: 16, FreeDiskGB: 100}, 0},
		{"small", Host{CPUs: 1, MemoryGB: 4, FreeDiskGB: 1}, 3},
		{"disk", Host{CPUs: 4, MemoryGB: 8, FreeDiskGB: 4.9}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultRequirements.Check(tt.host)
			if len(got) != tt.want {
				t.Errorf("Expected %d warnings, got %v", tt.want, got)
			}
		})
	}
}

func TestPickEncoder(t *testing.T) {
	listing := " V....D libx264   libx264 H.264\n V....D h264_nvenc  NVIDIA NVENC H.264 encoder\n"
	if got := pickEncoder(listing); got != "h264_nvenc" {
		t.Errorf("Expected h264_nvenc, got %s", got)
	}
	if got := pickEncoder(" V....D libx264 \n"); got != "libx264" {
		t.Errorf("Expected libx264, got %s", got)
	}
}

func TestProbe(t *testing.T) {
	h, err := Probe(t.TempDir())
	if err != nil {
		t.Skipf("host probing unavailable: %v", err)
	}
	if h.CPUs < 1 || h.MemoryGB <= 0 {
		t.Errorf("implausible host %+v", h)
	}
}

func TestNewSessionLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "REST_S01.log")
	logger, closer, err := NewSessionLogger(path, slog.LevelInfo)
	if err != nil {
		t.Fatalf("NewSessionLogger failed: %v", err)
	}
	logger.Info("trigger received", "run", 1)
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"msg":"trigger received"`) || !strings.Contains(string(data), `"run":1`) {
		t.Errorf("unexpected log line %s", data)
	}
}
