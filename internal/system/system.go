package system

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
)

// InitResourceLimits raises the open file limit; every run keeps a video
// pipe, a log and several result files open at once.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Could not read the open file limit: %v", err)
		return
	}

	if rLimit.Cur >= 1024 {
		return
	}
	rLimit.Cur = 1024
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Printf("[!] Could not raise the open file limit: %v", err)
	}
}

// GetBestH264Encoder picks a hardware H.264 encoder when ffmpeg has one.
func GetBestH264Encoder() string {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	return pickEncoder(string(out))
}

func pickEncoder(listing string) string {
	// VideoToolbox (macOS), then NVENC, then software
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(listing, name) {
			return name
		}
	}
	return "libx264"
}

// CheckFFmpeg reports whether ffmpeg can be started.
func CheckFFmpeg() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	return nil
}

// NewSessionLogger opens a JSON log file for the session. The caller closes
// the returned file.
func NewSessionLogger(path string, level slog.Level) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open session log: %w", err)
	}
	h := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})
	return slog.New(h), f, nil
}
