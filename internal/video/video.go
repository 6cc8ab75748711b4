package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/ivlev/eyecam/internal/camera"
)

// FrameWriter appends frames to a video file. Close finalizes the file and
// must be called exactly once, even when no frame was written.
type FrameWriter interface {
	WriteFrame(f *camera.Frame) error
	Close() error
}

// Params describes the encoded output.
type Params struct {
	Path    string
	FPS     float64
	Encoder string // libx264, h264_nvenc, h264_videotoolbox
	Quality int
}

// FFmpegWriter pipes raw BGR frames into an ffmpeg child process. The process
// starts with the first frame, whose size fixes the size of the video; a
// writer that never saw a frame creates no file.
type FFmpegWriter struct {
	ctx    context.Context
	params Params

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	out    bytes.Buffer
	width  int
	height int
}

// NewFFmpegWriter prepares a writer; ctx bounds the lifetime of the ffmpeg
// process.
func NewFFmpegWriter(ctx context.Context, params Params) *FFmpegWriter {
	if params.Encoder == "" {
		params.Encoder = "libx264"
	}
	if params.FPS <= 0 {
		params.FPS = 30
	}
	return &FFmpegWriter{ctx: ctx, params: params}
}

func (w *FFmpegWriter) start(width, height int) error {
	args := buildFFmpegArgs(width, height, w.params)
	cmd := exec.CommandContext(w.ctx, "ffmpeg", args...)
	cmd.Stdout = &w.out
	cmd.Stderr = &w.out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	w.cmd = cmd
	w.stdin = stdin
	w.width = width
	w.height = height
	return nil
}

func (w *FFmpegWriter) WriteFrame(f *camera.Frame) error {
	if w.cmd == nil {
		if err := w.start(f.Width, f.Height); err != nil {
			return err
		}
	}
	if f.Width != w.width || f.Height != w.height {
		return fmt.Errorf("frame %d is %dx%d, video is %dx%d", f.Seq, f.Width, f.Height, w.width, w.height)
	}
	if _, err := w.stdin.Write(f.Pix); err != nil {
		return fmt.Errorf("write raw error: %w, output: %s", err, w.out.String())
	}
	return nil
}

// Close ends the stream and waits for ffmpeg to finish the file.
func (w *FFmpegWriter) Close() error {
	if w.cmd == nil {
		return nil
	}
	w.stdin.Close()
	if err := w.cmd.Wait(); err != nil {
		if errors.Is(w.ctx.Err(), context.Canceled) {
			return nil
		}
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", err, w.out.String())
	}
	return nil
}

func buildFFmpegArgs(width, height int, p Params) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "bgr24",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", fmt.Sprintf("%g", p.FPS),
		"-i", "-",
		"-pix_fmt", "yuv420p",
		"-c:v", p.Encoder,
	}

	switch p.Encoder {
	case "h264_videotoolbox":
		bitrate := p.Quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", p.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", p.Quality), "-preset", "veryfast")
	}

	args = append(args, p.Path)
	return args
}
