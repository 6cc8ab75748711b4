package video

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ivlev/eyecam/internal/camera"
)

// DefaultQueueCapacity bounds the hand-off between capture and encoding.
const DefaultQueueCapacity = 256

// HandOff is the bounded FIFO between the capture loop and the encoder. A
// full queue blocks the producer; every push that had to wait is counted.
type HandOff struct {
	ch     chan *camera.Frame
	stalls atomic.Uint64
	once   sync.Once
}

func NewHandOff(capacity int) *HandOff {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &HandOff{ch: make(chan *camera.Frame, capacity)}
}

// Push enqueues f, waiting for room unless ctx is done first.
func (h *HandOff) Push(ctx context.Context, f *camera.Frame) error {
	select {
	case h.ch <- f:
		return nil
	default:
	}

	h.stalls.Add(1)
	select {
	case h.ch <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close tells the encoder no more frames will come. Safe to call twice.
func (h *HandOff) Close() {
	h.once.Do(func() { close(h.ch) })
}

func (h *HandOff) Frames() <-chan *camera.Frame {
	return h.ch
}

func (h *HandOff) Stalls() uint64 {
	return h.stalls.Load()
}

// Stats summarizes one encoder run.
type Stats struct {
	Written uint64
	Dropped uint64
}

// Encoder drains a frame channel into a FrameWriter.
type Encoder struct {
	Writer FrameWriter
	Logger *slog.Logger
}

func NewEncoder(w FrameWriter, logger *slog.Logger) *Encoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Encoder{Writer: w, Logger: logger}
}

// Run writes frames in arrival order until frames is closed, then closes the
// writer. If ctx is cancelled first the frames still queued are discarded and
// the writer is closed all the same. A write error stops the run; the
// remaining frames are discarded.
func (e *Encoder) Run(ctx context.Context, frames <-chan *camera.Frame) (Stats, error) {
	var st Stats
	runErr := e.consume(ctx, frames, &st)

	if runErr != nil || ctx.Err() != nil {
		st.Dropped += discard(frames)
	}

	if err := e.Writer.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("close video: %w", err)
	}

	e.Logger.Info("encoder finished", "written", st.Written, "dropped", st.Dropped, "err", runErr)
	return st, runErr
}

func (e *Encoder) consume(ctx context.Context, frames <-chan *camera.Frame, st *Stats) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case f, ok := <-frames:
			if !ok {
				return nil
			}
			if ctx.Err() != nil {
				st.Dropped++
				return nil
			}
			if err := e.Writer.WriteFrame(f); err != nil {
				st.Dropped++
				return fmt.Errorf("encode frame %d: %w", f.Seq, err)
			}
			st.Written++
		}
	}
}

// discard empties whatever is buffered without waiting for more.
func discard(frames <-chan *camera.Frame) uint64 {
	var n uint64
	for {
		select {
		case _, ok := <-frames:
			if !ok {
				return n
			}
			n++
		default:
			return n
		}
	}
}
