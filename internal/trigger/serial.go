package trigger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ivlev/eyecam/internal/keys"
	"go.bug.st/serial"
)

// StreamSource turns bytes arriving from a trigger box into key presses. Most
// boxes emulate a keyboard and send the same character ('5', 't', ...) they
// would type over USB.
type StreamSource struct {
	r      io.ReadCloser
	keys   chan string
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

// OpenSerial opens a serial trigger box.
func OpenSerial(port string, baud int, logger *slog.Logger) (*StreamSource, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, fmt.Errorf("open trigger port %s: %w", port, err)
	}
	if err := p.SetReadTimeout(50 * time.Millisecond); err != nil {
		p.Close()
		return nil, err
	}
	if err := p.ResetInputBuffer(); err != nil {
		p.Close()
		return nil, err
	}
	return NewStreamSource(p, logger), nil
}

// NewStreamSource starts reading r in the background.
func NewStreamSource(r io.ReadCloser, logger *slog.Logger) *StreamSource {
	if logger == nil {
		logger = slog.Default()
	}
	s := &StreamSource{
		r:      r,
		keys:   make(chan string, 64),
		done:   make(chan struct{}),
		logger: logger,
	}
	go s.readLoop()
	return s
}

func (s *StreamSource) readLoop() {
	buf := make([]byte, 16)
	for {
		n, err := s.r.Read(buf)
		for _, b := range buf[:n] {
			if b < 32 || b >= 127 {
				continue
			}
			select {
			case s.keys <- keys.Normalize(string(rune(b))):
			case <-s.done:
				return
			default:
				s.logger.Warn("trigger input dropped", "byte", b)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				select {
				case <-s.done:
				default:
					s.logger.Error("trigger port read failed", "err", err)
				}
			}
			return
		}
		select {
		case <-s.done:
			return
		default:
		}
	}
}

func (s *StreamSource) PollKeys() []string {
	var out []string
	for {
		select {
		case k := <-s.keys:
			out = append(out, k)
		default:
			return out
		}
	}
}

func (s *StreamSource) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.r.Close()
	})
	return err
}
