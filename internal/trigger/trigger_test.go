package trigger

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ivlev/eyecam/internal/clock"
	"github.com/ivlev/eyecam/internal/keys"
)

// script hands out one batch of keys per poll, then nothing.
type script struct {
	batches [][]string
	polls   int
}

func (s *script) PollKeys() []string {
	s.polls++
	if len(s.batches) == 0 {
		return nil
	}
	b := s.batches[0]
	s.batches = s.batches[1:]
	return b
}

func TestWaitIgnoresOtherKeys(t *testing.T) {
	src := &script{batches: [][]string{{"a", "space"}, nil, {"6", "t"}, {"5"}, {"escape"}}}

	fake := clock.NewFake(time.Date(2017, 2, 1, 10, 0, 0, 0, time.UTC))
	runClock := clock.NewWithSource(fake.Now)
	frameClock := clock.NewWithSource(fake.Now)
	fake.Advance(42 * time.Second)

	ev, err := Wait(context.Background(), src, Options{TriggerKey: "5", AbortKey: "escape", PollInterval: time.Microsecond}, runClock, frameClock)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	if ev.Key != "5" {
		t.Errorf("Expected trigger key 5, got %q", ev.Key)
	}
	if src.polls != 4 {
		t.Errorf("Expected Wait to return on the 4th poll, got %d polls", src.polls)
	}
	if !ev.At.Equal(fake.Now()) {
		t.Errorf("Expected trigger time %v, got %v", fake.Now(), ev.At)
	}
	if runClock.Seconds() != 0 || frameClock.Seconds() != 0 {
		t.Errorf("clocks not reset: %f %f", runClock.Seconds(), frameClock.Seconds())
	}
}

func TestWaitAbort(t *testing.T) {
	src := &script{batches: [][]string{{"x"}, {"Escape"}, {"5"}}}
	_, err := Wait(context.Background(), normalized{src}, Options{TriggerKey: "5", AbortKey: "escape", PollInterval: time.Microsecond})
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("Expected ErrAborted, got %v", err)
	}
}

func TestWaitFirstKeyInBatchWins(t *testing.T) {
	src := &script{batches: [][]string{{"5", "escape"}}}
	if _, err := Wait(context.Background(), src, Options{TriggerKey: "5", AbortKey: "escape"}); err != nil {
		t.Fatalf("trigger listed first should win, got %v", err)
	}
}

func TestWaitContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Wait(ctx, &script{}, Options{TriggerKey: "5", AbortKey: "escape"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline error, got %v", err)
	}
}

func TestWaitFor(t *testing.T) {
	src := &script{batches: [][]string{{"x", "y"}, {"space"}}}
	k, err := WaitFor(context.Background(), src, "escape", "space")
	if err != nil || k != keys.Space {
		t.Fatalf("Expected space, got %q, %v", k, err)
	}

	src = &script{batches: [][]string{{"escape"}}}
	if _, err := WaitFor(context.Background(), src, "escape", "space"); !errors.Is(err, ErrAborted) {
		t.Fatalf("Expected ErrAborted, got %v", err)
	}
}

func TestMerge(t *testing.T) {
	a := &script{batches: [][]string{{"a"}}}
	b := &script{batches: [][]string{{"b", "c"}}}

	got := Merge(a, nil, b).PollKeys()
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("unexpected merged keys %v", got)
	}
}

func TestStreamSource(t *testing.T) {
	pr, pw := io.Pipe()
	src := NewStreamSource(pr, nil)
	defer src.Close()

	go pw.Write([]byte("t5\r\n"))

	var got []string
	deadline := time.Now().Add(time.Second)
	for len(got) < 2 && time.Now().Before(deadline) {
		got = append(got, src.PollKeys()...)
		time.Sleep(time.Millisecond)
	}

	if len(got) != 2 || got[0] != "t" || got[1] != "5" {
		t.Fatalf("Expected [t 5], got %v", got)
	}

	go pw.Write([]byte("x5"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := Wait(ctx, Merge(&script{}, src), Options{TriggerKey: "5", AbortKey: "escape"})
	if err != nil {
		t.Fatalf("Wait on serial input failed: %v", err)
	}
	if ev.Key != "5" {
		t.Errorf("Expected key 5, got %q", ev.Key)
	}
}

// normalized passes keys through keys.Normalize like the real backends do.
type normalized struct{ s keys.Source }

func (n normalized) PollKeys() []string {
	var out []string
	for _, k := range n.s.PollKeys() {
		out = append(out, keys.Normalize(k))
	}
	return out
}
