package clock

import (
	"sync"
	"time"
)

// Clock measures seconds since its last Reset. The trigger wait resets every
// run clock at the same instant so that frame timestamps, countdown and run
// duration share one zero point.
type Clock struct {
	mu    sync.Mutex
	now   func() time.Time
	start time.Time
}

// NewWithSource builds a clock on a custom time source (tests drive a fake).
func NewWithSource(now func() time.Time) *Clock {
	return &Clock{now: now, start: now()}
}

// Reset moves the zero point to the current instant and returns it.
func (c *Clock) Reset() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = c.now()
	return c.start
}

// ResetTo moves the zero point to t.
func (c *Clock) ResetTo(t time.Time) {
	c.mu.Lock()
	c.start = t
	c.mu.Unlock()
}

// Seconds returns the time elapsed since the last reset.
func (c *Clock) Seconds() float64 {
	return c.Elapsed().Seconds()
}

func (c *Clock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now().Sub(c.start)
}

// Now returns the wall time from the clock's source.
func (c *Clock) Now() time.Time {
	return c.now()
}

// Fake is a manually advanced time source.
type Fake struct {
	mu sync.Mutex
	t  time.Time
}

func NewFake(t time.Time) *Fake {
	return &Fake{t: t}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}
