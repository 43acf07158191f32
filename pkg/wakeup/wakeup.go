// Package wakeup implements the one-byte pollable signal used to break the
// NAT thread out of its poll wait, from any other thread.
package wakeup

import (
	"log/slog"
	"os"
	"sync/atomic"
)

// Channel is a pollable one-byte signal. Any goroutine may call Notify;
// only the owning poll loop should call Drain.
type Channel struct {
	r, w *os.File

	// outstanding tracks bytes written minus bytes drained, so Drain
	// never reads more than was actually written.
	outstanding atomic.Uint64
}

// New creates a wakeup channel backed by an OS pipe. The read end is
// returned separately via ReadFD so callers can register it in a poll set.
func New() (*Channel, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	return &Channel{r: r, w: w}, nil
}

// ReadFD returns the native descriptor to register for readability.
func (c *Channel) ReadFD() uintptr { return c.r.Fd() }

// Notify writes exactly one byte. Safe to call from any goroutine,
// concurrently, any number of times. Write failures are logged and
// otherwise ignored: a subsequent timer tick still advances the loop.
func (c *Channel) Notify() {
	if _, err := c.w.Write([]byte{0}); err != nil {
		slog.Warn("wakeup: notify write failed", "err", err)
		return
	}
	c.outstanding.Add(1)
}

// Outstanding returns the number of bytes written but not yet drained.
func (c *Channel) Outstanding() uint64 { return c.outstanding.Load() }

// Drain reads up to min(1024, Outstanding()) bytes and subtracts the
// drained count. Call this once per poll round in which the read end
// signaled readable.
func (c *Channel) Drain() {
	want := c.outstanding.Load()
	if want == 0 {
		return
	}
	if want > 1024 {
		want = 1024
	}
	buf := make([]byte, want)
	n, err := c.r.Read(buf)
	if n > 0 {
		c.outstanding.Add(^uint64(n - 1)) // atomic subtract
	}
	if err != nil && n == 0 {
		slog.Warn("wakeup: drain read failed", "err", err)
	}
}

// Close releases both ends of the pipe.
func (c *Channel) Close() error {
	errW := c.w.Close()
	errR := c.r.Close()
	if errW != nil {
		return errW
	}
	return errR
}
