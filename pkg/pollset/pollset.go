// Package pollset implements the growable POSIX poll(2) array the NAT
// thread waits on every round, plus the event translation table between
// the engine's own flag bits and the host's native poll flags.
package pollset

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Index 0 is permanently reserved for the wakeup channel's read fd so the
// poll loop can always find it without a lookup.
const WakeupIndex = 0

// Set is a growable array of pollfds. It is not safe for concurrent use;
// only the NAT thread touches it.
type Set struct {
	fds []unix.PollFd
}

// NewSet creates a poll set with the wakeup fd pre-registered at index 0.
func NewSet(wakeupFD uintptr) *Set {
	s := &Set{fds: make([]unix.PollFd, 1, 16)}
	s.fds[WakeupIndex] = unix.PollFd{Fd: int32(wakeupFD), Events: unix.POLLIN}
	return s
}

// Add registers fd with the given engine-level flags and returns its index.
// The backing array doubles when full, same growth policy the original
// driver uses for its pPollFds array.
func (s *Set) Add(fd uintptr, flags EngineFlag) int {
	s.fds = append(s.fds, unix.PollFd{Fd: int32(fd), Events: ToHostPOSIX(flags)})
	return len(s.fds) - 1
}

// Reset truncates the set back to just the wakeup fd, ready for the next
// round's registrations.
func (s *Set) Reset() {
	s.fds = s.fds[:1]
}

// Len reports the number of registered descriptors, wakeup fd included.
func (s *Set) Len() int { return len(s.fds) }

// REvents returns the engine-level flags observed for the fd at idx after
// a Wait call. Panics on an out-of-range idx since that is always a
// programming error on the caller's part, never host input.
func (s *Set) REvents(idx int) EngineFlag {
	return FromHostPOSIX(s.fds[idx].Revents)
}

// Wait blocks for up to timeoutMS milliseconds for any registered fd to
// become ready, same semantics as poll(2): returns the count of fds with
// nonzero revents, or 0 on timeout. Signal interruption (EINTR) is treated
// as zero ready rather than an error.
func (s *Set) Wait(timeoutMS int) (int, error) {
	n, err := unix.Poll(s.fds, timeoutMS)
	if err == unix.EINTR {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("pollset: wait: %w", err)
	}
	return n, nil
}
