// Package bridgelog implements an in-memory circular buffer of bridge
// lifecycle events, for anyone that wants to watch the NAT bridge without
// parsing log lines.
package bridgelog

import (
	"strings"
	"sync"
	"time"
)

// Kinds of events. An Instance publishes link_change, redirect_* and
// dns_changed; frame_dropped, timer_fired and wakeup_drain are defined but
// not published by this module.
const (
	KindLinkChange      = "link_change"
	KindRedirectApplied = "redirect_applied"
	KindRedirectRemoved = "redirect_removed"
	KindRedirectFailed  = "redirect_failed"
	KindFrameDropped    = "frame_dropped"
	KindTimerFired      = "timer_fired"
	KindWakeupDrain     = "wakeup_drain"
	KindDNSChanged      = "dns_changed"
)

// Event is a formatted record stored in the Buffer.
type Event struct {
	Time   time.Time
	Kind   string
	Detail string // human-readable summary
	Err    string // non-empty when the event represents a failure
}

// Buffer is a thread-safe circular buffer of recent bridge events.
type Buffer struct {
	mu    sync.RWMutex
	buf   []Event
	size  int
	head  int // next write position
	count int // number of events stored
	seq   uint64

	subMu sync.RWMutex
	subs  map[*Subscription]struct{}
}

// Subscription receives new events pushed to a Buffer.
type Subscription struct {
	C  chan Event
	eb *Buffer
}

// Close unsubscribes and stops further delivery.
func (s *Subscription) Close() {
	s.eb.unsubscribe(s)
}

// NewBuffer creates an event buffer holding up to size records.
func NewBuffer(size int) *Buffer {
	if size < 1 {
		size = 1
	}
	return &Buffer{
		buf:  make([]Event, size),
		size: size,
		subs: make(map[*Subscription]struct{}),
	}
}

// Publish appends an event, overwriting the oldest entry once full.
// Subscribers are notified without blocking; a slow subscriber simply
// misses events rather than stalling the caller (which may be the NAT
// thread itself).
func (eb *Buffer) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	eb.mu.Lock()
	eb.buf[eb.head] = ev
	eb.head = (eb.head + 1) % eb.size
	if eb.count < eb.size {
		eb.count++
	}
	eb.seq++
	eb.mu.Unlock()

	eb.subMu.RLock()
	for sub := range eb.subs {
		select {
		case sub.C <- ev:
		default:
		}
	}
	eb.subMu.RUnlock()
}

// Subscribe returns a Subscription receiving every event added from now on.
// Call Close when done.
func (eb *Buffer) Subscribe(bufSize int) *Subscription {
	if bufSize < 1 {
		bufSize = 64
	}
	sub := &Subscription{C: make(chan Event, bufSize), eb: eb}
	eb.subMu.Lock()
	eb.subs[sub] = struct{}{}
	eb.subMu.Unlock()
	return sub
}

func (eb *Buffer) unsubscribe(sub *Subscription) {
	eb.subMu.Lock()
	delete(eb.subs, sub)
	eb.subMu.Unlock()
}

// Filter restricts Latest results to a single event kind and/or a substring
// match on Detail. A zero-value Filter matches everything.
type Filter struct {
	Kind   string
	Detail string
}

// IsEmpty reports whether the filter matches every event.
func (f Filter) IsEmpty() bool { return f.Kind == "" && f.Detail == "" }

func (f Filter) matches(ev *Event) bool {
	if f.Kind != "" && ev.Kind != f.Kind {
		return false
	}
	if f.Detail != "" && !strings.Contains(strings.ToLower(ev.Detail), strings.ToLower(f.Detail)) {
		return false
	}
	return true
}

// Latest returns the most recent n events, newest first.
func (eb *Buffer) Latest(n int) []Event {
	return eb.LatestFiltered(n, Filter{})
}

// LatestFiltered returns the most recent n events matching f, newest first.
func (eb *Buffer) LatestFiltered(n int, f Filter) []Event {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if n <= 0 {
		return nil
	}

	var result []Event
	for i := 0; i < eb.count && len(result) < n; i++ {
		idx := (eb.head - 1 - i + eb.size) % eb.size
		if f.matches(&eb.buf[idx]) {
			result = append(result, eb.buf[idx])
		}
	}
	return result
}
