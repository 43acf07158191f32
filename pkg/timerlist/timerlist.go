// Package timerlist implements the singly-linked timer list driven off the
// NAT poll loop's timeout. Timers are linked newest first, not sorted by
// expiry; every walk visits the whole list. It is deliberately a flat
// list rather than a priority queue: the engine this bridges to arms at
// most a handful of timers at once.
package timerlist

import "sync"

// DefaultTimeoutMS is the tentative poll timeout used when no timer is
// armed sooner.
const DefaultTimeoutMS = 3600 * 1000

// Handler is invoked synchronously on the NAT thread when a timer expires.
// It may create, modify, or free further timers, including itself.
type Handler func(opaque any)

// Timer is one node in the list. ExpiryMS of 0 means disarmed.
type Timer struct {
	next     *Timer
	expiryMS int64
	handler  Handler
	opaque   any
}

// List is the head of the timer list. All methods are safe for concurrent
// use, but only the NAT thread is expected to call New, Mod, Free,
// ClampTimeout, and FireExpired in practice.
type List struct {
	mu   sync.Mutex
	head *Timer
}

// New allocates a disarmed timer and links it at the head.
func (l *List) New(h Handler, opaque any) *Timer {
	l.mu.Lock()
	defer l.mu.Unlock()
	t := &Timer{handler: h, opaque: opaque, next: l.head}
	l.head = t
	return t
}

// Mod sets the expiry (in milliseconds, same clock as nowMS passed to
// ClampTimeout/FireExpired) without relinking the timer.
func (l *List) Mod(t *Timer, expiryMS int64) {
	l.mu.Lock()
	t.expiryMS = expiryMS
	l.mu.Unlock()
}

// Free unlinks every node equal to t from the list.
func (l *List) Free(t *Timer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for cur, prev := l.head, (*Timer)(nil); cur != nil; {
		next := cur.next
		if cur == t {
			if prev == nil {
				l.head = next
			} else {
				prev.next = next
			}
		} else {
			prev = cur
		}
		cur = next
	}
}

// ClampTimeout walks the list and reduces *timeoutMS to
// max(0, earliest_expiry - nowMS), leaving it untouched if no armed timer
// expires sooner.
func (l *List) ClampTimeout(timeoutMS *uint32, nowMS int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for cur := l.head; cur != nil; cur = cur.next {
		if cur.expiryMS == 0 {
			continue
		}
		diff := cur.expiryMS - nowMS
		if diff < 0 {
			diff = 0
		}
		if uint32(diff) < *timeoutMS {
			*timeoutMS = uint32(diff)
		}
	}
}

// FireExpired walks the list and synchronously invokes the handler of
// every armed timer whose expiry has passed, clearing its expiry first so
// a handler that reschedules itself doesn't refire in the same pass.
//
// Handlers may mutate the list (including freeing the timer they were
// called for); FireExpired reads cur.next before invoking the handler so
// that remains safe.
func (l *List) FireExpired(nowMS int64) {
	l.mu.Lock()
	cur := l.head
	l.mu.Unlock()

	for cur != nil {
		l.mu.Lock()
		next := cur.next
		expiry := cur.expiryMS
		if expiry != 0 && expiry <= nowMS {
			cur.expiryMS = 0
		}
		l.mu.Unlock()

		if expiry != 0 && expiry <= nowMS {
			cur.handler(cur.opaque)
		}
		cur = next
	}
}
