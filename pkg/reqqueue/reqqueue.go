// Package reqqueue implements the bounded cross-thread request queue other
// goroutines use to run work on the NAT thread, modeled on VirtualBox's
// RTReqQueue: a request is either fire-and-forget (Post) or posted and
// waited on for completion (CallAndWait).
package reqqueue

import (
	"context"
	"sync"

	"github.com/slirpnat/slirpnat/pkg/bridgeerr"
)

// Func is work to run on the consumer thread. It must not block.
type Func func()

// Notifier is poked once per enqueue so the consumer's wait primitive
// (a poll-wait for the NAT thread, an event for the receive thread)
// returns promptly. *wakeup.Channel satisfies this directly.
type Notifier interface{ Notify() }

type request struct {
	fn   Func
	done chan struct{}
}

// Queue is a bounded multi-producer, single-consumer request queue. Any
// goroutine may Post or CallAndWait; only the consumer thread should call
// Drain.
type Queue struct {
	wake Notifier

	mu       sync.Mutex
	pending  []*request
	capacity int
}

// New creates a queue with the given capacity and the notifier it pokes
// whenever a request is enqueued.
func New(capacity int, wake Notifier) *Queue {
	return &Queue{pending: make([]*request, 0, capacity), capacity: capacity, wake: wake}
}

// Post enqueues fn and returns immediately without waiting for it to run.
// Returns bridgeerr.ErrWouldBlock if the queue is full.
func (q *Queue) Post(fn Func) error {
	q.mu.Lock()
	if len(q.pending) >= q.capacity {
		q.mu.Unlock()
		return bridgeerr.ErrWouldBlock
	}
	q.pending = append(q.pending, &request{fn: fn})
	q.mu.Unlock()
	q.wake.Notify()
	return nil
}

// CallAndWait enqueues fn and blocks until the NAT thread has run it, or
// until ctx is done. Mirrors RTReqQueueCallEx's caller-blocks-on-completion
// behavior; a ctx deadline plays the role of the original's VERR_TIMEOUT.
func (q *Queue) CallAndWait(ctx context.Context, fn Func) error {
	req := &request{fn: fn, done: make(chan struct{})}

	q.mu.Lock()
	if len(q.pending) >= q.capacity {
		q.mu.Unlock()
		return bridgeerr.ErrWouldBlock
	}
	q.pending = append(q.pending, req)
	q.mu.Unlock()
	q.wake.Notify()

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return bridgeerr.ErrTimeout
	}
}

// Drain runs every currently-pending request in FIFO order. Must only be
// called from the queue's consumer thread (the NAT thread for the engine
// queue, the receive thread for the receive queue): request Funcs are
// allowed to assume that.
func (q *Queue) Drain() {
	q.mu.Lock()
	batch := q.pending
	q.pending = make([]*request, 0, q.capacity)
	q.mu.Unlock()

	for _, req := range batch {
		req.fn()
		if req.done != nil {
			close(req.done)
		}
	}
}

// Len reports the number of requests currently pending.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
