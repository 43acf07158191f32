package reqqueue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/slirpnat/slirpnat/pkg/bridgeerr"
	"github.com/slirpnat/slirpnat/pkg/wakeup"
)

func newTestQueue(t *testing.T, capacity int) (*Queue, *wakeup.Channel) {
	t.Helper()
	w, err := wakeup.New()
	if err != nil {
		t.Fatalf("wakeup.New: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return New(capacity, w), w
}

func TestPostPokesWakeupAndDrainRuns(t *testing.T) {
	q, w := newTestQueue(t, 4)

	var ran bool
	if err := q.Post(func() { ran = true }); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if w.Outstanding() != 1 {
		t.Fatalf("Outstanding() = %d, want 1", w.Outstanding())
	}

	q.Drain()
	if !ran {
		t.Fatalf("request did not run")
	}
}

func TestPostReturnsWouldBlockWhenFull(t *testing.T) {
	q, _ := newTestQueue(t, 1)

	if err := q.Post(func() {}); err != nil {
		t.Fatalf("first Post: %v", err)
	}
	if err := q.Post(func() {}); err != bridgeerr.ErrWouldBlock {
		t.Fatalf("second Post err = %v, want ErrWouldBlock", err)
	}
}

func TestCallAndWaitBlocksUntilDrain(t *testing.T) {
	q, _ := newTestQueue(t, 4)

	var wg sync.WaitGroup
	wg.Add(1)
	var callErr error
	go func() {
		defer wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		callErr = q.CallAndWait(ctx, func() {})
	}()

	// give the goroutine a chance to enqueue before draining
	time.Sleep(10 * time.Millisecond)
	q.Drain()
	wg.Wait()

	if callErr != nil {
		t.Fatalf("CallAndWait: %v", callErr)
	}
}

func TestCallAndWaitTimesOutIfNeverDrained(t *testing.T) {
	q, _ := newTestQueue(t, 4)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.CallAndWait(ctx, func() {})
	if err != bridgeerr.ErrTimeout {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}
