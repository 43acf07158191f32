// Package fakeport is a channel-backed deviceport.Port test double that
// lets tests drive receive-path back-pressure deterministically.
package fakeport

import (
	"sync"
	"time"

	"github.com/slirpnat/slirpnat/pkg/bridgeerr"
)

// Port is a fake deviceport.Port. Ready gates WaitReceiveAvailable: it
// blocks until a value is sent on Ready, or timeout elapses.
type Port struct {
	Ready chan struct{}

	mu       sync.Mutex
	Received [][]byte
}

// New creates a fake port whose Ready channel holds a single token: the
// first wait succeeds immediately, and each later wait blocks until Allow
// (or a value sent on Ready) supplies another one, or its timeout elapses.
func New() *Port {
	ready := make(chan struct{}, 1)
	ready <- struct{}{}
	return &Port{Ready: ready}
}

func (p *Port) WaitReceiveAvailable(timeout time.Duration) error {
	if timeout < 0 {
		<-p.Ready
		return nil
	}
	select {
	case <-p.Ready:
		return nil
	case <-time.After(timeout):
		return bridgeerr.ErrTimeout
	}
}

func (p *Port) Receive(frame []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Received = append(p.Received, append([]byte(nil), frame...))
	return nil
}

// ReceivedCount reports how many frames have been accepted so far.
func (p *Port) ReceivedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Received)
}

// Allow makes one more WaitReceiveAvailable call succeed.
func (p *Port) Allow() {
	select {
	case p.Ready <- struct{}{}:
	default:
	}
}
