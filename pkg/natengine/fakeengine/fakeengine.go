// Package fakeengine is a deterministic natengine.Engine test double: it
// records every frame handed to Input and lets tests drive the guest
// delivery callback without a real TCP/IP stack.
package fakeengine

import (
	"sync"

	"github.com/slirpnat/slirpnat/pkg/natengine"
)

// Engine is a fake natengine.Engine. Zero value is not usable; use New.
type Engine struct {
	cb natengine.Callbacks

	mu          sync.Mutex
	Inputs      [][]byte
	HostFwds    []HostFwdCall
	DomainName  string
	DNSSearch   []string
	CleanedUp   bool
	FillTimeout *uint32

	// InputErr, when non-nil, is returned by every Input call.
	InputErr error
}

// HostFwdCall records an AddHostFwd/RemoveHostFwd invocation.
type HostFwdCall struct {
	Add       bool
	UDP       bool
	HostIP    string
	GuestIP   string
	HostPort  int
	GuestPort int
}

// New constructs a fake engine bound to cb, matching the
// natengine.Constructor shape.
func New(_ natengine.Config, cb natengine.Callbacks) (natengine.Engine, error) {
	return &Engine{cb: cb}, nil
}

func (e *Engine) Input(frame []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.InputErr != nil {
		return e.InputErr
	}
	cp := append([]byte(nil), frame...)
	e.Inputs = append(e.Inputs, cp)
	return nil
}

func (e *Engine) PollFDsFill(timeoutMS *uint32, add natengine.AddFDFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := *timeoutMS
	e.FillTimeout = &t
}

func (e *Engine) PollFDsPoll(errFlag bool, get natengine.GetREventsFunc) {}

func (e *Engine) AddHostFwd(udp bool, hostIP string, hostPort int, guestIP string, guestPort int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.HostFwds = append(e.HostFwds, HostFwdCall{Add: true, UDP: udp, HostIP: hostIP, HostPort: hostPort, GuestIP: guestIP, GuestPort: guestPort})
	return nil
}

func (e *Engine) RemoveHostFwd(udp bool, hostIP string, hostPort int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.HostFwds = append(e.HostFwds, HostFwdCall{Add: false, UDP: udp, HostIP: hostIP, HostPort: hostPort})
	return nil
}

func (e *Engine) SetVDomainName(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.DomainName = name
}

func (e *Engine) SetVDNSSearch(domains []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.DNSSearch = append([]string(nil), domains...)
}

func (e *Engine) ConnectionInfo() string { return "fake connections: 0" }
func (e *Engine) NeighborInfo() string   { return "fake neighbors: 0" }
func (e *Engine) VersionString() string  { return "fakeengine/0.0" }

func (e *Engine) Cleanup() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.CleanedUp = true
}

// DeliverToGuest exercises the callback side of the contract: it calls the
// bound Callbacks.SendPacketToGuest as if the engine had a frame ready.
func (e *Engine) DeliverToGuest(frame []byte) int {
	return e.cb.SendPacketToGuest(frame)
}

// InputCount reports how many frames have been handed to Input so far.
func (e *Engine) InputCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Inputs)
}
