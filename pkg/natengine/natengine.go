// Package natengine defines the black-box contract this module bridges
// to: a single-threaded NAT engine library that demultiplexes frames,
// maintains per-connection state, and drives host sockets. This core
// never implements the engine itself; it only calls into one and accepts
// callbacks from it.
package natengine

import "time"

// Callbacks is what the bridge supplies to an Engine at construction. The
// engine invokes these methods on the NAT thread that owns it, except
// during its construction and cleanup.
type Callbacks interface {
	// SendPacketToGuest delivers a frame from the engine to the guest. It
	// returns the number of bytes accepted, or -1 if the bridge is
	// shutting down and the frame must be dropped.
	SendPacketToGuest(frame []byte) int

	// GuestError reports an engine-detected error unrelated to any
	// specific call in progress.
	GuestError(msg string)

	// ClockGetNS returns the current monotonic time in nanoseconds.
	ClockGetNS() int64

	// TimerNew allocates a disarmed timer invoking cb(opaque) when fired.
	// Returns an opaque handle the engine uses in further timer calls.
	TimerNew(cb func(opaque any), opaque any) any

	// TimerFree releases a timer handle returned by TimerNew.
	TimerFree(t any)

	// TimerMod arms or rearms a timer to fire at expiryMS (same clock as
	// ClockGetNS()/1e6).
	TimerMod(t any, expiryMS int64)

	// RegisterPollFD and UnregisterPollFD are advisory hooks; the bridge
	// may treat them as no-ops.
	RegisterPollFD(fd uintptr)
	UnregisterPollFD(fd uintptr)

	// Notify requests that the NAT thread's poll wait return promptly.
	Notify()
}

// Config is the engine construction configuration, assembled by the
// bridge from the external configuration tree.
type Config struct {
	NetworkCIDR         string
	VHost               string
	VDHCPStart          string
	VNameServer         string
	PassDomain          bool
	TFTPPrefix          string
	BootFile            string
	NextServer          string
	DNSProxy            int
	BindIP              string
	UseHostResolver     bool
	SlirpMTU            int
	AliasMode           int
	SockRcv             int
	SockSnd             int
	TCPRcv              int
	TCPSnd              int
	ICMPCacheLimit      int
	SoMaxConnection     int
	LocalhostReachable  bool
	HostResolverMapping []string
}

// AddFDFunc is supplied by the bridge to Engine.PollFDsFill so the engine
// can register descriptors into the bridge's poll set.
type AddFDFunc func(fd uintptr, engineFlags uint8) int

// GetREventsFunc is supplied by the bridge to Engine.PollFDsPoll so the
// engine can read back translated results for a descriptor it registered.
type GetREventsFunc func(index int) uint8

// Engine is the contract exposed by the NAT engine library this module
// drives.
type Engine interface {
	// Input hands a layer-3 frame from the guest to the engine.
	Input(frame []byte) error

	// PollFDsFill asks the engine to register every descriptor it wants
	// polled this round via add, and to propose a timeout (milliseconds)
	// it may shorten but never lengthen beyond the value passed in.
	PollFDsFill(timeoutMS *uint32, add AddFDFunc)

	// PollFDsPoll dispatches poll results back into the engine. errFlag
	// reports whether the host poll-wait itself failed (treated as "zero
	// ready" at the protocol level, but still reported here).
	PollFDsPoll(errFlag bool, get GetREventsFunc)

	// AddHostFwd installs a port-forwarding rule.
	AddHostFwd(udp bool, hostIP string, hostPort int, guestIP string, guestPort int) error

	// RemoveHostFwd removes a previously installed port-forwarding rule.
	RemoveHostFwd(udp bool, hostIP string, hostPort int) error

	// SetVDomainName sets or (on empty string) clears the engine's DHCP
	// domain name.
	SetVDomainName(name string)

	// SetVDNSSearch sets the DHCP search-domain list.
	SetVDNSSearch(domains []string)

	// ConnectionInfo, NeighborInfo, and VersionString back the info-dump
	// entry point.
	ConnectionInfo() string
	NeighborInfo() string
	VersionString() string

	// Cleanup releases all engine resources. Called exactly once, after
	// the NAT thread has stopped calling Input/PollFDsFill/PollFDsPoll.
	Cleanup()
}

// Constructor builds an Engine bound to cb, given cfg. It is the engine's
// new(cfg, callbacks, opaque) entry point; opaque is folded into cb
// instead of threaded explicitly.
type Constructor func(cfg Config, cb Callbacks) (Engine, error)

// IndefiniteTimeout signals "block forever" to the device port's
// WaitReceiveAvailable.
const IndefiniteTimeout time.Duration = -1
