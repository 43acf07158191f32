// Package bridgeerr defines the sentinel errors shared by every layer of
// the NAT bridge, matching the VERR_* taxonomy of the driver this module
// is modeled on.
package bridgeerr

import "errors"

var (
	// ErrConfigInvalid is returned during construction: a missing
	// "Network" key, an unrecognized "Protocol" value, or an unknown key
	// under the "PortForwarding" subtree.
	ErrConfigInvalid = errors.New("bridge: invalid configuration")

	// ErrNetDown is returned from AllocXmit when the NAT thread is not
	// RUNNING, and from Send when the link is not up.
	ErrNetDown = errors.New("bridge: network down")

	// ErrTryAgain is returned by BeginXmit when the transmit lock is busy.
	ErrTryAgain = errors.New("bridge: try again")

	// ErrInvalidParameter is returned when a requested frame is at or
	// above the maximum frame size.
	ErrInvalidParameter = errors.New("bridge: invalid parameter")

	// ErrNoBufferSpace is returned when the engine's request queue
	// refuses a send request.
	ErrNoBufferSpace = errors.New("bridge: no buffer space")

	// ErrRedirSetup is returned when the engine refuses a port-forwarding
	// rule at construction time.
	ErrRedirSetup = errors.New("bridge: redirect setup failed")

	// ErrTimeout and ErrInterrupted are transient device-port conditions,
	// swallowed by the receive worker rather than propagated. A queue's
	// CallAndWait also returns ErrTimeout when its context ends first.
	ErrTimeout     = errors.New("bridge: device port timeout")
	ErrInterrupted = errors.New("bridge: device port interrupted")

	// ErrWouldBlock is returned by a queue's Post when the queue cannot
	// accept another fire-and-forget request right now.
	ErrWouldBlock = errors.New("bridge: would block")
)
