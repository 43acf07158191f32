// Package deviceport defines the contract for the guest-facing emulated
// network device this bridge delivers frames to.
package deviceport

import "time"

// Port is the guest device's receive-side surface. The receive thread
// calls both methods under the device-access lock.
type Port interface {
	// WaitReceiveAvailable blocks until the device is ready to accept a
	// frame, or timeout elapses. A negative timeout blocks indefinitely.
	// Returns bridgeerr.ErrTimeout or bridgeerr.ErrInterrupted on the
	// corresponding transient condition; both are tolerated by the
	// receive thread.
	WaitReceiveAvailable(timeout time.Duration) error

	// Receive hands frame to the device. Called only after
	// WaitReceiveAvailable has returned nil.
	Receive(frame []byte) error
}
