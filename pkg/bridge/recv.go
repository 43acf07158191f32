package bridge

import (
	"errors"
	"log/slog"

	"github.com/slirpnat/slirpnat/pkg/bridgeerr"
	"github.com/slirpnat/slirpnat/pkg/natengine"
)

// SendPacketToGuest implements natengine.Callbacks: it runs on the NAT
// thread. It copies the packet (the engine's buffer is ephemeral),
// enqueues a receive_worker request, signals the receive thread, and
// returns the byte count accepted, or -1 if stopping.
func (inst *Instance) SendPacketToGuest(frame []byte) int {
	if inst.state_() == StateTerminating {
		return -1
	}

	buf := append([]byte(nil), frame...)
	inst.inFlightPackets.Add(1)

	err := inst.recvQueue.Post(func() { inst.receiveWorker(buf) })
	if err != nil {
		// Queue refused the request; the frame is dropped and the counter
		// that was optimistically bumped must be corrected.
		inst.inFlightPackets.Add(^uint64(0))
		slog.Warn("nat receive queue refused frame", "instance", inst.id, "err", err)
		return -1
	}
	inst.recvSignal.Notify()
	return len(frame)
}

// runReceiveThread is the receive thread body: process the receive queue
// to completion, then wait on the receive event if in_flight_packets == 0.
func (inst *Instance) runReceiveThread() {
	for {
		inst.recvQueue.Drain()
		if inst.inFlightPackets.Load() != 0 {
			continue
		}

		select {
		case <-inst.stop:
			inst.recvQueue.Drain()
			return
		case <-inst.recvSignal:
		}
	}
}

// receiveWorker delivers one packet to the device port under the
// device-access lock, then decrements in_flight_packets and pokes the
// wakeup channel.
func (inst *Instance) receiveWorker(buf []byte) {
	defer func() {
		inst.inFlightPackets.Add(^uint64(0))
		inst.wake.Notify()
	}()

	inst.devAccessLock.Lock()
	defer inst.devAccessLock.Unlock()

	if err := inst.devicePort.WaitReceiveAvailable(natengine.IndefiniteTimeout); err != nil {
		if errors.Is(err, bridgeerr.ErrTimeout) || errors.Is(err, bridgeerr.ErrInterrupted) {
			return
		}
		inst.assert("device port wait_receive_available failed", err)
		return
	}

	if err := inst.devicePort.Receive(buf); err != nil {
		inst.assert("device port receive failed", err)
	}
}

// assert reports a receive-path failure that would be asserted in debug
// and dropped in release in the original driver; this bridge always logs
// and continues rather than panicking, which would take the whole
// instance down over a single malformed frame.
func (inst *Instance) assert(msg string, err error) {
	slog.Error("nat bridge assertion", "instance", inst.id, "msg", msg, "err", err)
}
