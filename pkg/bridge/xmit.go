package bridge

import (
	"log/slog"

	"github.com/slirpnat/slirpnat/pkg/bridgeerr"
	"github.com/slirpnat/slirpnat/pkg/gso"
	"github.com/slirpnat/slirpnat/pkg/sgbuf"
)

// BeginXmit makes a non-blocking attempt to acquire the transmit lock.
// workerThreadHint names the calling guest device thread, for logging
// only. Returns bridgeerr.ErrTryAgain if the lock is already held.
func (inst *Instance) BeginXmit(workerThreadHint string) error {
	if !inst.xmitLock.TryLock() {
		return bridgeerr.ErrTryAgain
	}
	return nil
}

// EndXmit releases the transmit lock acquired by BeginXmit.
func (inst *Instance) EndXmit() {
	inst.xmitLock.Unlock()
}

// AllocXmit reserves a buffer for the guest device to fill. Valid only
// while the transmit lock (BeginXmit) is held.
func (inst *Instance) AllocXmit(minBytes int, desc *gso.Descriptor) (*sgbuf.Buffer, error) {
	return inst.pool.Alloc(minBytes, desc)
}

// FreeXmit releases a buffer without submitting it, e.g. when the guest
// device abandons a fill.
func (inst *Instance) FreeXmit(buf *sgbuf.Buffer) {
	inst.pool.Free(buf)
}

// Send submits a filled buffer to the engine. It always releases buf,
// whether it succeeds or fails: the buffer's segment memory is released
// exactly once.
func (inst *Instance) Send(buf *sgbuf.Buffer) error {
	if LinkState(inst.linkState.Load()) != LinkUp {
		inst.pool.Free(buf)
		return bridgeerr.ErrNetDown
	}

	buf.MarkSent()
	err := inst.engineQueue.Post(func() { inst.sendWorker(buf) })
	if err != nil {
		inst.pool.Free(buf)
		return bridgeerr.ErrNoBufferSpace
	}
	return nil
}

// SetPromiscuous implements the promiscuous-mode toggle exposed upward:
// requests are accepted and logged, not rejected, but have no effect
// since the engine operates at layer 3.
func (inst *Instance) SetPromiscuous(enabled bool) {
	slog.Debug("promiscuous mode request acknowledged, no effect at layer 3", "instance", inst.id, "enabled", enabled)
}

// sendWorker runs on the NAT thread: ordinary frames go straight to the
// engine's Input; GSO super-frames are validated, segmented, and each
// segment is carved into scratch before being handed to Input.
func (inst *Instance) sendWorker(buf *sgbuf.Buffer) {
	defer inst.pool.Free(buf)

	frame := buf.Segment[:buf.BytesUsed]

	if buf.GSODesc == nil {
		if err := inst.engine.Input(frame); err != nil {
			slog.Warn("nat engine rejected frame", "instance", inst.id, "err", err)
		}
		return
	}

	desc := *buf.GSODesc
	segCount := desc.SegmentCount(len(frame))
	scratch := make([]byte, gso.MaxScratchBytes)
	for i := 0; i < segCount; i++ {
		n, err := desc.CarveSegment(frame, i, scratch)
		if err != nil {
			slog.Warn("nat gso carve failed", "instance", inst.id, "segment", i, "err", err)
			continue
		}
		if err := inst.engine.Input(scratch[:n]); err != nil {
			slog.Warn("nat engine rejected gso segment", "instance", inst.id, "segment", i, "err", err)
		}
	}
}
