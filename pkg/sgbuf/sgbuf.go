// Package sgbuf implements the scatter/gather buffer pool frames travel
// through on their way from the guest device to the NAT engine. A buffer
// holds exactly one segment plus either an
// "allocator" tag (ordinary frame) or a "user" tag carrying a copy of a
// GSO descriptor (super-frame awaiting segmentation).
package sgbuf

import (
	"fmt"

	"github.com/slirpnat/slirpnat/pkg/bridgeerr"
	"github.com/slirpnat/slirpnat/pkg/gso"
)

const magic = 0x53474246 // "SGBF"

// MaxFrameBytes is the largest frame this pool will allocate; requests at
// or above this size are rejected with bridgeerr.ErrInvalidParameter.
const MaxFrameBytes = 16 * 1024

// alignment buffers are rounded up to, matching the original driver's
// allocation granularity.
const alignment = 128

// owner identifies who currently holds a buffer.
type owner uint8

const (
	ownerNone owner = iota
	ownerDevice
	ownerPool
)

// Buffer is one scatter/gather segment plus its ownership tag. Exactly one
// of gsoDesc being nil or not nil applies: nil means an ordinary frame
// (Segment holds the frame directly); non-nil means Segment holds a
// super-frame awaiting segmentation per GSODesc.
type Buffer struct {
	magic   uint32
	owner   owner
	Segment []byte
	// BytesUsed is how much of Segment the device actually filled.
	BytesUsed int
	GSODesc   *gso.Descriptor
}

func roundUp(n, align int) int {
	return (n + align - 1) / align * align
}

// Pool hands out and reclaims Buffers. running reports whether the NAT
// thread is currently servicing the instance this pool belongs to; Alloc
// refuses while it is false.
type Pool struct {
	running func() bool
}

// New creates a pool whose Alloc calls are gated by running, which should
// report whether the owning instance's NAT thread is in RUNNING state.
func New(running func() bool) *Pool {
	return &Pool{running: running}
}

// Alloc returns a buffer sized to round_up(minBytes, 128), tagged for an
// ordinary frame (desc == nil) or a GSO super-frame (desc != nil).
func (p *Pool) Alloc(minBytes int, desc *gso.Descriptor) (*Buffer, error) {
	if !p.running() {
		return nil, bridgeerr.ErrNetDown
	}
	if minBytes >= MaxFrameBytes {
		return nil, bridgeerr.ErrInvalidParameter
	}
	size := roundUp(minBytes, alignment)
	return &Buffer{
		magic:   magic,
		owner:   ownerDevice,
		Segment: make([]byte, size),
		GSODesc: desc,
	}, nil
}

// Free releases buf's segment and, if present, its GSO descriptor. It
// panics on a double-free or a buffer this pool did not allocate: both are
// programming errors, matching the original driver's magic-value assert.
func (p *Pool) Free(buf *Buffer) {
	if buf == nil {
		return
	}
	if buf.magic != magic {
		panic(fmt.Sprintf("sgbuf: free of buffer with bad magic %#x", buf.magic))
	}
	if buf.owner == ownerNone {
		panic("sgbuf: double free")
	}
	buf.magic = 0
	buf.owner = ownerNone
	buf.Segment = nil
	buf.GSODesc = nil
}

// MarkSent transitions buf from device-filling to pool-owned, once the
// device has handed it to the transmit path via send.
func (b *Buffer) MarkSent() { b.owner = ownerPool }
