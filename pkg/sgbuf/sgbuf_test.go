package sgbuf

import (
	"testing"

	"github.com/slirpnat/slirpnat/pkg/bridgeerr"
	"github.com/slirpnat/slirpnat/pkg/gso"
)

func TestAllocRoundsUpToAlignment(t *testing.T) {
	p := New(func() bool { return true })
	buf, err := p.Alloc(100, nil)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if len(buf.Segment) != 128 {
		t.Fatalf("Segment len = %d, want 128", len(buf.Segment))
	}
}

func TestAllocRefusesWhenNotRunning(t *testing.T) {
	p := New(func() bool { return false })
	if _, err := p.Alloc(64, nil); err != bridgeerr.ErrNetDown {
		t.Fatalf("err = %v, want ErrNetDown", err)
	}
}

func TestAllocRefusesOversizedFrame(t *testing.T) {
	p := New(func() bool { return true })
	if _, err := p.Alloc(MaxFrameBytes, nil); err != bridgeerr.ErrInvalidParameter {
		t.Fatalf("err = %v, want ErrInvalidParameter", err)
	}
}

func TestFreeThenDoubleFreePanics(t *testing.T) {
	p := New(func() bool { return true })
	buf, err := p.Alloc(64, nil)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	p.Free(buf)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on double free")
		}
	}()
	p.Free(buf)
}

func TestAllocWithGSODescriptorCarriesUserTag(t *testing.T) {
	p := New(func() bool { return true })
	desc := &gso.Descriptor{Type: gso.TypeTCPv4, HdrsTotal: 54, MaxSeg: 1400}
	buf, err := p.Alloc(2854, desc)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if buf.GSODesc != desc {
		t.Fatalf("GSODesc not carried through")
	}
}
