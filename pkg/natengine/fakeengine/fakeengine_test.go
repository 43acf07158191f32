package fakeengine

import (
	"testing"

	"github.com/slirpnat/slirpnat/pkg/natengine"
)

type nopCallbacks struct {
	sent [][]byte
}

func (n *nopCallbacks) SendPacketToGuest(frame []byte) int {
	n.sent = append(n.sent, frame)
	return len(frame)
}
func (n *nopCallbacks) GuestError(string)                          {}
func (n *nopCallbacks) ClockGetNS() int64                           { return 0 }
func (n *nopCallbacks) TimerNew(cb func(any), opaque any) any       { return nil }
func (n *nopCallbacks) TimerFree(any)                               {}
func (n *nopCallbacks) TimerMod(any, int64)                         {}
func (n *nopCallbacks) RegisterPollFD(uintptr)                      {}
func (n *nopCallbacks) UnregisterPollFD(uintptr)                    {}
func (n *nopCallbacks) Notify()                                     {}

func TestInputRecordsFrames(t *testing.T) {
	eng, err := New(natengine.Config{}, &nopCallbacks{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := eng.Input([]byte{1, 2, 3}); err != nil {
		t.Fatalf("Input: %v", err)
	}
	fe := eng.(*Engine)
	if fe.InputCount() != 1 {
		t.Fatalf("InputCount() = %d, want 1", fe.InputCount())
	}
}

func TestDeliverToGuestInvokesCallbacks(t *testing.T) {
	cb := &nopCallbacks{}
	eng, _ := New(natengine.Config{}, cb)
	fe := eng.(*Engine)

	n := fe.DeliverToGuest([]byte{9, 9})
	if n != 2 {
		t.Fatalf("DeliverToGuest returned %d, want 2", n)
	}
	if len(cb.sent) != 1 {
		t.Fatalf("callback not invoked")
	}
}

func TestAddAndRemoveHostFwdRecorded(t *testing.T) {
	eng, _ := New(natengine.Config{}, &nopCallbacks{})
	if err := eng.AddHostFwd(false, "0.0.0.0", 2222, "10.0.2.15", 22); err != nil {
		t.Fatalf("AddHostFwd: %v", err)
	}
	if err := eng.RemoveHostFwd(false, "0.0.0.0", 2222); err != nil {
		t.Fatalf("RemoveHostFwd: %v", err)
	}
	fe := eng.(*Engine)
	if len(fe.HostFwds) != 2 || !fe.HostFwds[0].Add || fe.HostFwds[1].Add {
		t.Fatalf("HostFwds = %+v, want one add then one remove", fe.HostFwds)
	}
}

func TestCleanupMarksEngine(t *testing.T) {
	eng, _ := New(natengine.Config{}, &nopCallbacks{})
	eng.Cleanup()
	if !eng.(*Engine).CleanedUp {
		t.Fatalf("Cleanup did not mark engine")
	}
}
