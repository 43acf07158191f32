package bridge

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/slirpnat/slirpnat/pkg/bridgeerr"
	"github.com/slirpnat/slirpnat/pkg/config"
	"github.com/slirpnat/slirpnat/pkg/deviceport/fakeport"
	"github.com/slirpnat/slirpnat/pkg/gso"
	"github.com/slirpnat/slirpnat/pkg/natengine"
	"github.com/slirpnat/slirpnat/pkg/natengine/fakeengine"
)

func newTestInstance(t *testing.T, rules []config.Rule) (*Instance, *fakeport.Port) {
	t.Helper()
	port := fakeport.New()
	inst, err := New(Config{
		InstanceID:   "test",
		Engine:       fakeengine.New,
		EngineConfig: natengine.Config{},
		DevicePort:   port,
		GuestIP:      "10.0.2.15",
		PortForwards: rules,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { inst.Close() })
	return inst, port
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func (inst *Instance) fakeEngine() *fakeengine.Engine {
	return inst.engine.(*fakeengine.Engine)
}

func TestSendRefusesWhenLinkDown(t *testing.T) {
	inst, _ := newTestInstance(t, nil)

	if err := inst.BeginXmit("test-thread"); err != nil {
		t.Fatalf("BeginXmit: %v", err)
	}
	defer inst.EndXmit()

	buf, err := inst.AllocXmit(64, nil)
	if err != nil {
		t.Fatalf("AllocXmit: %v", err)
	}
	copy(buf.Segment, []byte("hello"))
	buf.BytesUsed = 5

	if err := inst.Send(buf); !errors.Is(err, bridgeerr.ErrNetDown) {
		t.Fatalf("Send err = %v, want ErrNetDown", err)
	}
}

func TestOrdinaryFrameReachesEngineAfterLinkUp(t *testing.T) {
	inst, _ := newTestInstance(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := inst.NotifyLinkChanged(ctx, LinkUp); err != nil {
		t.Fatalf("NotifyLinkChanged: %v", err)
	}

	if err := inst.BeginXmit("t"); err != nil {
		t.Fatalf("BeginXmit: %v", err)
	}
	buf, err := inst.AllocXmit(5, nil)
	if err != nil {
		t.Fatalf("AllocXmit: %v", err)
	}
	copy(buf.Segment, []byte("hello"))
	buf.BytesUsed = 5
	if err := inst.Send(buf); err != nil {
		t.Fatalf("Send: %v", err)
	}
	inst.EndXmit()

	waitFor(t, time.Second, func() bool { return inst.fakeEngine().InputCount() == 1 })
	if string(inst.fakeEngine().Inputs[0]) != "hello" {
		t.Fatalf("engine received %q, want %q", inst.fakeEngine().Inputs[0], "hello")
	}
}

func TestGSOFrameSegmentsMatchSpecScenario(t *testing.T) {
	inst, _ := newTestInstance(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := inst.NotifyLinkChanged(ctx, LinkUp); err != nil {
		t.Fatalf("NotifyLinkChanged: %v", err)
	}

	desc := &gso.Descriptor{Type: gso.TypeTCPv4, HdrsTotal: 54, MaxSeg: 1400}
	total := 54 + 2800

	if err := inst.BeginXmit("t"); err != nil {
		t.Fatalf("BeginXmit: %v", err)
	}
	buf, err := inst.AllocXmit(total, desc)
	if err != nil {
		t.Fatalf("AllocXmit: %v", err)
	}
	buf.BytesUsed = total
	if err := inst.Send(buf); err != nil {
		t.Fatalf("Send: %v", err)
	}
	inst.EndXmit()

	waitFor(t, time.Second, func() bool { return inst.fakeEngine().InputCount() == 2 })
	for _, seg := range inst.fakeEngine().Inputs {
		if len(seg) != 1454 {
			t.Fatalf("segment length = %d, want 1454", len(seg))
		}
	}
}

func TestEngineDeliveryReachesDevicePort(t *testing.T) {
	inst, port := newTestInstance(t, nil)

	n := inst.fakeEngine().DeliverToGuest([]byte("from-engine"))
	if n != len("from-engine") {
		t.Fatalf("DeliverToGuest returned %d, want %d", n, len("from-engine"))
	}

	waitFor(t, time.Second, func() bool { return port.ReceivedCount() == 1 })
	if string(port.Received[0]) != "from-engine" {
		t.Fatalf("device port received %q", port.Received[0])
	}
	waitFor(t, time.Second, func() bool { return inst.inFlightPackets.Load() == 0 })
}

func TestPortForwardsInstalledAtConstruction(t *testing.T) {
	rules := []config.Rule{{Name: "ssh", HostIP: "0.0.0.0", HostPort: 2222, GuestIP: "10.0.2.15", GuestPort: 22}}
	inst, _ := newTestInstance(t, rules)

	fwds := inst.fakeEngine().HostFwds
	if len(fwds) != 1 || !fwds[0].Add || fwds[0].HostPort != 2222 {
		t.Fatalf("HostFwds = %+v", fwds)
	}
}

func TestRedirectCommandAddsRuleAtRuntime(t *testing.T) {
	inst, _ := newTestInstance(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := inst.RedirectCommand(ctx, true, false, "0.0.0.0", 8080, "10.0.2.15", 80); err != nil {
		t.Fatalf("RedirectCommand: %v", err)
	}

	fwds := inst.fakeEngine().HostFwds
	if len(fwds) != 1 || fwds[0].HostPort != 8080 {
		t.Fatalf("HostFwds = %+v", fwds)
	}
}

func TestWakeupBytesOutstandingReturnsToZeroAfterRound(t *testing.T) {
	inst, _ := newTestInstance(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := inst.NotifyLinkChanged(ctx, LinkUp); err != nil {
		t.Fatalf("NotifyLinkChanged: %v", err)
	}

	waitFor(t, time.Second, func() bool { return inst.wake.Outstanding() == 0 })
}

func TestDumpInfoIncludesEngineStrings(t *testing.T) {
	inst, _ := newTestInstance(t, nil)

	info := inst.DumpInfo()
	if info == "" {
		t.Fatalf("DumpInfo returned empty string")
	}
	eng := inst.fakeEngine()
	for _, want := range []string{eng.VersionString(), eng.ConnectionInfo(), eng.NeighborInfo()} {
		if !strings.Contains(info, want) {
			t.Fatalf("DumpInfo output %q does not contain %q", info, want)
		}
	}
}
