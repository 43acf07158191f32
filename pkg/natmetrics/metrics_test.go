package natmetrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorReportsSnapshotValues(t *testing.T) {
	reg := NewRegistry("inst-1", func() Snapshot {
		return Snapshot{InFlightPackets: 3, PollRounds: 42}
	})
	defer reg.Close()

	want := `
# HELP slirpnat_in_flight_packets Packets enqueued for guest delivery but not yet accepted by the device port.
# TYPE slirpnat_in_flight_packets gauge
slirpnat_in_flight_packets{instance="inst-1"} 3
`
	if err := testutil.GatherAndCompare(reg.Registry, strings.NewReader(want), "slirpnat_in_flight_packets"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}

func TestCloseDeregistersCollector(t *testing.T) {
	reg := NewRegistry("inst-2", func() Snapshot { return Snapshot{} })
	reg.Close()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(mfs) != 0 {
		t.Fatalf("expected no metric families after Close, got %d", len(mfs))
	}
}
