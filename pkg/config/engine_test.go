package config

import (
	"errors"
	"testing"

	"github.com/slirpnat/slirpnat/pkg/bridgeerr"
)

func TestResolveRequiresNetwork(t *testing.T) {
	_, err := Resolve(New())
	if !errors.Is(err, bridgeerr.ErrConfigInvalid) {
		t.Fatalf("err = %v, want ErrConfigInvalid", err)
	}
}

func TestResolveHappyPathDerivesEverything(t *testing.T) {
	root := New()
	root.Set("Network", "10.0.2.0/24")
	root.Set("AliasMode", "3") // bits 0 and 1
	root.Child("PortForwarding").Child("ssh").Set("HostPort", "2222")
	root.Child("PortForwarding").Child("ssh").Set("GuestPort", "22")

	r, err := Resolve(root)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Engine.VHost != "10.0.2.2" {
		t.Fatalf("VHost = %s, want 10.0.2.2", r.Engine.VHost)
	}
	if r.Engine.SlirpMTU != 1500 {
		t.Fatalf("SlirpMTU = %d, want default 1500", r.Engine.SlirpMTU)
	}
	if r.Engine.AliasMode != 0x01|0x40 {
		t.Fatalf("AliasMode = %#x, want 0x41", r.Engine.AliasMode)
	}
	if len(r.PortForwards) != 1 || r.PortForwards[0].GuestIP != r.Addresses.VDHCPStart4.String() {
		t.Fatalf("PortForwards = %+v", r.PortForwards)
	}
}
