package config

import (
	"fmt"

	"github.com/slirpnat/slirpnat/pkg/bridgeerr"
)

// portForwardingKeys is the exact set of names a PortForwarding child may
// use; anything else is a fatal construction error (spec.md §4.9).
var portForwardingKeys = map[string]bool{
	"Name": true, "Protocol": true, "UDP": true,
	"HostPort": true, "GuestPort": true, "GuestIP": true, "BindIP": true,
}

// Rule is one parsed port-forwarding entry, ready to hand to
// natengine.Engine.AddHostFwd.
type Rule struct {
	Name      string
	UDP       bool
	HostIP    string
	HostPort  int
	GuestIP   string
	GuestPort int
}

// ParsePortForwarding walks the "PortForwarding" subtree of root and
// returns one Rule per child, applying defaults (ANY for HostIP,
// guestIPDefault for GuestIP) and Protocol/UDP precedence per spec.md
// §4.9. Returns bridgeerr.ErrConfigInvalid on any unknown key or an
// unrecognized Protocol value.
func ParsePortForwarding(root *Tree, guestIPDefault string) ([]Rule, error) {
	pf := root.Child("PortForwarding")
	var rules []Rule
	for _, name := range pf.Children() {
		child := pf.Child(name)
		for key := range child.leaves {
			if !portForwardingKeys[key] {
				return nil, fmt.Errorf("%w: PortForwarding/%s: unknown key %q", bridgeerr.ErrConfigInvalid, name, key)
			}
		}

		udp, err := resolveProtocol(child)
		if err != nil {
			return nil, fmt.Errorf("%w: PortForwarding/%s: %v", bridgeerr.ErrConfigInvalid, name, err)
		}

		hostPort, _ := child.S32("HostPort")
		guestPort, _ := child.S32("GuestPort")

		rules = append(rules, Rule{
			Name:      child.StringDef("Name", name),
			UDP:       udp,
			HostIP:    child.StringDef("BindIP", "0.0.0.0"),
			HostPort:  int(hostPort),
			GuestIP:   child.StringDef("GuestIP", guestIPDefault),
			GuestPort: int(guestPort),
		})
	}
	return rules, nil
}

// resolveProtocol implements "Protocol of TCP or UDP takes precedence over
// the legacy boolean UDP" (spec.md §4.9).
func resolveProtocol(child *Tree) (udp bool, err error) {
	if proto, ok := child.String("Protocol"); ok {
		switch proto {
		case "TCP":
			return false, nil
		case "UDP":
			return true, nil
		default:
			return false, fmt.Errorf("unrecognized Protocol %q", proto)
		}
	}
	return child.BoolDef("UDP", false), nil
}
