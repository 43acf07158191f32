package config

import (
	"fmt"

	"github.com/slirpnat/slirpnat/pkg/bridgeerr"
	"github.com/slirpnat/slirpnat/pkg/natengine"
)

// Resolved is everything derived from the configuration tree at
// construction time: the engine configuration, the derived addressing,
// the parsed port-forwarding rules, and the validated boot options.
type Resolved struct {
	Engine        natengine.Config
	Addresses     Addresses
	PortForwards  []Rule
	Boot          BootOptions
}

// Resolve reads root and produces everything the bridge needs to
// construct an engine instance. Network is required; its absence is a
// fatal ConfigInvalid (spec.md §7).
func Resolve(root *Tree) (Resolved, error) {
	network, ok := root.String("Network")
	if !ok {
		return Resolved{}, fmt.Errorf("%w: Network is required", bridgeerr.ErrConfigInvalid)
	}
	addrs, err := DeriveAddresses(network)
	if err != nil {
		return Resolved{}, fmt.Errorf("%w: %v", bridgeerr.ErrConfigInvalid, err)
	}

	boot, err := ParseBootOptions(root)
	if err != nil {
		return Resolved{}, err
	}

	rules, err := ParsePortForwarding(root, addrs.VDHCPStart4.String())
	if err != nil {
		return Resolved{}, err
	}

	aliasBits, _ := root.S32("AliasMode")

	cfg := natengine.Config{
		NetworkCIDR:        network,
		VHost:              addrs.VHost4.String(),
		VDHCPStart:         addrs.VDHCPStart4.String(),
		VNameServer:        addrs.VNameServer4.String(),
		PassDomain:         root.BoolDef("PassDomain", false),
		TFTPPrefix:         boot.TFTPPrefix,
		BootFile:           boot.BootFile,
		DNSProxy:           int(root.S32Def("DNSProxy", 0)),
		BindIP:             root.StringDef("BindIP", ""),
		UseHostResolver:    root.BoolDef("UseHostResolver", false),
		SlirpMTU:           int(root.S32Def("SlirpMTU", 1500)),
		AliasMode:          RemapAliasMode(aliasBits),
		SockRcv:            int(root.S32Def("SockRcv", 0)),
		SockSnd:            int(root.S32Def("SockSnd", 0)),
		TCPRcv:             int(root.S32Def("TcpRcv", 0)),
		TCPSnd:             int(root.S32Def("TcpSnd", 0)),
		ICMPCacheLimit:     int(root.S32Def("ICMPCacheLimit", 100)),
		SoMaxConnection:    int(root.S32Def("SoMaxConnection", 10)),
		LocalhostReachable: root.BoolDef("LocalhostReachable", false),
	}
	if boot.NextServer != nil {
		cfg.NextServer = boot.NextServer.String()
	}
	if mappings, ok := root.String("HostResolverMappings"); ok {
		cfg.HostResolverMapping = []string{mappings}
	}

	return Resolved{Engine: cfg, Addresses: addrs, PortForwards: rules, Boot: boot}, nil
}
