package config

import (
	"fmt"
	"net/netip"
)

// ula is the fixed IPv6 unique local prefix used for every instance,
// per spec.md §6 "Addressing derived from Network".
var ula = netip.MustParsePrefix("fd17:625c:f037:0::/64")

// Addresses holds the vhost/vdhcp_start/vnameserver triple derived from a
// Network CIDR, for both the IPv4 network and its synthesized IPv6 ULA.
type Addresses struct {
	Network4     netip.Prefix
	VHost4       netip.Addr
	VDHCPStart4  netip.Addr
	VNameServer4 netip.Addr

	Network6     netip.Prefix
	VHost6       netip.Addr
	VNameServer6 netip.Addr
}

// orHostBits ORs the low bits of network's address with host, returning
// the resulting address. host must fit within the prefix's host portion.
func orHostBits(network netip.Prefix, host byte) (netip.Addr, error) {
	if !network.Addr().Is4() {
		return netip.Addr{}, fmt.Errorf("config: orHostBits requires an IPv4 prefix, got %s", network)
	}
	a := network.Masked().Addr().As4()
	a[3] |= host
	return netip.AddrFrom4(a), nil
}

// DeriveAddresses computes vhost/vdhcp_start/vnameserver for networkCIDR
// (an IPv4 CIDR, e.g. "10.0.2.0/24") per spec.md §6/§9: vhost = Network|2,
// vdhcp_start = Network|15, vnameserver = Network|3. The IPv6 ULA side
// splices bytes 2-3 of each IPv4 address into bytes 6-7 of the fixed
// fd17:625c:f037:0::/64 prefix.
func DeriveAddresses(networkCIDR string) (Addresses, error) {
	network, err := netip.ParsePrefix(networkCIDR)
	if err != nil {
		return Addresses{}, fmt.Errorf("config: invalid Network %q: %w", networkCIDR, err)
	}
	if !network.Addr().Is4() {
		return Addresses{}, fmt.Errorf("config: Network %q must be IPv4", networkCIDR)
	}

	vhost4, err := orHostBits(network, 2)
	if err != nil {
		return Addresses{}, err
	}
	vdhcp4, err := orHostBits(network, 15)
	if err != nil {
		return Addresses{}, err
	}
	vns4, err := orHostBits(network, 3)
	if err != nil {
		return Addresses{}, err
	}

	return Addresses{
		Network4:     network,
		VHost4:       vhost4,
		VDHCPStart4:  vdhcp4,
		VNameServer4: vns4,

		Network6:     ula,
		VHost6:       spliceULA(vhost4),
		VNameServer6: spliceULA(vns4),
	}, nil
}

// spliceULA overwrites bytes 6-7 of the fixed ULA prefix's address with
// bytes 2-3 of v4, per spec.md §6.
func spliceULA(v4 netip.Addr) netip.Addr {
	b4 := v4.As4()
	b16 := ula.Addr().As16()
	b16[6], b16[7] = b4[2], b4[3]
	return netip.AddrFrom16(b16)
}
