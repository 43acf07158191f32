package config

import (
	"fmt"
	"net"

	"github.com/insomniacslk/dhcp/dhcpv4"

	"github.com/slirpnat/slirpnat/pkg/bridgeerr"
)

// BootOptions holds the guest-boot-file configuration this bridge passes
// through to the engine's DHCP/TFTP option wiring (spec.md §1 "out of
// scope... guest-boot file supply", §6 Configuration keys TFTPPrefix,
// BootFile, NextServer). This package only validates and encodes the
// values; the engine owns actually serving them over DHCP/TFTP.
type BootOptions struct {
	TFTPPrefix string
	BootFile   string
	NextServer net.IP
}

// ParseBootOptions reads TFTPPrefix/BootFile/NextServer from root and
// validates them by encoding them as the DHCPv4 options a real lease would
// carry (dhcpv4.OptTFTPServerName / dhcpv4.OptBootFileName), catching
// oversized or otherwise unencodable values before construction succeeds.
func ParseBootOptions(root *Tree) (BootOptions, error) {
	opts := BootOptions{
		TFTPPrefix: root.StringDef("TFTPPrefix", ""),
		BootFile:   root.StringDef("BootFile", ""),
	}

	if ns, ok := root.String("NextServer"); ok {
		ip := net.ParseIP(ns)
		if ip == nil {
			return BootOptions{}, fmt.Errorf("%w: NextServer %q is not a valid IP address", bridgeerr.ErrConfigInvalid, ns)
		}
		opts.NextServer = ip
	}

	if opts.BootFile != "" {
		if err := validateOptionEncodes(dhcpv4.OptBootFileName(opts.BootFile)); err != nil {
			return BootOptions{}, fmt.Errorf("%w: BootFile: %v", bridgeerr.ErrConfigInvalid, err)
		}
	}
	if opts.TFTPPrefix != "" {
		if err := validateOptionEncodes(dhcpv4.OptTFTPServerName(opts.TFTPPrefix)); err != nil {
			return BootOptions{}, fmt.Errorf("%w: TFTPPrefix: %v", bridgeerr.ErrConfigInvalid, err)
		}
	}
	return opts, nil
}

// validateOptionEncodes confirms opt encodes to a legal DHCPv4 option
// payload (at most 255 bytes, per RFC 2132's single-length-octet format).
func validateOptionEncodes(opt dhcpv4.Option) error {
	if b := opt.Value.ToBytes(); len(b) > 255 {
		return fmt.Errorf("encodes to %d bytes, exceeds the 255-byte DHCPv4 option limit", len(b))
	}
	return nil
}
