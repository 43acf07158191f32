package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/slirpnat/slirpnat/pkg/bridgeerr"
)

func TestParseBootOptionsHappyPath(t *testing.T) {
	root := New()
	root.Set("TFTPPrefix", "/srv/tftp")
	root.Set("BootFile", "pxelinux.0")
	root.Set("NextServer", "10.0.2.4")

	opts, err := ParseBootOptions(root)
	if err != nil {
		t.Fatalf("ParseBootOptions: %v", err)
	}
	if opts.BootFile != "pxelinux.0" || opts.TFTPPrefix != "/srv/tftp" {
		t.Fatalf("opts = %+v", opts)
	}
	if opts.NextServer.String() != "10.0.2.4" {
		t.Fatalf("NextServer = %v, want 10.0.2.4", opts.NextServer)
	}
}

func TestParseBootOptionsRejectsInvalidNextServer(t *testing.T) {
	root := New()
	root.Set("NextServer", "not-an-ip")

	_, err := ParseBootOptions(root)
	if !errors.Is(err, bridgeerr.ErrConfigInvalid) {
		t.Fatalf("err = %v, want ErrConfigInvalid", err)
	}
}

func TestParseBootOptionsRejectsOversizedBootFile(t *testing.T) {
	root := New()
	root.Set("BootFile", strings.Repeat("a", 300))

	_, err := ParseBootOptions(root)
	if !errors.Is(err, bridgeerr.ErrConfigInvalid) {
		t.Fatalf("err = %v, want ErrConfigInvalid", err)
	}
}

func TestParseBootOptionsEmptyIsFine(t *testing.T) {
	root := New()
	opts, err := ParseBootOptions(root)
	if err != nil {
		t.Fatalf("ParseBootOptions: %v", err)
	}
	if opts.BootFile != "" || opts.TFTPPrefix != "" || opts.NextServer != nil {
		t.Fatalf("opts = %+v, want all empty", opts)
	}
}
