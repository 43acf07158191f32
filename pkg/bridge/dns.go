package bridge

import (
	"context"

	"github.com/slirpnat/slirpnat/pkg/bridgelog"
)

// DNSConfig is the portion of host DNS configuration this bridge passes
// through to the engine. Name-server propagation is left to the
// engine's own construction-time configuration; only domain name and the
// search list are wired through here.
type DNSConfig struct {
	Domain     string
	SearchList []string
}

// NotifyDNSChanged updates the engine's domain name (clearing it on an
// empty string) and search-domain list: on the NAT thread while it is
// RUNNING, synchronously on the caller's goroutine otherwise.
func (inst *Instance) NotifyDNSChanged(ctx context.Context, cfg DNSConfig) error {
	return inst.callAndWaitOnEngineQueue(ctx, func() {
		inst.engine.SetVDomainName(cfg.Domain)
		inst.engine.SetVDNSSearch(cfg.SearchList)
		inst.events.Publish(bridgelog.Event{Kind: bridgelog.KindDNSChanged, Detail: cfg.Domain})
	})
}
