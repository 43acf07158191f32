package bridge

import (
	"context"
	"fmt"

	"github.com/slirpnat/slirpnat/pkg/bridgeerr"
	"github.com/slirpnat/slirpnat/pkg/bridgelog"
	"github.com/slirpnat/slirpnat/pkg/config"
)

// installPortForwards installs every configured rule via the engine's
// add_hostfwd, directly, since the NAT thread isn't polling yet at
// construction time. A rejected rule is a fatal construction error.
func (inst *Instance) installPortForwards(rules []config.Rule) error {
	for _, r := range rules {
		if err := inst.engine.AddHostFwd(r.UDP, r.HostIP, r.HostPort, r.GuestIP, r.GuestPort); err != nil {
			return fmt.Errorf("%w: rule %q: %v", bridgeerr.ErrRedirSetup, r.Name, err)
		}
	}
	return nil
}

// RedirectCommand adds or removes a single port-forwarding rule at
// runtime, dispatched synchronously if the NAT thread is not RUNNING or
// via call_and_wait on the engine queue otherwise.
func (inst *Instance) RedirectCommand(ctx context.Context, add, udp bool, hostIP string, hostPort int, guestIP string, guestPort int) error {
	var workerErr error
	err := inst.callAndWaitOnEngineQueue(ctx, func() {
		if add {
			workerErr = inst.engine.AddHostFwd(udp, hostIP, hostPort, guestIP, guestPort)
		} else {
			workerErr = inst.engine.RemoveHostFwd(udp, hostIP, hostPort)
		}
		inst.logRedirectResult(add, hostIP, hostPort, guestIP, guestPort, workerErr)
	})
	if err != nil {
		return err
	}
	return workerErr
}

func (inst *Instance) logRedirectResult(add bool, hostIP string, hostPort int, guestIP string, guestPort int, err error) {
	detail := fmt.Sprintf("%s:%d -> %s:%d", hostIP, hostPort, guestIP, guestPort)
	if err != nil {
		inst.events.Publish(bridgelog.Event{Kind: bridgelog.KindRedirectFailed, Detail: detail, Err: err.Error()})
		return
	}
	if add {
		inst.events.Publish(bridgelog.Event{Kind: bridgelog.KindRedirectApplied, Detail: detail})
	} else {
		inst.events.Publish(bridgelog.Event{Kind: bridgelog.KindRedirectRemoved, Detail: detail})
	}
}
