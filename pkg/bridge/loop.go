package bridge

import (
	"context"
	"log/slog"

	"github.com/slirpnat/slirpnat/pkg/bridgelog"
	"github.com/slirpnat/slirpnat/pkg/natengine"
	"github.com/slirpnat/slirpnat/pkg/pollset"
	"github.com/slirpnat/slirpnat/pkg/timerlist"
)

// pollFailureLogSuppressThreshold resets the consecutive-failure counter
// after this many failures in a row, so a persistently broken poll
// doesn't spam the log at one line per round.
const pollFailureLogSuppressThreshold = 128

// runPollLoop is the NAT thread body: the state machine and round
// sequence the NAT poll loop follows every iteration.
func (inst *Instance) runPollLoop() {
	// Requests still queued when the loop stops run before the thread exits.
	defer inst.engineQueue.Drain()

	inst.state.Store(int32(StateInitializing))
	inst.state.Store(int32(StateRunning))

	if LinkState(inst.desiredLinkState.Load()) != LinkState(inst.linkState.Load()) {
		inst.runLinkWorker(LinkState(inst.desiredLinkState.Load()))
	}

	for inst.state_() == StateRunning {
		select {
		case <-inst.stop:
			return
		default:
		}
		inst.pollRound()
	}
}

func (inst *Instance) pollRound() {
	inst.pollSet.Reset()

	timeoutMS := uint32(timerlist.DefaultTimeoutMS)
	inst.engine.PollFDsFill(&timeoutMS, func(fd uintptr, flags uint8) int {
		return inst.pollSet.Add(fd, pollset.EngineFlag(flags))
	})
	inst.timers.ClampTimeout(&timeoutMS, inst.nowMS())

	_, err := inst.pollSet.Wait(int(timeoutMS))
	errFlag := err != nil
	if errFlag {
		inst.pollFailures.Add(1)
		inst.pollFailureStreak++
		if inst.pollFailureStreak >= pollFailureLogSuppressThreshold {
			slog.Warn("nat poll loop: repeated poll failures", "instance", inst.id, "count", inst.pollFailureStreak, "err", err)
			inst.pollFailureStreak = 0
		}
	} else {
		inst.pollFailureStreak = 0
	}

	inst.engine.PollFDsPoll(errFlag, func(idx int) uint8 {
		return uint8(inst.pollSet.REvents(idx))
	})

	if inst.pollSet.REvents(pollset.WakeupIndex) != 0 {
		inst.wake.Drain()
	}

	inst.engineQueue.Drain()
	inst.timers.FireExpired(inst.nowMS())

	inst.pollRounds.Add(1)
}

// runLinkWorker sets both current and desired link state and emits a log
// record.
func (inst *Instance) runLinkWorker(state LinkState) {
	inst.linkState.Store(int32(state))
	inst.desiredLinkState.Store(int32(state))
	slog.Info("nat link state changed", "instance", inst.id, "state", state.String())
	inst.events.Publish(bridgelog.Event{Kind: bridgelog.KindLinkChange, Detail: state.String()})
}

// NotifyLinkChanged updates the NAT link's desired state, called on the
// VM management thread.
func (inst *Instance) NotifyLinkChanged(ctx context.Context, state LinkState) error {
	if inst.state_() != StateRunning {
		inst.desiredLinkState.Store(int32(state))
		return nil
	}
	return inst.callAndWaitOnEngineQueue(ctx, func() { inst.runLinkWorker(state) })
}

var _ natengine.Callbacks = (*Instance)(nil)
