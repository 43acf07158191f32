// Package bridge implements the Instance that owns the engine handle,
// both request queues, the poll set, the timer list, the wakeup channel,
// and the device-access/transmit locks, and that drives the NAT poll loop
// and receive thread.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/slirpnat/slirpnat/pkg/bridgelog"
	"github.com/slirpnat/slirpnat/pkg/config"
	"github.com/slirpnat/slirpnat/pkg/deviceport"
	"github.com/slirpnat/slirpnat/pkg/natengine"
	"github.com/slirpnat/slirpnat/pkg/natmetrics"
	"github.com/slirpnat/slirpnat/pkg/pollset"
	"github.com/slirpnat/slirpnat/pkg/reqqueue"
	"github.com/slirpnat/slirpnat/pkg/sgbuf"
	"github.com/slirpnat/slirpnat/pkg/timerlist"
	"github.com/slirpnat/slirpnat/pkg/wakeup"
)

// State is the NAT poll loop's state machine.
type State int32

const (
	StateInitializing State = iota
	StateRunning
	StateTerminating
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateTerminating:
		return "terminating"
	default:
		return "unknown"
	}
}

// LinkState is the NAT link's UP/DOWN/DOWN_RESUME field.
type LinkState int32

const (
	LinkDown LinkState = iota
	LinkUp
	LinkDownResume
)

func (s LinkState) String() string {
	switch s {
	case LinkDown:
		return "down"
	case LinkUp:
		return "up"
	case LinkDownResume:
		return "down-resume"
	default:
		return "unknown"
	}
}

const (
	defaultEngineQueueCapacity  = 256
	defaultReceiveQueueCapacity = 256
	defaultEventBufferSize      = 1000
)

// Config assembles everything New needs to bring up one instance.
type Config struct {
	InstanceID   string
	Engine       natengine.Constructor
	EngineConfig natengine.Config
	DevicePort   deviceport.Port
	GuestIP      string
	PortForwards []config.Rule
}

// recvEvent is the receive thread's signaling primitive: a non-blocking,
// coalescing wakeup distinct from the NAT thread's wakeup.Channel.
type recvEvent chan struct{}

func newRecvEvent() recvEvent { return make(recvEvent, 1) }

func (e recvEvent) Notify() {
	select {
	case e <- struct{}{}:
	default:
	}
}

// Instance is the single owner of one NAT bridge's engine, queues, poll
// set, timers, and locks.
type Instance struct {
	id string

	engine     natengine.Engine
	devicePort deviceport.Port

	wake        *wakeup.Channel
	engineQueue *reqqueue.Queue

	recvSignal recvEvent
	recvQueue  *reqqueue.Queue

	pool    *sgbuf.Pool
	timers  *timerlist.List
	pollSet *pollset.Set

	xmitLock      sync.Mutex
	devAccessLock sync.Mutex

	state            atomic.Int32
	linkState        atomic.Int32
	desiredLinkState atomic.Int32

	guestIP string

	inFlightPackets   atomic.Uint64
	pollRounds        atomic.Uint64
	pollFailures      atomic.Uint64
	pollFailureStreak int // NAT-thread-only

	events  *bridgelog.Buffer
	metrics *natmetrics.Registry

	stop chan struct{}
	wg   sync.WaitGroup
}

// New constructs an instance, installs configured port-forwarding rules,
// and starts its NAT thread and receive thread. Construction failures
// release any partial state before returning.
func New(cfg Config) (*Instance, error) {
	wake, err := wakeup.New()
	if err != nil {
		return nil, fmt.Errorf("bridge: create wakeup channel: %w", err)
	}

	inst := &Instance{
		id:          cfg.InstanceID,
		devicePort:  cfg.DevicePort,
		wake:        wake,
		engineQueue: reqqueue.New(defaultEngineQueueCapacity, wake),
		recvSignal:  newRecvEvent(),
		guestIP:     cfg.GuestIP,
		timers:      &timerlist.List{},
		pollSet:     pollset.NewSet(wake.ReadFD()),
		events:      bridgelog.NewBuffer(defaultEventBufferSize),
		stop:        make(chan struct{}),
	}
	inst.recvQueue = reqqueue.New(defaultReceiveQueueCapacity, inst.recvSignal)
	inst.pool = sgbuf.New(func() bool { return State(inst.state.Load()) == StateRunning })
	inst.state.Store(int32(StateInitializing))
	inst.linkState.Store(int32(LinkDown))
	inst.desiredLinkState.Store(int32(LinkDown))

	engine, err := cfg.Engine(cfg.EngineConfig, inst)
	if err != nil {
		wake.Close()
		return nil, fmt.Errorf("bridge: construct engine: %w", err)
	}
	inst.engine = engine

	inst.metrics = natmetrics.NewRegistry(inst.id, inst.metricsSnapshot)

	if err := inst.installPortForwards(cfg.PortForwards); err != nil {
		engine.Cleanup()
		inst.metrics.Close()
		wake.Close()
		return nil, err
	}

	inst.wg.Add(2)
	go func() {
		defer inst.wg.Done()
		inst.runPollLoop()
	}()
	go func() {
		defer inst.wg.Done()
		inst.runReceiveThread()
	}()

	// Return only once the NAT thread is RUNNING, so buffer allocation and
	// link-state changes made right after New see the running loop.
	for inst.state_() != StateRunning {
		runtime.Gosched()
	}

	return inst, nil
}

// Close tears the instance down: stops the NAT thread, waits for both
// threads to finish draining their queues, then releases the engine,
// metrics, and wakeup channel.
func (inst *Instance) Close() error {
	inst.state.Store(int32(StateTerminating))
	close(inst.stop)
	inst.wake.Notify()
	inst.recvSignal.Notify()
	inst.wg.Wait()

	inst.engine.Cleanup()
	inst.metrics.Close()
	return inst.wake.Close()
}

func (inst *Instance) state_() State { return State(inst.state.Load()) }

func (inst *Instance) nowMS() int64 { return time.Now().UnixNano() / int64(time.Millisecond) }

// ClockGetNS implements natengine.Callbacks.
func (inst *Instance) ClockGetNS() int64 { return time.Now().UnixNano() }

// GuestError implements natengine.Callbacks.
func (inst *Instance) GuestError(msg string) {
	slog.Warn("nat engine reported guest error", "instance", inst.id, "msg", msg)
}

// TimerNew implements natengine.Callbacks.
func (inst *Instance) TimerNew(cb func(opaque any), opaque any) any {
	return inst.timers.New(timerlist.Handler(cb), opaque)
}

// TimerFree implements natengine.Callbacks.
func (inst *Instance) TimerFree(t any) {
	inst.timers.Free(t.(*timerlist.Timer))
}

// TimerMod implements natengine.Callbacks.
func (inst *Instance) TimerMod(t any, expiryMS int64) {
	inst.timers.Mod(t.(*timerlist.Timer), expiryMS)
}

// RegisterPollFD and UnregisterPollFD implement natengine.Callbacks. They
// are advisory and are no-ops here: the poll set is rebuilt
// fresh from Engine.PollFDsFill every round.
func (inst *Instance) RegisterPollFD(fd uintptr)   {}
func (inst *Instance) UnregisterPollFD(fd uintptr) {}

// Notify implements natengine.Callbacks: the engine asks to be polled
// again promptly.
func (inst *Instance) Notify() { inst.wake.Notify() }

// MetricsGatherer exposes this instance's dedicated metrics registry for
// wiring into an HTTP scrape endpoint.
func (inst *Instance) MetricsGatherer() prometheus.Gatherer { return inst.metrics }

func (inst *Instance) metricsSnapshot() natmetrics.Snapshot {
	return natmetrics.Snapshot{
		InFlightPackets:        inst.inFlightPackets.Load(),
		WakeupBytesOutstanding: inst.wake.Outstanding(),
		PollRounds:             inst.pollRounds.Load(),
		PollFailures:           inst.pollFailures.Load(),
		EngineQueueDepth:       inst.engineQueue.Len(),
		ReceiveQueueDepth:      inst.recvQueue.Len(),
	}
}

// callAndWaitOnEngineQueue runs fn on the NAT thread and blocks for
// completion if the NAT thread is RUNNING, dispatching synchronously
// otherwise. Shared by notify_link_changed (§4.8) and redirect_command
// (§4.9): both need "call_and_wait, poke wakeup, block" only once the
// thread is actually polling.
func (inst *Instance) callAndWaitOnEngineQueue(ctx context.Context, fn reqqueue.Func) error {
	if inst.state_() != StateRunning {
		fn()
		return nil
	}
	return inst.engineQueue.CallAndWait(ctx, fn)
}
