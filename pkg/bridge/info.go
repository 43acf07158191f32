package bridge

import "fmt"

// DumpInfo prints the engine's connection/neighbor/version strings plus
// this instance's own state, the Go analogue of the original driver's
// drvNATInfo DBGF handler.
func (inst *Instance) DumpInfo() string {
	return fmt.Sprintf(
		"instance: %s\nstate: %s\nlink: %s (desired %s)\nin_flight_packets: %d\nwakeup_bytes_outstanding: %d\n\n%s\n\n%s\n\n%s\n",
		inst.id,
		inst.state_().String(),
		LinkState(inst.linkState.Load()).String(),
		LinkState(inst.desiredLinkState.Load()).String(),
		inst.inFlightPackets.Load(),
		inst.wake.Outstanding(),
		inst.engine.VersionString(),
		inst.engine.ConnectionInfo(),
		inst.engine.NeighborInfo(),
	)
}
