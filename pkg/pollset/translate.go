package pollset

import "golang.org/x/sys/unix"

// EngineFlag is the engine's poll-event bitmask (SLIRP_POLL_* in the
// original driver), independent of any host's representation.
type EngineFlag uint8

const (
	FlagIn EngineFlag = 1 << iota
	FlagOut
	FlagPri
	FlagErr
	FlagHup
)

// winsock2.h flag values, reproduced here (not imported from
// golang.org/x/sys/windows) so the translation table is exercisable by
// tests on every host this module is built for.
const (
	winPOLLRDNORM int16 = 0x0100
	winPOLLRDBAND int16 = 0x0200
	winPOLLIN     int16 = winPOLLRDNORM | winPOLLRDBAND
	winPOLLPRI    int16 = 0x0400
	winPOLLWRNORM int16 = 0x0010
	winPOLLOUT    int16 = winPOLLWRNORM
)

// ToHostPOSIX translates engine flags to POSIX poll(2) events.
func ToHostPOSIX(f EngineFlag) int16 {
	var r int16
	if f&FlagIn != 0 {
		r |= unix.POLLIN
	}
	if f&FlagOut != 0 {
		r |= unix.POLLOUT
	}
	if f&FlagPri != 0 {
		r |= unix.POLLPRI
	}
	if f&FlagErr != 0 {
		r |= unix.POLLERR
	}
	if f&FlagHup != 0 {
		r |= unix.POLLHUP
	}
	return r
}

// FromHostPOSIX translates POSIX poll(2) revents back to engine flags.
func FromHostPOSIX(revents int16) EngineFlag {
	var f EngineFlag
	if revents&unix.POLLIN != 0 {
		f |= FlagIn
	}
	if revents&unix.POLLOUT != 0 {
		f |= FlagOut
	}
	if revents&unix.POLLPRI != 0 {
		f |= FlagPri
	}
	if revents&unix.POLLERR != 0 {
		f |= FlagErr
	}
	if revents&unix.POLLHUP != 0 {
		f |= FlagHup
	}
	return f
}

// ToHostWindows translates engine flags to WSAPoll events. ERR and HUP have
// no WSAPoll equivalent and are dropped.
func ToHostWindows(f EngineFlag) int16 {
	var r int16
	if f&FlagIn != 0 {
		r |= winPOLLIN
	}
	if f&FlagOut != 0 {
		r |= winPOLLOUT
	}
	if f&FlagPri != 0 {
		r |= winPOLLIN
	}
	return r
}

// FromHostWindows translates WSAPoll revents back to engine flags: POLLIN
// (POLLRDNORM or POLLRDBAND) yields FlagIn and POLLOUT yields FlagOut.
// FlagPri, FlagErr and FlagHup are never reported.
func FromHostWindows(revents int16) EngineFlag {
	var f EngineFlag
	if revents&winPOLLIN != 0 {
		f |= FlagIn
	}
	if revents&winPOLLOUT != 0 {
		f |= FlagOut
	}
	return f
}
