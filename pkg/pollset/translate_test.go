package pollset

import "testing"

func TestPOSIXRoundTripPreservesCoreFlags(t *testing.T) {
	for _, f := range []EngineFlag{FlagIn, FlagOut, FlagPri, FlagErr, FlagHup, FlagIn | FlagOut} {
		got := FromHostPOSIX(ToHostPOSIX(f))
		if got != f {
			t.Fatalf("POSIX round-trip of %v = %v", f, got)
		}
	}
}

func TestWindowsRoundTripDropsErrAndHup(t *testing.T) {
	got := FromHostWindows(ToHostWindows(FlagIn | FlagOut | FlagErr | FlagHup))
	want := FlagIn | FlagOut
	if got != want {
		t.Fatalf("Windows round-trip = %v, want %v (ERR/HUP have no WSAPoll equivalent)", got, want)
	}
}

func TestWindowsPriMapsToIn(t *testing.T) {
	got := FromHostWindows(ToHostWindows(FlagPri))
	if got != FlagIn {
		t.Fatalf("Windows PRI round-trip = %v, want FlagIn", got)
	}
}
