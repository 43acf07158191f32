package config

// RemapAliasMode translates the configuration's AliasMode bit layout into
// the engine's, per spec.md §6: bit 0 → 0x01, bit 1 → 0x40, bit 2 → 0x04.
// Bits outside {0,1,2} are not part of the documented mapping and are
// dropped.
func RemapAliasMode(cfgBits int32) int {
	var out int
	if cfgBits&(1<<0) != 0 {
		out |= 0x01
	}
	if cfgBits&(1<<1) != 0 {
		out |= 0x40
	}
	if cfgBits&(1<<2) != 0 {
		out |= 0x04
	}
	return out
}
