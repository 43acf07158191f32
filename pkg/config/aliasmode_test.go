package config

import "testing"

func TestRemapAliasModeBits(t *testing.T) {
	cases := []struct {
		in   int32
		want int
	}{
		{0b000, 0x00},
		{0b001, 0x01},
		{0b010, 0x40},
		{0b100, 0x04},
		{0b111, 0x01 | 0x40 | 0x04},
	}
	for _, c := range cases {
		if got := RemapAliasMode(c.in); got != c.want {
			t.Fatalf("RemapAliasMode(%b) = %#x, want %#x", c.in, got, c.want)
		}
	}
}
