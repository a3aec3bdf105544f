package pyin

import "testing"

// Invariant 9.
func TestMidiFromHz(t *testing.T) {
	cases := []struct {
		hz   float64
		want int
	}{
		{220, 57},
		{440, 69},
		{1046.5, 84},
		{0, 0},
		{-5, 0},
	}
	for _, c := range cases {
		if got := MidiFromHz(c.hz); got != c.want {
			t.Errorf("MidiFromHz(%v) = %d, want %d", c.hz, got, c.want)
		}
	}
}
