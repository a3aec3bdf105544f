package pyin

import "math"

// MidiFromHz converts a frequency in Hz to the nearest MIDI note number
// (A4=69, 440Hz), clamped to [0, 127]. Non-positive input yields 0.
func MidiFromHz(hz float64) int {
	if hz <= 0 {
		return 0
	}
	note := math.Round(69 + 12*math.Log2(hz/440))
	if note < 0 {
		return 0
	}
	if note > 127 {
		return 127
	}
	return int(note)
}
