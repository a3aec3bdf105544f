package pyin

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Invariant 8: triangular transition weights sum to 1; log weights finite
// for |delta| <= 25.
func TestHmmParams_PitchTransitionWeightsSumToOne(t *testing.T) {
	p := NewHmmParams()
	sum := 0.0
	for d := -MaxPitchJump; d <= MaxPitchJump; d++ {
		lw := p.logPitchTransition(d)
		assert.False(t, math.IsInf(lw, 0) || math.IsNaN(lw))
		sum += math.Exp(lw)
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestHmmParams_VoicingTransitions(t *testing.T) {
	p := NewHmmParams()
	assert.InDelta(t, math.Log(0.99), p.logVoicingTransition(true, true), 1e-12)
	assert.InDelta(t, math.Log(0.01), p.logVoicingTransition(true, false), 1e-12)
	assert.InDelta(t, math.Log(0.99), p.logVoicingTransition(false, false), 1e-12)
	assert.InDelta(t, math.Log(0.01), p.logVoicingTransition(false, true), 1e-12)
}

func TestStateIndexRoundTrip(t *testing.T) {
	for _, voiced := range []bool{false, true} {
		for _, bin := range []int{0, 1, 299, NumBins - 1} {
			idx := stateIndex(bin, voiced)
			state := decodeState(idx)
			assert.Equal(t, bin, state.Bin)
			assert.Equal(t, voiced, state.Voiced)
		}
	}
}

func TestViterbiTracker_InitFavorsUnvoiced(t *testing.T) {
	vt := NewViterbiTracker()
	vt.Push(ObservationFrame{SumP: 0})
	path := vt.BestPath()
	assert.Len(t, path, 1)
	assert.False(t, path[0].Voiced)
}

func TestViterbiTracker_TracksSteadyPitch(t *testing.T) {
	vt := NewViterbiTracker()
	const bin = 300
	const frames = 20
	for i := 0; i < frames; i++ {
		var obs ObservationFrame
		obs.PStar[bin] = 0.9
		obs.SumP = 0.9
		vt.Push(obs)
	}
	path := vt.BestPath()
	assert.Len(t, path, frames)
	// Sustained strong evidence for `bin` must eventually overcome the
	// 0.99 voicing-stay bias and the tracker should settle on it.
	last := path[frames-1]
	assert.True(t, last.Voiced)
	assert.Equal(t, bin, last.Bin)
}

func TestViterbiTracker_Reset(t *testing.T) {
	vt := NewViterbiTracker()
	vt.Push(ObservationFrame{SumP: 0.5})
	vt.Push(ObservationFrame{SumP: 0.5})
	vt.Reset()
	assert.Equal(t, 0, vt.FrameCount())
	assert.Nil(t, vt.BestPath())
}
