package pyin

import "math"

/*------------------------------------------------------------------
 *
 * Purpose:	Log-domain HMM parameters for the Viterbi pitch tracker:
 *		a triangular pitch-transition kernel and voicing
 *		stay/switch probabilities.
 *
 *----------------------------------------------------------------*/

// HmmParams holds the precomputed log-domain transition weights shared by
// every push of the Viterbi tracker. It is deterministic and has no
// mutable state, so ViterbiTracker.Reset rebuilds it instead of zeroing
// fields in place.
type HmmParams struct {
	// pitchLogWeight[delta+MaxPitchJump] is ln(w(delta)) for delta in
	// [-MaxPitchJump, MaxPitchJump].
	pitchLogWeight [2*MaxPitchJump + 1]float64
	voicingStay    float64
	voicingSwitch  float64
}

// NewHmmParams builds the triangular transition kernel w(delta) proportional
// to (MaxPitchJump+1-|delta|), normalized to sum to 1, and the fixed 0.99 /
// 0.01 voicing self-transition probabilities, both stored as natural logs.
func NewHmmParams() HmmParams {
	var p HmmParams
	sum := 0.0
	var raw [2*MaxPitchJump + 1]float64
	for d := -MaxPitchJump; d <= MaxPitchJump; d++ {
		w := float64(MaxPitchJump + 1 - iabs(d))
		raw[d+MaxPitchJump] = w
		sum += w
	}
	for i, w := range raw {
		p.pitchLogWeight[i] = math.Log(w / sum)
	}
	p.voicingStay = math.Log(0.99)
	p.voicingSwitch = math.Log(0.01)
	return p
}

// logPitchTransition returns ln(w(delta)) for delta in [-MaxPitchJump,
// MaxPitchJump]; callers must not invoke it outside that range.
func (p HmmParams) logPitchTransition(delta int) float64 {
	return p.pitchLogWeight[delta+MaxPitchJump]
}

func (p HmmParams) logVoicingTransition(prevVoiced, nextVoiced bool) float64 {
	if prevVoiced == nextVoiced {
		return p.voicingStay
	}
	return p.voicingSwitch
}

func iabs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
