package pyin

import "math"

/*------------------------------------------------------------------
 *
 * Purpose:	Incremental Viterbi decoder over NumBins x {unvoiced,
 *		voiced} states, smoothing per-frame Stage 1 observations
 *		into a temporally coherent pitch/voicing contour.
 *
 *----------------------------------------------------------------*/

const epsFloor = 1e-12

// HmmState names one Viterbi state: a pitch bin plus a voicing flag.
type HmmState struct {
	Bin    int
	Voiced bool
}

func stateIndex(bin int, voiced bool) int {
	if voiced {
		return NumBins + bin
	}
	return bin
}

func decodeState(idx int) HmmState {
	if idx >= NumBins {
		return HmmState{Bin: idx - NumBins, Voiced: true}
	}
	return HmmState{Bin: idx, Voiced: false}
}

// ViterbiTracker maintains log-domain DP scores across pushes and can
// backtrace the globally best path at any point; BestPath is idempotent
// and may be called after every push.
type ViterbiTracker struct {
	params       HmmParams
	prevScores   []float64
	backpointers [][]int32
	frameCount   int
}

// NewViterbiTracker builds a tracker with fresh HmmParams and no history.
func NewViterbiTracker() *ViterbiTracker {
	return &ViterbiTracker{params: NewHmmParams()}
}

// Reset rebuilds HmmParams (deterministic, so this is equivalent to
// zeroing in place) and discards all history.
func (t *ViterbiTracker) Reset() {
	t.params = NewHmmParams()
	t.prevScores = nil
	t.backpointers = nil
	t.frameCount = 0
}

// FrameCount reports how many observation frames have been pushed.
func (t *ViterbiTracker) FrameCount() int {
	return t.frameCount
}

// Push advances the DP by one observation frame.
func (t *ViterbiTracker) Push(obs ObservationFrame) {
	if t.frameCount == 0 {
		t.prevScores = make([]float64, 2*NumBins)
		unvoicedObs := math.Log(maxf(epsFloor, 0.5*(1-float64(obs.SumP))))
		uniform := math.Log(1.0 / float64(NumBins))
		for b := 0; b < NumBins; b++ {
			t.prevScores[stateIndex(b, false)] = uniform + unvoicedObs
			t.prevScores[stateIndex(b, true)] = math.Inf(-1)
		}
		bp := make([]int32, 2*NumBins)
		for i := range bp {
			bp[i] = -1
		}
		t.backpointers = append(t.backpointers, bp)
		t.frameCount = 1
		return
	}

	cur := make([]float64, 2*NumBins)
	bp := make([]int32, 2*NumBins)

	for _, nextVoiced := range [...]bool{false, true} {
		obsLogUnvoiced := math.Log(maxf(epsFloor, 0.5*(1-float64(obs.SumP))))

		for nextBin := 0; nextBin < NumBins; nextBin++ {
			var obsLog float64
			if nextVoiced {
				obsLog = math.Log(maxf(epsFloor, 0.5*float64(obs.PStar[nextBin])))
			} else {
				obsLog = obsLogUnvoiced
			}

			lo := nextBin - MaxPitchJump
			if lo < 0 {
				lo = 0
			}
			hi := nextBin + MaxPitchJump
			if hi > NumBins-1 {
				hi = NumBins - 1
			}

			best := math.Inf(-1)
			bestIdx := int32(-1)
			for prevBin := lo; prevBin <= hi; prevBin++ {
				pitchLog := t.params.logPitchTransition(nextBin - prevBin)
				for _, prevVoiced := range [...]bool{false, true} {
					prevIdx := stateIndex(prevBin, prevVoiced)
					score := t.prevScores[prevIdx] + pitchLog + t.params.logVoicingTransition(prevVoiced, nextVoiced)
					if score > best {
						best = score
						bestIdx = int32(prevIdx)
					}
				}
			}

			idx := stateIndex(nextBin, nextVoiced)
			cur[idx] = best + obsLog
			bp[idx] = bestIdx
		}
	}

	t.prevScores = cur
	t.backpointers = append(t.backpointers, bp)
	t.frameCount++
}

// BestPath backtraces the globally-optimal state sequence over every
// frame pushed so far. It is safe to call after every push; the result
// may legitimately differ from a prior call as more evidence arrives and
// retroactively corrects the path through earlier frames.
func (t *ViterbiTracker) BestPath() []HmmState {
	if t.frameCount == 0 {
		return nil
	}
	best := math.Inf(-1)
	bestIdx := 0
	for i, s := range t.prevScores {
		if s > best {
			best = s
			bestIdx = i
		}
	}

	path := make([]HmmState, t.frameCount)
	idx := bestIdx
	for f := t.frameCount - 1; f >= 0; f-- {
		path[f] = decodeState(idx)
		if f > 0 {
			idx = int(t.backpointers[f][idx])
		}
	}
	return path
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
