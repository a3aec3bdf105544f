package pyin

import "math"

/*------------------------------------------------------------------
 *
 * Purpose:	Stage 1 of probabilistic YIN: sweep 100 fixed YIN thresholds,
 *		each weighted by a beta prior, to turn one analysis frame
 *		into a list of (frequency, probability) candidates.
 *
 *----------------------------------------------------------------*/

// Candidate is one Stage 1 pitch-period estimate with its marginal
// probability mass under the beta-prior threshold sweep.
type Candidate struct {
	FrequencyHz float32
	Probability float32
}

// Stage1CandidateFrame holds the candidates produced for one analysis frame.
type Stage1CandidateFrame struct {
	Candidates []Candidate
}

// thresholds is the fixed sweep {0.01, 0.02, ..., 1.00}.
var thresholds = buildThresholds()

func buildThresholds() [100]float64 {
	var t [100]float64
	for i := range t {
		t[i] = float64(i+1) / 100.0
	}
	return t
}

// betaWeights discretizes the beta(alpha, beta) density over the 100
// thresholds and normalizes it to sum to 1. The sweep ends at s=1, whose
// weight is 0 for every prior.
func betaWeights(prior BetaPrior) [100]float64 {
	alpha, beta := prior.alphaBeta()
	var w [100]float64
	sum := 0.0
	for i, s := range thresholds {
		if s >= 1 {
			continue
		}
		v := math.Pow(s, alpha-1) * math.Pow(1-s, beta-1)
		w[i] = v
		sum += v
	}
	if sum > 0 {
		for i := range w {
			w[i] /= sum
		}
	}
	return w
}

// stage1Frame runs the YIN kernel on frame and builds the threshold-swept
// candidate list.
func stage1Frame(cfg PyinConfig, frame []float64, weights [100]float64) Stage1CandidateFrame {
	minTau, maxTau := cfg.tauRange()

	diff := differenceFunction(frame, maxTau)
	cmnd := cumulativeMeanNormalizedDifference(diff)
	minima := localMinima(cmnd)

	globalMinTau := -1
	globalMinVal := math.Inf(1)
	for tau := minTau; tau <= maxTau && tau < len(cmnd); tau++ {
		if cmnd[tau] < globalMinVal {
			globalMinVal = cmnd[tau]
			globalMinTau = tau
		}
	}

	// Accumulate probability mass per tau, first-seen insertion order.
	order := make([]int, 0, len(minima))
	mass := make(map[int]float64)

	for i, s := range thresholds {
		chosen := -1
		for _, tau := range minima {
			if tau < minTau || tau > maxTau {
				continue
			}
			if cmnd[tau] < s {
				chosen = tau
				break
			}
		}
		attenuation := 1.0
		if chosen < 0 {
			if globalMinTau < 0 {
				continue
			}
			chosen = globalMinTau
			attenuation = float64(cfg.PaAbsoluteMin)
		}
		if _, seen := mass[chosen]; !seen {
			order = append(order, chosen)
		}
		mass[chosen] += attenuation * weights[i]
	}

	candidates := make([]Candidate, 0, len(order))
	for _, tau := range order {
		refined := parabolicInterpolation(cmnd, tau)
		if refined < 1.0 {
			refined = 1.0
		}
		freq := float64(cfg.SampleRateHz) / refined
		candidates = append(candidates, Candidate{
			FrequencyHz: float32(freq),
			Probability: float32(mass[tau]),
		})
	}
	return Stage1CandidateFrame{Candidates: candidates}
}
