package pyin

/*------------------------------------------------------------------
 *
 * Purpose:	Map Stage 1 candidates onto a fixed pitch-bin observation
 *		vector plus a scalar voiced-mass summary.
 *
 *----------------------------------------------------------------*/

// ObservationFrame is the bin-quantized summary of one Stage1CandidateFrame.
type ObservationFrame struct {
	PStar [NumBins]float32
	SumP  float32
}

// buildObservation quantizes each candidate to a pitch bin (discarding
// candidates below 55Hz or outside the bin range) and sums probability
// mass per bin, capping the total at 1.
func buildObservation(frame Stage1CandidateFrame) ObservationFrame {
	var obs ObservationFrame
	var total float32
	for _, c := range frame.Candidates {
		bin, ok := freqToBin(float64(c.FrequencyHz))
		if !ok {
			continue
		}
		obs.PStar[bin] += c.Probability
		total += c.Probability
	}
	if total > 1 {
		total = 1
	}
	obs.SumP = total
	return obs
}
