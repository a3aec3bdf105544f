package pyin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// Invariant 3: 0 <= sum_p <= 1 and p_star[b] >= 0.
func TestBuildObservation_Bounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(t, "n")
		var candidates []Candidate
		for i := 0; i < n; i++ {
			freq := rapid.Float64Range(20, 2000).Draw(t, "freq")
			prob := rapid.Float64Range(0, 1).Draw(t, "prob")
			candidates = append(candidates, Candidate{
				FrequencyHz: float32(freq),
				Probability: float32(prob),
			})
		}
		obs := buildObservation(Stage1CandidateFrame{Candidates: candidates})
		if obs.SumP < 0 || obs.SumP > 1 {
			t.Fatalf("sum_p out of bounds: %v", obs.SumP)
		}
		for _, v := range obs.PStar {
			if v < 0 {
				t.Fatalf("p_star has negative entry: %v", v)
			}
		}
	})
}

func TestBuildObservation_RejectsSubA1Frequencies(t *testing.T) {
	obs := buildObservation(Stage1CandidateFrame{Candidates: []Candidate{
		{FrequencyHz: 30, Probability: 1},
	}})
	assert.Equal(t, float32(0), obs.SumP)
}

func TestFreqToBin_Endpoints(t *testing.T) {
	b, ok := freqToBin(55)
	assert.True(t, ok)
	assert.Equal(t, 0, b)

	_, ok = freqToBin(54)
	assert.False(t, ok)
}
