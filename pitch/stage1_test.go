package pyin

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestBetaWeights_SumToOne(t *testing.T) {
	for _, kind := range []BetaPriorKind{Mean10, Mean15, Mean20} {
		w := betaWeights(BetaPrior{Kind: kind})
		sum := 0.0
		for _, v := range w {
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "kind=%v", kind)
	}
}

func sineFrame(freq float64, sr uint32, n int) []float64 {
	frame := make([]float64, n)
	for i := range frame {
		frame[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sr))
	}
	return frame
}

// Invariant 2: for every frame, sum of candidate probabilities <= 1 + 1e-6.
func TestStage1_CandidateProbabilityBound(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		freq := rapid.Float64Range(60, 900).Draw(t, "freq")
		cfg := NewConfig(44100, 1024, 256)
		frame := sineFrame(freq, cfg.SampleRateHz, cfg.FrameSize)
		weights := betaWeights(cfg.BetaPrior)
		s1 := stage1Frame(cfg, frame, weights)

		var sum float32
		for _, c := range s1.Candidates {
			sum += c.Probability
		}
		if sum > 1+1e-6 {
			t.Fatalf("candidate probability sum %v exceeds 1+1e-6", sum)
		}
	})
}

func TestStage1_SineProducesCandidateNearTrueFreq(t *testing.T) {
	cfg := NewConfig(44100, 1024, 256)
	frame := sineFrame(220, cfg.SampleRateHz, cfg.FrameSize)
	weights := betaWeights(cfg.BetaPrior)
	s1 := stage1Frame(cfg, frame, weights)

	found := false
	for _, c := range s1.Candidates {
		cents := 1200 * math.Log2(float64(c.FrequencyHz)/220)
		if math.Abs(cents) < 50 {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("no candidate near 220Hz among %d candidates", len(s1.Candidates))
	}
}
