// Package pyin implements a streaming monophonic pitch tracker using the
// two-stage probabilistic YIN algorithm (Mauch & Dixon): a beta-weighted
// YIN threshold sweep per analysis frame, followed by an HMM/Viterbi pass
// over pitch-bin x voicing states that smooths the per-frame distribution
// into a temporally coherent contour.
package pyin

import "fmt"

// PCMFormat names the little-endian sample encoding pushed into the engine.
type PCMFormat int

const (
	I16LE PCMFormat = iota
	F32LE
)

func (f PCMFormat) bytesPerSample() int {
	switch f {
	case F32LE:
		return 4
	default:
		return 2
	}
}

// BetaPriorKind selects one of the named (alpha, beta) pairs from the pYIN
// paper, or a caller-supplied pair.
type BetaPriorKind int

const (
	Mean10 BetaPriorKind = iota
	Mean15
	Mean20
	Custom
)

// BetaPrior is the beta distribution used to marginalize the YIN threshold.
type BetaPrior struct {
	Kind  BetaPriorKind
	Alpha float64
	Beta  float64
}

// alphaBeta resolves the named presets to concrete (alpha, beta) pairs.
func (p BetaPrior) alphaBeta() (float64, float64) {
	switch p.Kind {
	case Mean15:
		return 2, 11.333
	case Mean20:
		return 2, 8
	case Custom:
		return p.Alpha, p.Beta
	default:
		return 2, 18
	}
}

// DefaultBetaPrior is Mean10, the pYIN paper's default.
var DefaultBetaPrior = BetaPrior{Kind: Mean10}

// PyinConfig is immutable once passed to New. NewConfig returns one with
// defaults filled in; New does not fill zero-value fields, it rejects them.
type PyinConfig struct {
	SampleRateHz     uint32
	FrameSize        int
	HopSize          int
	FminHz           float64
	FmaxHz           float64
	BetaPrior        BetaPrior
	PaAbsoluteMin    float32
	ReturnCandidates bool
}

// NewConfig returns a PyinConfig with sensible defaults: fmin=50, fmax=1200,
// Mean10 prior, pa_absolute_min=0.01, candidates off.
func NewConfig(sampleRateHz uint32, frameSize, hopSize int) PyinConfig {
	return PyinConfig{
		SampleRateHz:     sampleRateHz,
		FrameSize:        frameSize,
		HopSize:          hopSize,
		FminHz:           50,
		FmaxHz:           1200,
		BetaPrior:        DefaultBetaPrior,
		PaAbsoluteMin:    0.01,
		ReturnCandidates: false,
	}
}

// ConfigError reports a construction-time configuration problem.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("pyin: invalid config: %s", e.Reason)
}

func (c PyinConfig) validate() error {
	if c.FrameSize <= 0 || c.HopSize <= 0 {
		return &ConfigError{Reason: "frame_size and hop_size must be > 0"}
	}
	if c.FrameSize < c.HopSize {
		return &ConfigError{Reason: "frame_size must be >= hop_size"}
	}
	if c.FminHz <= 0 || c.FmaxHz <= 0 || c.FminHz > c.FmaxHz {
		return &ConfigError{Reason: "fmin_hz must be positive and <= fmax_hz"}
	}
	if c.SampleRateHz == 0 {
		return &ConfigError{Reason: "sample_rate_hz must be > 0"}
	}
	return nil
}

// tauRange computes min_tau/max_tau, clamped so min_tau >= 1, max_tau <=
// frame_size-1, and min_tau <= max_tau (a narrow frame_size relative to
// fmin_hz can otherwise leave min_tau past max_tau, making the search range
// empty instead of the single point it should collapse to).
func (c PyinConfig) tauRange() (minTau, maxTau int) {
	minTau = int(ceilDiv(float64(c.SampleRateHz), c.FmaxHz))
	if minTau < 1 {
		minTau = 1
	}
	maxTau = int(float64(c.SampleRateHz) / c.FminHz)
	if maxTau > c.FrameSize-1 {
		maxTau = c.FrameSize - 1
	}
	if minTau > maxTau {
		minTau = maxTau
	}
	return minTau, maxTau
}

func ceilDiv(a, b float64) float64 {
	v := a / b
	i := float64(int(v))
	if v > i {
		return i + 1
	}
	return i
}
