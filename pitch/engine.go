package pyin

import (
	"github.com/charmbracelet/log"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Streaming orchestrator: owns the sliding sample buffer,
 *		slices frames at the configured hop, drives Stage 1 ->
 *		Observation -> Viterbi, and emits newly-finalized
 *		FrameEstimates.
 *
 *----------------------------------------------------------------*/

// FrameEstimate is one emitted per-frame pitch estimate. Voiced iff both
// F0Hz and MidiNote are present.
type FrameEstimate struct {
	FrameIndex uint64
	TimeSec    float64
	F0Hz       *float32
	Voiced     bool
	Confidence float32
	MidiNote   *int
	Candidates []Candidate // only set when PyinConfig.ReturnCandidates
}

// EngineOptions are engine-construction knobs beyond PyinConfig itself.
type EngineOptions struct {
	// LookaheadFrames delays emission: a frame is emitted only once
	// LookaheadFrames newer frames have been pushed after it, so its
	// estimate reflects that many frames of retroactive path correction,
	// and it is never revised after emission. Zero (the default) emits
	// each frame at its first appearance, from the current globally-best
	// path.
	LookaheadFrames int
	// Logger receives Debug records for degenerate-frame fallbacks. Nil
	// uses the shared process-wide logger (see log.go).
	Logger *log.Logger
}

// Engine is the streaming pYIN pitch tracker. It is not thread-safe: the
// caller runs one Engine per audio stream.
type Engine struct {
	config  PyinConfig
	format  PCMFormat
	opts    EngineOptions
	logger  *log.Logger
	weights [100]float64

	sampleBuf []float64
	leftover  []byte

	stage1 []Stage1CandidateFrame
	obs    []ObservationFrame

	viterbi *ViterbiTracker

	lastEmitted uint64
}

// New constructs an Engine, or returns a *ConfigError if frame_size or
// hop_size is not a positive integer with frame_size >= hop_size.
func New(config PyinConfig, format PCMFormat, opts EngineOptions) (*Engine, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	lg := opts.Logger
	if lg == nil {
		lg = defaultLogger()
	}
	e := &Engine{
		config:  config,
		format:  format,
		opts:    opts,
		logger:  lg,
		weights: betaWeights(config.BetaPrior),
		viterbi: NewViterbiTracker(),
	}
	return e, nil
}

// Reset clears all mutable state: sample buffer, byte leftover,
// stage1/observation history, the Viterbi tracker, and the emission
// cursor.
func (e *Engine) Reset() {
	e.sampleBuf = nil
	e.leftover = nil
	e.stage1 = nil
	e.obs = nil
	e.viterbi.Reset()
	e.lastEmitted = 0
}

// PushBytes normalizes chunk through the PCM reassembler, slices any newly
// complete analysis frames at the configured hop, runs them through
// Stage 1 -> Observation -> Viterbi, and returns only the FrameEstimates
// finalized (first-emitted) by this call.
func (e *Engine) PushBytes(chunk []byte) []FrameEstimate {
	samples := ParsePCM(chunk, e.format, &e.leftover)
	for _, s := range samples {
		e.sampleBuf = append(e.sampleBuf, float64(s))
	}

	for len(e.sampleBuf) >= e.config.FrameSize {
		frame := append([]float64{}, e.sampleBuf[:e.config.FrameSize]...)
		s1 := stage1Frame(e.config, frame, e.weights)
		if len(s1.Candidates) == 0 {
			e.logger.Debug("stage1 produced no candidates, frame will decode unvoiced", "frame_index", len(e.stage1))
		}
		e.stage1 = append(e.stage1, s1)

		obsFrame := buildObservation(s1)
		e.obs = append(e.obs, obsFrame)
		e.viterbi.Push(obsFrame)

		e.sampleBuf = e.sampleBuf[e.config.HopSize:]
	}

	path := e.viterbi.BestPath()

	available := uint64(len(e.stage1))
	if la := uint64(e.opts.LookaheadFrames); la > 0 {
		if available > la {
			available -= la
		} else {
			available = e.lastEmitted
		}
	}

	var out []FrameEstimate
	for idx := e.lastEmitted; idx < available; idx++ {
		out = append(out, e.composeEstimate(idx, path[idx]))
	}
	e.lastEmitted = available
	return out
}

func (e *Engine) composeEstimate(idx uint64, state HmmState) FrameEstimate {
	fe := FrameEstimate{
		FrameIndex: idx,
		TimeSec:    float64(idx) * float64(e.config.HopSize) / float64(e.config.SampleRateHz),
	}
	obsFrame := e.obs[idx]

	if state.Voiced {
		f0 := float32(binFreq(state.Bin))
		fe.F0Hz = &f0
		fe.Voiced = true
		fe.Confidence = obsFrame.PStar[state.Bin]
		note := MidiFromHz(float64(f0))
		fe.MidiNote = &note
	} else {
		fe.Voiced = false
		fe.Confidence = 1 - obsFrame.SumP
	}

	if e.config.ReturnCandidates {
		fe.Candidates = e.stage1[idx].Candidates
	}
	return fe
}
