package pyin

import "math"

/*------------------------------------------------------------------
 *
 * Purpose:	Thin MIDI-byte streaming wrapper for embedded/bridge
 *		consumers that can't handle a structured FrameEstimate
 *		stream or an unwinding panic.
 *
 *----------------------------------------------------------------*/

// msToSamples rounds to the nearest sample count rather than truncating,
// so e.g. 44100Hz at a 5ms hop lands on 221 samples, not 220.
func msToSamples(sampleRateHz uint32, ms float64) int {
	n := int(math.Round(float64(sampleRateHz) * ms / 1000.0))
	if n < 1 {
		n = 1
	}
	return n
}

// UnvoicedSentinel is returned by Processor.PushAndGetMidi when no voiced
// frame was produced by a call: no data, invalid config, or a trapped
// internal panic.
const UnvoicedSentinel uint16 = 255

// Processor is the embedded/bridge-facing wrapper around Engine. Unlike
// Engine, it never returns an error after construction: a bad
// configuration is latched and PushAndGetMidi degrades to the sentinel
// forever after.
type Processor struct {
	engine  *Engine
	invalid bool
}

// NewProcessor builds a Processor tuned for singing voice (fmin=40,
// fmax=2000) at the given sample rate, window and hop (both in
// milliseconds). If windowMs < hopMs the processor is marked invalid and
// will always report the unvoiced sentinel.
func NewProcessor(sampleRateHz uint32, windowMs, hopMs float64) *Processor {
	if windowMs < hopMs {
		return &Processor{invalid: true}
	}

	frameSize := msToSamples(sampleRateHz, windowMs)
	hopSize := msToSamples(sampleRateHz, hopMs)
	if frameSize <= 0 || hopSize <= 0 || frameSize < hopSize {
		return &Processor{invalid: true}
	}

	cfg := NewConfig(sampleRateHz, frameSize, hopSize)
	cfg.FminHz = 40
	cfg.FmaxHz = 2000

	engine, err := New(cfg, I16LE, EngineOptions{})
	if err != nil {
		return &Processor{invalid: true}
	}
	return &Processor{engine: engine}
}

// PushAndGetMidi pushes bytes (16-bit little-endian PCM) and returns the
// MIDI note of the latest voiced frame this call produced, or
// UnvoicedSentinel if none was produced. Internal panics are trapped and
// reported as the sentinel, since bridge consumers cannot unwind a Go
// panic across their FFI boundary.
func (p *Processor) PushAndGetMidi(bytes []byte) (result uint16) {
	result = UnvoicedSentinel
	if p.invalid || p.engine == nil {
		return result
	}
	defer func() {
		if r := recover(); r != nil {
			p.engine.logger.Error("processor: recovered panic, returning unvoiced sentinel", "panic", r)
			result = UnvoicedSentinel
		}
	}()

	frames := p.engine.PushBytes(bytes)
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].Voiced && frames[i].MidiNote != nil {
			return uint16(*frames[i].MidiNote)
		}
	}
	return UnvoicedSentinel
}
