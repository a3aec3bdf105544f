package pyin

import "math"

/*------------------------------------------------------------------
 *
 * Purpose:	Reassemble a byte stream of little-endian PCM samples into
 *		normalized floats, carrying a 1-3 byte tail across calls.
 *
 * Description:	Chunk boundaries from the caller never align with sample
 *		boundaries, so any bytes left over after the last whole
 *		sample are stashed in *leftover and prepended to the next
 *		call's chunk.
 *
 *----------------------------------------------------------------*/

// ParsePCM normalizes chunk (prefixed with any carried-over bytes in
// *leftover) into samples in [-1, 1], updating *leftover with whatever
// trailing partial sample remains.
func ParsePCM(chunk []byte, format PCMFormat, leftover *[]byte) []float32 {
	buf := *leftover
	if len(buf) > 0 {
		buf = append(append([]byte{}, buf...), chunk...)
	} else {
		buf = chunk
	}

	width := format.bytesPerSample()
	usable := (len(buf) / width) * width
	tail := buf[usable:]

	*leftover = append([]byte{}, tail...)

	samples := make([]float32, 0, usable/width)
	for i := 0; i < usable; i += width {
		switch format {
		case I16LE:
			v := int16(uint16(buf[i]) | uint16(buf[i+1])<<8)
			samples = append(samples, float32(v)/32768.0)
		case F32LE:
			bits := uint32(buf[i]) | uint32(buf[i+1])<<8 | uint32(buf[i+2])<<16 | uint32(buf[i+3])<<24
			f := math.Float32frombits(bits)
			samples = append(samples, clamp32(f, -1, 1))
		}
	}
	return samples
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
