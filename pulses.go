package main

import "fmt"

// PulseCodec converts payloads to and from alternating mark/space
// durations: two intro entries, one (mark, space) pair per payload bit
// starting at bit 0, and a single short footer.
type PulseCodec struct {
	timing Timing
	width  uint
}

func NewPulseCodec(timing Timing, width uint) *PulseCodec {
	return &PulseCodec{timing: timing, width: width}
}

// Len is the number of entries in every encoded train.
func (c *PulseCodec) Len() int {
	return 2*int(c.width) + 3
}

func (c *PulseCodec) short(d uint16) bool {
	return d <= c.timing.Cutoff
}

// decodePair maps (short, short) to 0 and (short, long) to 1. A long mark
// is never valid.
func (c *PulseCodec) decodePair(v1, v2 uint16) (uint64, bool) {
	if !c.short(v1) {
		return 0, false
	}
	if c.short(v2) {
		return 0, true
	}
	return 1, true
}

// Decode recovers the payload from a captured train. The intro entries and
// the footer are skipped without looking at their values.
func (c *PulseCodec) Decode(pulses []uint16) (Payload, error) {
	var p Payload
	if len(pulses) < 2 {
		return p, &LengthMismatchError{Got: len(pulses), Want: c.Len()}
	}
	data := pulses[2:]
	if len(data)%2 != 1 || uint(len(data)-1)/2 != c.width {
		return p, &LengthMismatchError{Got: len(pulses), Want: c.Len()}
	}

	for i := uint(0); i < c.width; i++ {
		v1, v2 := data[2*i], data[2*i+1]
		bit, ok := c.decodePair(v1, v2)
		if !ok {
			return Payload{}, &InvalidPulsePairError{Index: int(i), V1: v1, V2: v2}
		}
		p = p.SetBit(i, bit)
	}
	return p, nil
}

func (c *PulseCodec) Encode(p Payload) []uint16 {
	t := c.timing
	out := make([]uint16, 0, c.Len())
	out = append(out, t.Intro1, t.Intro2)
	for i := uint(0); i < c.width; i++ {
		out = append(out, t.Short)
		if p.Bit(i) == 1 {
			out = append(out, t.Long)
		} else {
			out = append(out, t.Short)
		}
	}
	// footer
	out = append(out, t.Short)

	if len(out) != c.Len() {
		panic(fmt.Sprintf("encoded %d pulses, want %d", len(out), c.Len()))
	}
	return out
}
