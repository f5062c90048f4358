package main

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestPayloadBitsAcrossWords(t *testing.T) {
	c := qt.New(t)

	var p Payload
	p = p.SetBits(60, 10, 0x3FF)
	c.Assert(p.Bits(60, 10), qt.Equals, uint64(0x3FF))
	c.Assert(p[0], qt.Equals, uint64(0xF)<<60)
	c.Assert(p[1], qt.Equals, uint64(0x3F))

	p = p.SetBit(63, 0)
	c.Assert(p.Bits(60, 10), qt.Equals, uint64(0x3F7))
	c.Assert(p.Bit(128), qt.Equals, uint64(0))
	c.Assert(p.SetBit(128, 1)[2], qt.Equals, uint64(1))
}

func TestPayloadFormat(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		value uint64
		width uint
		want  string
	}{
		{value: 0x12, width: 5, want: "1_0010"},
		{value: 0x1C3, width: 9, want: "1_1100_0011"},
		{value: 0xC3, width: 12, want: "0000_1100_0011"},
		{value: 1, width: 1, want: "1"},
	}
	for _, test := range tests {
		var p Payload
		p = p.SetBits(0, 64, test.value)
		c.Assert(p.Format(test.width), qt.Equals, test.want)
	}

	var full Payload
	c.Assert(full.Format(129), qt.HasLen, 129+32)
}

func TestRulerAlignsWithFormat(t *testing.T) {
	c := qt.New(t)
	c.Assert(rulerFor(8), qt.Equals, "   4    0")

	ruler := rulerFor(129)
	c.Assert(ruler, qt.HasLen, 129+32)
	// no room for the 128 label left of bit 128
	c.Assert(strings.HasPrefix(ruler, "   124  120"), qt.IsTrue, qt.Commentf("ruler %q", ruler))
	c.Assert(strings.HasSuffix(ruler, "8    4    0"), qt.IsTrue, qt.Commentf("ruler %q", ruler))

	// every label ends in the column of its bit
	var p Payload
	p = p.SetBit(96, 1)
	line := p.Format(129)
	col := strings.IndexByte(line, '1')
	c.Assert(ruler[col-1:col+1], qt.Equals, "96")
}

func TestPayloadMarker(t *testing.T) {
	c := qt.New(t)
	var p Payload
	p = p.SetBit(0, 1).SetBit(5, 1)
	c.Assert(p.Format(8), qt.Equals, "0010_0001")
	c.Assert(p.Marker(8), qt.Equals, "  ^     ^")
}

func TestPayloadText(t *testing.T) {
	c := qt.New(t)

	var p Payload
	c.Assert(p.UnmarshalText([]byte("2A00002000000000A000E0C7C3")), qt.IsNil)
	c.Assert(p.Hex(), qt.Equals, "2a00002000000000a000e0c7c3")
	c.Assert(p.Bytes(3), qt.DeepEquals, []byte{0xC3, 0xC7, 0xE0})
	c.Assert(p.Bits(96, 8), qt.Equals, uint64(0x2A))

	var q Payload
	c.Assert(q.UnmarshalText([]byte("0x1_0000_0000_0000_0000_0000_0000_0000_0000")), qt.IsNil)
	c.Assert(q.Bit(128), qt.Equals, uint64(1))

	c.Assert(q.UnmarshalText([]byte("xyz")), qt.ErrorMatches, `payload "xyz": invalid hex digit 'z'`)
	c.Assert(q.UnmarshalText(nil), qt.ErrorMatches, `payload "": want 1 to 48 hex digits`)
	c.Assert(Payload{}.Hex(), qt.Equals, "0")
}

func TestPayloadSetOperations(t *testing.T) {
	c := qt.New(t)
	var a, b Payload
	a = a.SetBits(0, 4, 0xC)
	b = b.SetBits(0, 4, 0xA)
	c.Assert(a.Xor(b).Bits(0, 4), qt.Equals, uint64(0x6))
	c.Assert(a.Or(b).Bits(0, 4), qt.Equals, uint64(0xE))
	c.Assert(a.And(b).Bits(0, 4), qt.Equals, uint64(0x8))
	c.Assert(a.Xor(a).IsZero(), qt.IsTrue)
}
