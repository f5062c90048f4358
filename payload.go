package main

import (
	"fmt"
	"strings"
)

const payloadCapacity = 192

// Payload is a fixed-capacity unsigned bit string. Bit 0 is the least
// significant bit of the first word. The protocol width is a Layout
// property; bits at or above it are always zero in decoded messages.
type Payload [payloadCapacity / 64]uint64

func (p Payload) Bit(i uint) uint64 {
	return (p[i/64] >> (i % 64)) & 1
}

func (p Payload) SetBit(i uint, v uint64) Payload {
	if v&1 == 1 {
		p[i/64] |= 1 << (i % 64)
	} else {
		p[i/64] &^= 1 << (i % 64)
	}
	return p
}

// Bits extracts width (<= 64) bits starting at offset. Ranges may straddle
// a word boundary.
func (p Payload) Bits(offset, width uint) uint64 {
	var v uint64
	for i := uint(0); i < width; i++ {
		v |= p.Bit(offset+i) << i
	}
	return v
}

func (p Payload) SetBits(offset, width uint, v uint64) Payload {
	for i := uint(0); i < width; i++ {
		p = p.SetBit(offset+i, v>>i)
	}
	return p
}

func (p Payload) Xor(q Payload) Payload {
	for i := range p {
		p[i] ^= q[i]
	}
	return p
}

func (p Payload) Or(q Payload) Payload {
	for i := range p {
		p[i] |= q[i]
	}
	return p
}

func (p Payload) And(q Payload) Payload {
	for i := range p {
		p[i] &= q[i]
	}
	return p
}

func (p Payload) IsZero() bool {
	return p == Payload{}
}

// Bytes returns the first n bytes, least significant first.
func (p Payload) Bytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(p[i/8] >> (8 * (i % 8)))
	}
	return b
}

// Format renders the low width bits most significant first, with an
// underscore between every group of four counted from bit 0.
func (p Payload) Format(width uint) string {
	var sb strings.Builder
	for i := int(width) - 1; i >= 0; i-- {
		sb.WriteByte(byte('0' + p.Bit(uint(i))))
		if i%4 == 0 && i != 0 {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// Marker renders the same columns as Format with '^' for set bits and
// blanks everywhere else.
func (p Payload) Marker(width uint) string {
	return strings.Map(func(r rune) rune {
		if r == '1' {
			return '^'
		}
		return ' '
	}, p.Format(width))
}

// rulerFor labels every fourth bit position so that the label ends in the
// column of that bit in Format output.
func rulerFor(width uint) string {
	line := []byte(strings.Repeat(" ", len(Payload{}.Format(width))))
	col := 0
	for i := int(width) - 1; i >= 0; i-- {
		if i%4 == 0 {
			label := fmt.Sprint(i)
			if start := col - len(label) + 1; start >= 0 {
				copy(line[start:], label)
			}
		}
		col++
		if i%4 == 0 && i != 0 {
			col++
		}
	}
	return strings.TrimRight(string(line), " ")
}

func (p Payload) String() string {
	return p.Hex()
}

// Hex renders the payload as big-endian hex without leading zeros.
func (p Payload) Hex() string {
	s := fmt.Sprintf("%016x%016x%016x", p[2], p[1], p[0])
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0"
	}
	return s
}

func (p Payload) MarshalText() ([]byte, error) {
	return []byte(p.Hex()), nil
}

func (p *Payload) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(strings.ReplaceAll(strings.ToLower(string(text)), "_", ""), "0x")
	if len(s) == 0 || len(s) > payloadCapacity/4 {
		return fmt.Errorf("payload %q: want 1 to %d hex digits", text, payloadCapacity/4)
	}
	var q Payload
	for i := 0; i < len(s); i++ {
		c := s[len(s)-1-i]
		var nibble uint64
		switch {
		case c >= '0' && c <= '9':
			nibble = uint64(c - '0')
		case c >= 'a' && c <= 'f':
			nibble = uint64(c-'a') + 10
		default:
			return fmt.Errorf("payload %q: invalid hex digit %q", text, c)
		}
		q = q.SetBits(uint(4*i), 4, nibble)
	}
	*p = q
	return nil
}
