package main

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
)

// Tuya IR blasters exchange codes as base64 of a FastLZ level 1 stream
// whose plaintext is the pulse durations as little-endian uint16s.

const (
	lzMaxLiteral  = 32
	lzMinMatch    = 3
	lzMaxMatch    = 7 + 255 + 2
	lzMaxDistance = 8192
)

func decodeWire(code string) ([]uint16, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWireFormat, err)
	}
	data, err := lzDecompress(raw)
	if err != nil {
		return nil, err
	}
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: odd payload length %d", ErrWireFormat, len(data))
	}
	pulses := make([]uint16, len(data)/2)
	for i := range pulses {
		pulses[i] = binary.LittleEndian.Uint16(data[2*i:])
	}
	return pulses, nil
}

func encodeWire(pulses []uint16) string {
	data := make([]byte, 2*len(pulses))
	for i, d := range pulses {
		binary.LittleEndian.PutUint16(data[2*i:], d)
	}
	return base64.StdEncoding.EncodeToString(lzCompress(data))
}

func lzDecompress(in []byte) ([]byte, error) {
	out := make([]byte, 0, 4*len(in))
	for i := 0; i < len(in); {
		header := in[i]
		i++

		n := int(header >> 5)
		if n == 0 {
			n = int(header&0x1f) + 1
			if i+n > len(in) {
				return nil, fmt.Errorf("%w: literal run of %d at offset %d overruns input", ErrWireFormat, n, i-1)
			}
			out = append(out, in[i:i+n]...)
			i += n
			continue
		}

		if n == 7 {
			if i >= len(in) {
				return nil, fmt.Errorf("%w: truncated match length at offset %d", ErrWireFormat, i)
			}
			n += int(in[i])
			i++
		}
		n += 2
		if i >= len(in) {
			return nil, fmt.Errorf("%w: truncated match distance at offset %d", ErrWireFormat, i)
		}
		dist := (int(header&0x1f)<<8 | int(in[i])) + 1
		i++
		if dist > len(out) {
			return nil, fmt.Errorf("%w: back reference %d before start of output", ErrWireFormat, dist)
		}
		// byte by byte: matches may overlap their own output
		start := len(out) - dist
		for k := 0; k < n; k++ {
			out = append(out, out[start+k])
		}
	}
	return out, nil
}

// lzCompress is a greedy single-candidate matcher; any valid stream is
// accepted by the blaster, so ratio is secondary.
func lzCompress(in []byte) []byte {
	var out, literal []byte
	flush := func() {
		for len(literal) > 0 {
			n := len(literal)
			if n > lzMaxLiteral {
				n = lzMaxLiteral
			}
			out = append(out, byte(n-1))
			out = append(out, literal[:n]...)
			literal = literal[n:]
		}
	}

	last := make(map[[lzMinMatch]byte]int)
	key := func(i int) [lzMinMatch]byte {
		return [lzMinMatch]byte{in[i], in[i+1], in[i+2]}
	}

	for i := 0; i < len(in); {
		if i+lzMinMatch <= len(in) {
			k := key(i)
			j, seen := last[k]
			last[k] = i
			if seen && i-j <= lzMaxDistance {
				n := 0
				for i+n < len(in) && n < lzMaxMatch && in[j+n] == in[i+n] {
					n++
				}
				if n >= lzMinMatch {
					flush()
					dist := i - j - 1
					if l := n - 2; l < 7 {
						out = append(out, byte(l<<5|dist>>8), byte(dist))
					} else {
						out = append(out, byte(7<<5|dist>>8), byte(l-7), byte(dist))
					}
					for s := i + 1; s < i+n && s+lzMinMatch <= len(in); s++ {
						last[key(s)] = s
					}
					i += n
					continue
				}
			}
		}
		literal = append(literal, in[i])
		i++
	}
	flush()
	return out
}
