package main

import (
	"errors"
	"fmt"
)

// Field is one bit range of the message payload.
type Field struct {
	Name   string
	Offset uint
	Width  uint
}

func (f Field) Mask() uint64 {
	return 1<<f.Width - 1
}

func (f Field) Get(p Payload) uint64 {
	return p.Bits(f.Offset, f.Width)
}

func (f Field) Set(p Payload, v uint64) Payload {
	return p.SetBits(f.Offset, f.Width, v&f.Mask())
}

func (f Field) Clear(p Payload) Payload {
	return p.SetBits(f.Offset, f.Width, 0)
}

func (f Field) end() uint {
	return f.Offset + f.Width
}

// Layout is the bit-field map of one protocol version. Changing an offset
// or width is a protocol change, so a Layout is built once and never
// mutated afterwards.
type Layout struct {
	Width    uint
	Preamble Payload

	SwingOff   Field // 0 means swing on, any other value off
	Celsius    Field
	FanSpeed   Field
	Unit       Field
	Sleep      Field
	Mode       Field
	Power      Field
	Fahrenheit Field
	Button     Field
	Checksum   Field

	// stored value = temperature + offset
	CelsiusOffset    int
	FahrenheitOffset int
}

func (l Layout) fields() []Field {
	return []Field{
		l.SwingOff, l.Celsius, l.FanSpeed, l.Unit, l.Sleep,
		l.Mode, l.Power, l.Fahrenheit, l.Button, l.Checksum,
	}
}

// byteLen is the number of payload bytes the checksum runs over.
func (l Layout) byteLen() int {
	return int(l.Width+7) / 8
}

func (l Layout) Validate() error {
	if l.Width == 0 || l.Width > payloadCapacity {
		return fmt.Errorf("layout width %d out of range 1..%d", l.Width, payloadCapacity)
	}
	if l.Checksum.Width != 8 {
		return fmt.Errorf("checksum field is %d bits wide, want 8", l.Checksum.Width)
	}

	var used Payload
	for _, f := range l.fields() {
		if f.Width == 0 || f.Width > 64 {
			return fmt.Errorf("field %s: width %d out of range 1..64", f.Name, f.Width)
		}
		if f.end() > l.Width {
			return fmt.Errorf("field %s: bits %d-%d exceed message width %d", f.Name, f.Offset, f.end()-1, l.Width)
		}
		var mask Payload
		mask = f.Set(mask, f.Mask())
		if !used.And(mask).IsZero() {
			return fmt.Errorf("field %s overlaps another field", f.Name)
		}
		used = used.Or(mask)
	}

	var beyond Payload
	for i := l.Width; i < payloadCapacity; i++ {
		beyond = beyond.SetBit(i, 1)
	}
	if !l.Preamble.And(used.Or(beyond)).IsZero() {
		return errors.New("preamble sets bits inside a field or beyond the message width")
	}
	return nil
}

// Timing holds the pulse durations of the IR encoding, in microseconds.
type Timing struct {
	Intro1 uint16
	Intro2 uint16
	Short  uint16
	Long   uint16
	// durations <= Cutoff are short
	Cutoff uint16
}

func (t Timing) Validate() error {
	if t.Short > t.Cutoff || t.Long <= t.Cutoff {
		return fmt.Errorf("timing: short %d and long %d must fall either side of cutoff %d", t.Short, t.Long, t.Cutoff)
	}
	return nil
}

// Protocol is the complete set of constants the codecs are built from.
type Protocol struct {
	Layout Layout
	Timing Timing
}

func (p Protocol) Validate() error {
	if err := p.Layout.Validate(); err != nil {
		return err
	}
	return p.Timing.Validate()
}

// DefaultProtocol returns the layout recovered from captured remote codes.
// The low 104 bits of a capture (on, 32C, auto, fan auto, swing off, PLUS):
//
//	  100   96   92   88   84   80   76   72   68   64   60   56   52   48   44   40   36   32   28   24   20   16   12    8    4    0
//	0010_1010_0000_0000_0000_0000_0010_0000_0000_0000_0000_0000_0000_0000_0000_0000_1010_0000_0000_0000_1110_0000_1100_0111_1100_0011
//
// Bit 92 is set in some captures and its meaning is unknown; the encoder
// leaves it clear.
func DefaultProtocol() Protocol {
	var preamble Payload
	preamble = preamble.SetBits(0, 8, 0xC3)
	preamble = preamble.SetBits(21, 3, 0x7)

	return Protocol{
		Layout: Layout{
			Width:    129,
			Preamble: preamble,

			SwingOff:   Field{Name: "swing", Offset: 8, Width: 3},
			Celsius:    Field{Name: "celsius", Offset: 11, Width: 5},
			FanSpeed:   Field{Name: "fan speed", Offset: 37, Width: 3},
			Unit:       Field{Name: "unit", Offset: 49, Width: 1},
			Sleep:      Field{Name: "sleep", Offset: 50, Width: 1},
			Mode:       Field{Name: "mode", Offset: 53, Width: 3},
			Power:      Field{Name: "power", Offset: 77, Width: 1},
			Fahrenheit: Field{Name: "fahrenheit", Offset: 81, Width: 7},
			Button:     Field{Name: "button", Offset: 88, Width: 4},
			Checksum:   Field{Name: "checksum", Offset: 96, Width: 8},

			CelsiusOffset:    -8,
			FahrenheitOffset: 8,
		},
		Timing: Timing{
			Intro1: 9000,
			Intro2: 4500,
			Short:  560,
			Long:   1690,
			Cutoff: 1000,
		},
	}
}
