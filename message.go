package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// EncodeWarning records an input the encoder could not represent and the
// value it sent instead.
type EncodeWarning struct {
	Field    string `json:"field"`
	Value    string `json:"value"`
	Fallback string `json:"fallback"`
}

func (w EncodeWarning) String() string {
	return fmt.Sprintf("unknown %s: %s, using %s", w.Field, w.Value, w.Fallback)
}

// MessageCodec converts between Settings and payloads of one Layout.
type MessageCodec struct {
	layout Layout
}

func NewMessageCodec(layout Layout) *MessageCodec {
	return &MessageCodec{layout: layout}
}

func (m *MessageCodec) Layout() Layout {
	return m.layout
}

// Checksum sums the payload bytes modulo 256 with the checksum field
// zeroed.
func (m *MessageCodec) Checksum(p Payload) uint8 {
	var sum uint8
	for _, b := range m.layout.Checksum.Clear(p).Bytes(m.layout.byteLen()) {
		sum += b
	}
	return sum
}

// Decode interprets a payload. The checksum is verified before any field
// is looked at, and unknown field codes are errors; nothing is defaulted.
func (m *MessageCodec) Decode(p Payload) (Settings, error) {
	l := m.layout

	stored := uint8(l.Checksum.Get(p))
	if sum := m.Checksum(p); sum != stored {
		return Settings{}, &ChecksumMismatchError{Expected: sum, Actual: stored}
	}

	unit, err := decodeField(units, l.Unit, p)
	if err != nil {
		return Settings{}, err
	}
	mode, err := decodeField(modes, l.Mode, p)
	if err != nil {
		return Settings{}, err
	}
	fan, err := decodeField(fanSpeeds, l.FanSpeed, p)
	if err != nil {
		return Settings{}, err
	}
	button, err := decodeField(buttons, l.Button, p)
	if err != nil {
		return Settings{}, err
	}

	s := Settings{
		Power:    l.Power.Get(p) == 1,
		Unit:     unit,
		Mode:     mode,
		FanSpeed: fan,
		Swing:    l.SwingOff.Get(p) == 0,
		Sleep:    l.Sleep.Get(p) == 1,
		Button:   button,
	}
	if unit == Celsius {
		s.Temperature = int(l.Celsius.Get(p)) - l.CelsiusOffset
	} else {
		s.Temperature = int(l.Fahrenheit.Get(p)) - l.FahrenheitOffset
	}
	return s, nil
}

func decodeField[T comparable](table enumTable[T], f Field, p Payload) (T, error) {
	raw := f.Get(p)
	v, ok := table.fromCode(raw)
	if !ok {
		return v, &UnknownFieldValueError{Field: f.Name, Raw: raw, Width: f.Width}
	}
	return v, nil
}

// Encode builds the payload for s. Values outside the closed enums, or a
// temperature the field cannot hold, are replaced by a default and
// reported as warnings rather than failing the message.
func (m *MessageCodec) Encode(s Settings) (Payload, []EncodeWarning) {
	l := m.layout
	var warnings []EncodeWarning
	warn := func(field string, value, fallback interface{}) {
		w := EncodeWarning{Field: field, Value: fmt.Sprint(value), Fallback: fmt.Sprint(fallback)}
		log.Warn(w.String())
		warnings = append(warnings, w)
	}

	unit, unitCode := s.Unit, uint64(0)
	if c, ok := units.code(unit); ok {
		unitCode = c
	} else {
		warn(l.Unit.Name, unit, Celsius)
		unit = Celsius
	}

	mode, modeCode := s.Mode, uint64(0)
	if c, ok := modes.code(mode); ok {
		modeCode = c
	} else {
		warn(l.Mode.Name, mode, ModeAuto)
		mode = ModeAuto
		modeCode, _ = modes.code(mode)
	}

	fan := s.FanSpeed
	if _, ok := fanSpeeds.code(fan); !ok {
		warn(l.FanSpeed.Name, fan, FanAuto)
		fan = FanAuto
	}
	fanCode, _ := fanSpeeds.code(legalFanSpeed(mode, fan))

	buttonCode, ok := buttons.code(s.Button)
	if !ok {
		warn(l.Button.Name, s.Button, ButtonPlus)
		buttonCode, _ = buttons.code(ButtonPlus)
	}

	p := l.Preamble
	// three bits, but only ever all clear or all set
	if !s.Swing {
		p = l.SwingOff.Set(p, l.SwingOff.Mask())
	}

	if mode.hasTemperature() {
		f, offset := l.Celsius, l.CelsiusOffset
		if unit == Fahrenheit {
			f, offset = l.Fahrenheit, l.FahrenheitOffset
		}
		stored := s.Temperature + offset
		if stored < 0 || uint64(stored) > f.Mask() {
			clamped := clamp(stored, 0, int(f.Mask()))
			warn(f.Name+" temperature", fmt.Sprintf("%d%s", s.Temperature, unit), fmt.Sprintf("%d%s", clamped-offset, unit))
			stored = clamped
		}
		p = f.Set(p, uint64(stored))
	}

	p = l.FanSpeed.Set(p, fanCode)
	p = l.Unit.Set(p, unitCode)
	p = l.Sleep.Set(p, uint64(b2i(s.Sleep)))
	p = l.Mode.Set(p, modeCode)
	p = l.Power.Set(p, uint64(b2i(s.Power)))
	p = l.Button.Set(p, buttonCode)
	p = l.Checksum.Set(p, uint64(m.Checksum(p)))

	return p, warnings
}

// Normalize returns the settings a round trip through Encode and Decode
// yields for valid input: fan speed forced to what the mode allows, and
// fan-only messages carrying the temperature an all-zero field decodes to.
func (m *MessageCodec) Normalize(s Settings) Settings {
	s.FanSpeed = legalFanSpeed(s.Mode, s.FanSpeed)
	if !s.Mode.hasTemperature() {
		if s.Unit == Fahrenheit {
			s.Temperature = -m.layout.FahrenheitOffset
		} else {
			s.Temperature = -m.layout.CelsiusOffset
		}
	}
	return s
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
