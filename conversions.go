package main

import (
	"fmt"
	"strings"
)

// enumEntry ties one enum value to its command line name and its protocol
// code. Each enum has exactly one table so encode and decode cannot drift.
type enumEntry[T comparable] struct {
	value T
	name  string
	code  uint64
}

type enumTable[T comparable] []enumEntry[T]

func (t enumTable[T]) code(v T) (uint64, bool) {
	for _, e := range t {
		if e.value == v {
			return e.code, true
		}
	}
	return 0, false
}

func (t enumTable[T]) fromCode(code uint64) (T, bool) {
	for _, e := range t {
		if e.code == code {
			return e.value, true
		}
	}
	var zero T
	return zero, false
}

func (t enumTable[T]) name(v T) (string, bool) {
	for _, e := range t {
		if e.value == v {
			return e.name, true
		}
	}
	return "", false
}

func (t enumTable[T]) parse(s string) (T, bool) {
	for _, e := range t {
		if strings.EqualFold(e.name, s) {
			return e.value, true
		}
	}
	var zero T
	return zero, false
}

func (t enumTable[T]) names() []string {
	n := make([]string, len(t))
	for i, e := range t {
		n[i] = e.name
	}
	return n
}

func (t enumTable[T]) unmarshal(kind string, text []byte, v *T) error {
	parsed, ok := t.parse(string(text))
	if !ok {
		return fmt.Errorf("unknown %s %q, want one of %s", kind, text, strings.Join(t.names(), "|"))
	}
	*v = parsed
	return nil
}

type Unit uint8

const (
	Celsius Unit = iota
	Fahrenheit
)

var units = enumTable[Unit]{
	{Celsius, "C", 0},
	{Fahrenheit, "F", 1},
}

func (u Unit) String() string {
	if n, ok := units.name(u); ok {
		return n
	}
	return fmt.Sprintf("Unit(%d)", uint8(u))
}

func (u Unit) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *Unit) UnmarshalText(text []byte) error { return units.unmarshal("unit", text, u) }

type Mode uint8

const (
	ModeAuto Mode = iota
	ModeCool
	ModeDry
	ModeFan
)

var modes = enumTable[Mode]{
	{ModeAuto, "auto", 0},
	{ModeCool, "cool", 1},
	{ModeDry, "dry", 2},
	{ModeFan, "fan", 6},
}

func (m Mode) String() string {
	if n, ok := modes.name(m); ok {
		return strings.ToUpper(n)
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// hasTemperature reports whether the mode carries a setpoint; fan-only
// messages leave both temperature fields zero.
func (m Mode) hasTemperature() bool {
	return m == ModeAuto || m == ModeCool || m == ModeDry
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(strings.ToLower(m.String())), nil }

func (m *Mode) UnmarshalText(text []byte) error { return modes.unmarshal("mode", text, m) }

type FanSpeed uint8

const (
	FanAuto FanSpeed = iota
	FanHigh
	FanMid
	FanLow
)

var fanSpeeds = enumTable[FanSpeed]{
	{FanAuto, "auto", 5},
	{FanHigh, "high", 1},
	{FanMid, "mid", 2},
	{FanLow, "low", 3},
}

func (f FanSpeed) String() string {
	if n, ok := fanSpeeds.name(f); ok {
		return strings.ToUpper(n)
	}
	return fmt.Sprintf("FanSpeed(%d)", uint8(f))
}

func (f FanSpeed) MarshalText() ([]byte, error) { return []byte(strings.ToLower(f.String())), nil }

func (f *FanSpeed) UnmarshalText(text []byte) error { return fanSpeeds.unmarshal("fan speed", text, f) }

// Button is the remote key whose press produced the message.
type Button uint8

const (
	ButtonPlus Button = iota
	ButtonMinus
	ButtonSwing
	ButtonSpeed
	ButtonOnOff
	ButtonMode
	ButtonUnit
	ButtonSleep
	ButtonTimer
)

var buttons = enumTable[Button]{
	{ButtonPlus, "plus", 0},
	{ButtonMinus, "minus", 1},
	{ButtonSwing, "swing", 2},
	{ButtonSpeed, "speed", 4},
	{ButtonOnOff, "onoff", 5},
	{ButtonMode, "mode", 6},
	{ButtonUnit, "unit", 7},
	{ButtonSleep, "sleep", 11},
	{ButtonTimer, "timer", 13},
}

func (b Button) String() string {
	if n, ok := buttons.name(b); ok {
		return strings.ToUpper(n)
	}
	return fmt.Sprintf("Button(%d)", uint8(b))
}

func (b Button) MarshalText() ([]byte, error) { return []byte(strings.ToLower(b.String())), nil }

func (b *Button) UnmarshalText(text []byte) error { return buttons.unmarshal("button", text, b) }
