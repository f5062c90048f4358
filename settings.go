package main

import "fmt"

// Settings is the human-meaningful content of one remote control message.
// The JSON names match the encoder's option names.
type Settings struct {
	Power       bool     `json:"on"`
	Temperature int      `json:"temp"`
	Unit        Unit     `json:"unit"`
	Mode        Mode     `json:"mode"`
	FanSpeed    FanSpeed `json:"fan"`
	Swing       bool     `json:"swing"`
	Sleep       bool     `json:"sleep"`
	Button      Button   `json:"button"`
}

// DefaultSettings is what the encoder sends when no option is given. PLUS
// is the default button because its code is all zeros.
func DefaultSettings() Settings {
	return Settings{
		Power:       true,
		Temperature: 16,
		Unit:        Celsius,
		Mode:        ModeAuto,
		FanSpeed:    FanAuto,
		Button:      ButtonPlus,
	}
}

// legalFanSpeed applies the fan speeds the remote allows per mode: auto
// mode is always fan auto, dry is always low, and fan-only mode has no
// auto speed so it is promoted to high.
func legalFanSpeed(mode Mode, fan FanSpeed) FanSpeed {
	switch mode {
	case ModeAuto:
		return FanAuto
	case ModeDry:
		return FanLow
	case ModeFan:
		if fan == FanAuto {
			return FanHigh
		}
	}
	return fan
}

// Summary is the one-line form used by the batch report.
func (s Settings) Summary() string {
	return fmt.Sprintf("on:%d  temp:%2d%s  mode:%4s  speed:%4s  swing:%d  sleep:%d  button:%5s",
		b2i(s.Power), s.Temperature, s.Unit, s.Mode, s.FanSpeed, b2i(s.Swing), b2i(s.Sleep), s.Button)
}

func (s Settings) String() string {
	return s.Summary()
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
