package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	qt "github.com/frankban/quicktest"
)

func parseSettings(c *qt.C, args ...string) (Settings, error) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	settings := settingsFlags(fs)
	c.Assert(fs.Parse(args), qt.IsNil)
	return settings()
}

func TestSettingsFlags(t *testing.T) {
	c := qt.New(t)

	s, err := parseSettings(c)
	c.Assert(err, qt.IsNil)
	c.Assert(s, qt.Equals, DefaultSettings())

	s, err = parseSettings(c, "-off", "-temp", "75", "-fahrenheit", "-mode", "COOL", "-fan", "mid", "-swing", "-sleep", "-button", "timer")
	c.Assert(err, qt.IsNil)
	c.Assert(s, qt.Equals, Settings{Temperature: 75, Unit: Fahrenheit, Mode: ModeCool, FanSpeed: FanMid, Swing: true, Sleep: true, Button: ButtonTimer})

	s, err = parseSettings(c, "-temp", "30", "-json", `{"temp": 20, "unit": "F", "mode": "dry"}`)
	c.Assert(err, qt.IsNil)
	c.Assert(s, qt.Equals, Settings{Power: true, Temperature: 20, Unit: Fahrenheit, Mode: ModeDry, FanSpeed: FanAuto, Button: ButtonPlus})

	_, err = parseSettings(c, "-json", `{"fan": "turbo"}`)
	c.Assert(err, qt.ErrorMatches, `-json: unknown fan speed "turbo", want one of auto\|high\|mid\|low`)

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	settingsFlags(fs)
	c.Assert(fs.Parse([]string{"-mode", "heat"}), qt.ErrorMatches, `invalid value "heat" for flag -mode: unknown mode "heat", want one of auto\|cool\|dry\|fan`)
}

func TestEncodeCmd(t *testing.T) {
	c := qt.New(t)

	var out bytes.Buffer
	c.Assert(encodeCmd([]string{"-temp", "32"}, &out), qt.IsNil)

	code := strings.TrimSpace(out.String())
	dec, err := newTestRemote(c).DecodeCode(code)
	c.Assert(err, qt.IsNil)
	c.Assert(dec.Payload, qt.Equals, mustPayload(c, "2A00002000000000A000E0C7C3"))
}

func TestDecodeCmd(t *testing.T) {
	c := qt.New(t)
	c.Patch(&color.NoColor, true)
	r := newTestRemote(c)

	a := r.Encode(DefaultSettings())
	s := DefaultSettings()
	s.Temperature = 17
	b := r.Encode(s)

	path := filepath.Join(c.TempDir(), "codes.txt")
	c.Assert(os.WriteFile(path, []byte(a.Code+"\n"+b.Code+"\n"), 0o644), qt.IsNil)

	var out bytes.Buffer
	c.Assert(decodeCmd([]string{path}, &out), qt.IsNil)

	lines := strings.Split(out.String(), "\n")
	c.Assert(lines[1], qt.Equals, "  0: "+a.Bits)
	c.Assert(lines[2], qt.Equals, "  1: "+b.Bits)
	c.Assert(out.String(), qt.Contains, "  1: on:1  temp:17C")
}

func TestMqttFlagsCheck(t *testing.T) {
	c := qt.New(t)

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := mqttFlags(fs)
	c.Assert(fs.Parse([]string{"-broker", "tcp://localhost:1883"}), qt.IsNil)
	c.Assert(cfg.check(), qt.ErrorMatches, "required: -broker and -topic")

	c.Assert(fs.Parse([]string{"-topic", "zigbee2mqtt/ir/"}), qt.IsNil)
	c.Assert(cfg.check(), qt.IsNil)
	c.Assert(cfg.Topic, qt.Equals, "zigbee2mqtt/ir")
	c.Assert(cfg.ClientID, qt.Equals, "acremote_mqtt_client")
}
