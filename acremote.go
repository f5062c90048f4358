package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "encode":
		err = encodeCmd(os.Args[2:], os.Stdout)
	case "decode":
		err = decodeCmd(os.Args[2:], os.Stdout)
	case "learn":
		err = learnCmd(os.Args[2:], os.Stdout)
	case "send":
		err = sendCmd(os.Args[2:])
	case "serve":
		err = serveCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `acremote <command> [options]

Commands:
  encode  [settings flags] [-json '{"temp": 22, ...}'] [-v]
  decode  [-serial <device> [-baud 115200]] [-count N] [file|-]
  learn   -broker <url> -topic <topic> [-username u -password p] [-count N]
  send    -broker <url> -topic <topic> [settings flags]
  serve   [-config acremote.yaml] [-httpport 8080] [-debug]

Settings flags:
  -on | -off, -temp 16, -celsius | -fahrenheit, -mode %s,
  -fan %s, -swing, -sleep, -button %s
`, strings.Join(modes.names(), "|"), strings.Join(fanSpeeds.names(), "|"), strings.Join(buttons.names(), "|"))
}

// settingsFlags registers the settings options on fs. The returned function
// builds the Settings after fs.Parse.
func settingsFlags(fs *flag.FlagSet) func() (Settings, error) {
	s := DefaultSettings()
	on := fs.Bool("on", true, "power on")
	off := fs.Bool("off", false, "power off")
	fs.IntVar(&s.Temperature, "temp", s.Temperature, "target temperature")
	fs.Bool("celsius", true, "temperature in Celsius")
	fahrenheit := fs.Bool("fahrenheit", false, "temperature in Fahrenheit")
	fs.TextVar(&s.Mode, "mode", s.Mode, "mode: "+strings.Join(modes.names(), "|"))
	fs.TextVar(&s.FanSpeed, "fan", s.FanSpeed, "fan speed: "+strings.Join(fanSpeeds.names(), "|"))
	fs.BoolVar(&s.Swing, "swing", false, "swing on")
	fs.BoolVar(&s.Sleep, "sleep", false, "sleep on")
	fs.TextVar(&s.Button, "button", s.Button, "button pressed: "+strings.Join(buttons.names(), "|"))
	js := fs.String("json", "", "settings as JSON, overrides the other settings flags")

	return func() (Settings, error) {
		s.Power = *on && !*off
		if *fahrenheit {
			s.Unit = Fahrenheit
		}
		if *js == "" {
			return s, nil
		}
		params := DefaultSettings()
		if err := json.Unmarshal([]byte(*js), &params); err != nil {
			return s, fmt.Errorf("-json: %w", err)
		}
		return params, nil
	}
}

func mqttFlags(fs *flag.FlagSet) *mqttConfig {
	cfg := &mqttConfig{}
	fs.StringVar(&cfg.Broker, "broker", "", "MQTT broker URL, e.g. tcp://host:1883")
	fs.StringVar(&cfg.Topic, "topic", "", "IR blaster device topic, e.g. zigbee2mqtt/ir_blaster")
	fs.StringVar(&cfg.Username, "username", "", "MQTT username")
	fs.StringVar(&cfg.Password, "password", "", "MQTT password")
	fs.StringVar(&cfg.ClientID, "client-id", "acremote_mqtt_client", "MQTT client id")
	return cfg
}

func (cfg *mqttConfig) check() error {
	if cfg.Broker == "" || cfg.Topic == "" {
		return errors.New("required: -broker and -topic")
	}
	cfg.Topic = strings.TrimSuffix(cfg.Topic, "/")
	return nil
}

func encodeCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	settings := settingsFlags(fs)
	verbose := fs.Bool("v", false, "print the payload and pulses to stderr")
	fs.Parse(args)

	s, err := settings()
	if err != nil {
		return err
	}
	remote, err := NewRemote(DefaultProtocol())
	if err != nil {
		return err
	}

	enc := remote.Encode(s)
	if *verbose {
		fmt.Fprintf(os.Stderr, "%+v\n", s)
		fmt.Fprintf(os.Stderr, "   %s\n   %s\n", rulerFor(remote.Width()), enc.Bits)
		fmt.Fprintln(os.Stderr, enc.Pulses)
	}
	fmt.Fprintln(out, enc.Code)
	return nil
}

func decodeCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	device := fs.String("serial", "", "read codes from a serial IR receiver")
	baud := fs.Int("baud", 115200, "serial baud rate")
	count := fs.Int("count", 0, "stop after this many codes (0 = until EOF)")
	debug := fs.Bool("debug", false, "enable debug log level")
	fs.Parse(args)

	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	var in io.Reader = os.Stdin
	switch {
	case *device != "":
		port, err := openCapture(*device, *baud)
		if err != nil {
			return fmt.Errorf("open %s: %w", *device, err)
		}
		defer port.Close()
		in = port
	case fs.NArg() > 0 && fs.Arg(0) != "-":
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	lines, err := readCodes(in, *count)
	if err != nil {
		return err
	}
	remote, err := NewRemote(DefaultProtocol())
	if err != nil {
		return err
	}
	remote.Analyzer().AnalyzeWire(lines).Render(out)
	return nil
}

func learnCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("learn", flag.ExitOnError)
	cfg := mqttFlags(fs)
	count := fs.Int("count", 0, "stop after this many codes (0 = forever)")
	fs.Parse(args)
	if err := cfg.check(); err != nil {
		return err
	}

	remote, err := NewRemote(DefaultProtocol())
	if err != nil {
		return err
	}
	client, err := ConnectMqtt(*cfg)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	learner := NewLearner(client, cfg.Topic)
	if err := learner.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return learnLoop(ctx, remote, learner, *count, out)
}

// learnLoop requests codes until ctx is done or count codes were learned,
// printing each code and logging what it decodes to.
func learnLoop(ctx context.Context, remote *Remote, learner *Learner, count int, out io.Writer) error {
	for i := 0; count == 0 || i < count; i++ {
		log.Infof("[%d] Requesting a code...", i)
		code, err := learner.Learn(ctx)
		if errors.Is(err, ErrLearnTimeout) {
			log.Warn(err)
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		fmt.Fprintln(out, code)
		rec := newCodeRecord(remote, code)
		if rec.Error != "" {
			log.Warnf("[%d] learned code %s does not decode: %s", i, rec.ID, rec.Error)
		} else {
			log.Infof("[%d] learned code %s: %s", i, rec.ID, rec.Settings)
		}
		wsCache.update("learned", rec)
	}
	return nil
}

func sendCmd(args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	cfg := mqttFlags(fs)
	settings := settingsFlags(fs)
	fs.Parse(args)
	if err := cfg.check(); err != nil {
		return err
	}

	s, err := settings()
	if err != nil {
		return err
	}
	remote, err := NewRemote(DefaultProtocol())
	if err != nil {
		return err
	}
	client, err := ConnectMqtt(*cfg)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	enc := remote.Encode(s)
	log.Infof("sending %s", enc.Settings)
	return NewLearner(client, cfg.Topic).Send(enc.Code)
}

func serveCmd(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML configuration file")
	httpPort := fs.Int("httpport", 0, "HTTP port to listen on (overrides config)")
	doDebugLog := fs.Bool("debug", false, "enable debug log level")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *httpPort != 0 {
		cfg.HTTPPort = *httpPort
	}
	if *doDebugLog {
		cfg.LogLevel = "debug"
	}
	if err := setupLogging(cfg.LogLevel, cfg.Logs); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	remote, err := NewRemote(cfg.protocol())
	if err != nil {
		return err
	}

	var learner *Learner
	if cfg.MQTT.Broker != "" && cfg.MQTT.Topic != "" {
		client, err := ConnectMqtt(cfg.MQTT)
		if err != nil {
			return err
		}
		defer client.Disconnect(250)
		learner = NewLearner(client, cfg.MQTT.Topic)
		if err := learner.Start(); err != nil {
			return err
		}
		go statsPoller(learner)
	} else {
		log.Info("no MQTT broker configured, learn and send are disabled")
	}

	if cfg.Serial.Device != "" {
		go capturePoller(remote, cfg.Serial)
	}

	return webserver(cfg.HTTPPort, remote, learner)
}

func statsPoller(learner *Learner) {
	for {
		time.Sleep(time.Minute)
		log.Info("#STATS# ", learner.statsString())
	}
}

// capturePoller decodes codes arriving from a serial receiver and caches
// them as learned codes, reopening the port after errors.
func capturePoller(remote *Remote, cfg serialConfig) {
	for {
		port, err := openCapture(cfg.Device, cfg.Baud)
		if err != nil {
			log.Errorf("error opening serial port: %s", err)
			time.Sleep(5 * time.Second)
			continue
		}
		sc := newCodeScanner(port)
		for sc.Scan() {
			code := strings.TrimSpace(sc.Text())
			if code == "" {
				continue
			}
			rec := newCodeRecord(remote, code)
			if rec.Error != "" {
				log.Warnf("captured code %s does not decode: %s", rec.ID, rec.Error)
			} else {
				log.Infof("captured code %s: %s", rec.ID, rec.Settings)
			}
			wsCache.update("learned", rec)
		}
		log.Errorf("error reading from serial port: %v", sc.Err())
		port.Close()
		time.Sleep(time.Second)
	}
}
