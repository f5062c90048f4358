package main

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type mqttConfig struct {
	Broker   string `yaml:"broker"` // "tcp://host.com:1883"
	Topic    string `yaml:"topic"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	ClientID string `yaml:"clientID"`
}

type serialConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

type logConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	MaxBackups int    `yaml:"maxBackups"`
	Compress   bool   `yaml:"compress"`
}

// timingConfig overrides individual pulse durations of the default
// protocol; zero keeps the default.
type timingConfig struct {
	Intro1 uint16 `yaml:"intro1"`
	Intro2 uint16 `yaml:"intro2"`
	Short  uint16 `yaml:"short"`
	Long   uint16 `yaml:"long"`
	Cutoff uint16 `yaml:"cutoff"`
}

type config struct {
	HTTPPort int          `yaml:"httpPort"`
	LogLevel string       `yaml:"logLevel"`
	MQTT     mqttConfig   `yaml:"mqtt"`
	Serial   serialConfig `yaml:"serial"`
	Timing   timingConfig `yaml:"timing"`
	Logs     logConfig    `yaml:"logs"`
}

// loadConfig reads a YAML config file. An empty path yields the defaults.
func loadConfig(path string) (config, error) {
	var cfg config
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		dec := yaml.NewDecoder(f)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, err
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (cfg *config) applyDefaults() {
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = 8080
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.MQTT.Topic = strings.TrimSuffix(cfg.MQTT.Topic, "/")
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "acremote_mqtt_client"
	}
	if cfg.Serial.Baud <= 0 {
		cfg.Serial.Baud = 115200
	}
	if cfg.Logs.MaxSizeMB <= 0 {
		cfg.Logs.MaxSizeMB = 25
	}
	if cfg.Logs.MaxAgeDays <= 0 {
		cfg.Logs.MaxAgeDays = 7
	}
	if cfg.Logs.MaxBackups <= 0 {
		cfg.Logs.MaxBackups = 5
	}
}

// protocol builds the protocol once at startup from the defaults and the
// configured timing overrides.
func (cfg config) protocol() Protocol {
	p := DefaultProtocol()
	t := &p.Timing
	override := func(dst *uint16, v uint16) {
		if v != 0 {
			*dst = v
		}
	}
	override(&t.Intro1, cfg.Timing.Intro1)
	override(&t.Intro2, cfg.Timing.Intro2)
	override(&t.Short, cfg.Timing.Short)
	override(&t.Long, cfg.Timing.Long)
	override(&t.Cutoff, cfg.Timing.Cutoff)
	return p
}
