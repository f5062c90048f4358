package main

import "fmt"

// Remote bundles the codecs of one protocol and runs the full
// settings <-> payload <-> pulses <-> wire chain.
type Remote struct {
	protocol Protocol
	messages *MessageCodec
	pulses   *PulseCodec
}

func NewRemote(p Protocol) (*Remote, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid protocol: %w", err)
	}
	return &Remote{
		protocol: p,
		messages: NewMessageCodec(p.Layout),
		pulses:   NewPulseCodec(p.Timing, p.Layout.Width),
	}, nil
}

// Encoded is every representation of one encoded message.
type Encoded struct {
	Settings Settings        `json:"settings"`
	Payload  Payload         `json:"payload"`
	Bits     string          `json:"bits"`
	Pulses   []uint16        `json:"pulses"`
	Code     string          `json:"code"`
	Warnings []EncodeWarning `json:"warnings,omitempty"`
}

func (r *Remote) Encode(s Settings) Encoded {
	payload, warnings := r.messages.Encode(s)
	pulses := r.pulses.Encode(payload)
	return Encoded{
		Settings: s,
		Payload:  payload,
		Bits:     payload.Format(r.protocol.Layout.Width),
		Pulses:   pulses,
		Code:     encodeWire(pulses),
		Warnings: warnings,
	}
}

// Decoded is the result of decoding one captured message.
type Decoded struct {
	Payload  Payload  `json:"payload"`
	Bits     string   `json:"bits"`
	Settings Settings `json:"settings"`
}

func (r *Remote) DecodePulses(pulses []uint16) (Decoded, error) {
	payload, err := r.pulses.Decode(pulses)
	if err != nil {
		return Decoded{}, err
	}
	settings, err := r.messages.Decode(payload)
	if err != nil {
		return Decoded{}, err
	}
	return Decoded{
		Payload:  payload,
		Bits:     payload.Format(r.protocol.Layout.Width),
		Settings: settings,
	}, nil
}

func (r *Remote) DecodeCode(code string) (Decoded, error) {
	pulses, err := decodeWire(code)
	if err != nil {
		return Decoded{}, err
	}
	return r.DecodePulses(pulses)
}

func (r *Remote) Analyzer() *Analyzer {
	return NewAnalyzer(r.messages, r.pulses)
}

func (r *Remote) Width() uint {
	return r.protocol.Layout.Width
}
