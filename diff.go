package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
)

var (
	markerColor  = color.New(color.FgYellow, color.Bold)
	failureColor = color.New(color.FgRed)
)

type BatchEntry struct {
	Index    int      `json:"index"`
	Payload  Payload  `json:"payload"`
	Settings Settings `json:"settings"`
	Checksum uint8    `json:"checksum"`
}

type BatchFailure struct {
	Index int   `json:"index"`
	Err   error `json:"-"`
}

// BatchReport is the result of decoding a batch of captures. Changed has a
// bit set wherever two consecutive decoded payloads differed.
type BatchReport struct {
	Width    uint           `json:"width"`
	Entries  []BatchEntry   `json:"entries"`
	Failures []BatchFailure `json:"failures"`
	Changed  Payload        `json:"changed"`
}

// Analyzer decodes batches of captures to help map unknown bits.
type Analyzer struct {
	messages *MessageCodec
	pulses   *PulseCodec
}

func NewAnalyzer(messages *MessageCodec, pulses *PulseCodec) *Analyzer {
	return &Analyzer{messages: messages, pulses: pulses}
}

// Analyze decodes every train in order. Failed trains are recorded and
// left out of the difference mask.
func (a *Analyzer) Analyze(trains [][]uint16) *BatchReport {
	r := a.newReport()
	for i, pulses := range trains {
		a.add(r, i, pulses)
	}
	return r
}

// AnalyzeWire is Analyze for wire codes, one per line. Blank lines are
// skipped but still count towards the index.
func (a *Analyzer) AnalyzeWire(lines []string) *BatchReport {
	r := a.newReport()
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		pulses, err := decodeWire(line)
		if err != nil {
			r.fail(i, err)
			continue
		}
		a.add(r, i, pulses)
	}
	return r
}

func (a *Analyzer) newReport() *BatchReport {
	return &BatchReport{Width: a.messages.Layout().Width}
}

func (a *Analyzer) add(r *BatchReport, index int, pulses []uint16) {
	payload, err := a.pulses.Decode(pulses)
	if err != nil {
		r.fail(index, err)
		return
	}
	settings, err := a.messages.Decode(payload)
	if err != nil {
		r.fail(index, err)
		return
	}

	if n := len(r.Entries); n > 0 {
		r.Changed = r.Changed.Or(payload.Xor(r.Entries[n-1].Payload))
	}
	r.Entries = append(r.Entries, BatchEntry{
		Index:    index,
		Payload:  payload,
		Settings: settings,
		Checksum: uint8(a.messages.Layout().Checksum.Get(payload)),
	})
}

func (r *BatchReport) fail(index int, err error) {
	log.Debugf("message %d: %v", index, err)
	r.Failures = append(r.Failures, BatchFailure{Index: index, Err: err})
}

// Marker is the changed mask drawn under the payload lines.
func (r *BatchReport) Marker() string {
	return r.Changed.Marker(r.Width)
}

// Render writes the payloads in binary between two rulers with the
// changed bits marked, then one settings line per decoded message.
// Failures appear in input order among the payload lines.
func (r *BatchReport) Render(w io.Writer) {
	const indent = "     "
	ruler := rulerFor(r.Width)

	fmt.Fprintln(w, indent+ruler)
	fi := 0
	for _, e := range r.Entries {
		for ; fi < len(r.Failures) && r.Failures[fi].Index < e.Index; fi++ {
			r.renderFailure(w, r.Failures[fi])
		}
		fmt.Fprintf(w, "%3d: %s\n", e.Index, e.Payload.Format(r.Width))
	}
	for ; fi < len(r.Failures); fi++ {
		r.renderFailure(w, r.Failures[fi])
	}
	fmt.Fprintln(w, indent+markerColor.Sprint(r.Marker()))
	fmt.Fprintln(w, indent+ruler)
	fmt.Fprintln(w)

	for _, e := range r.Entries {
		fmt.Fprintf(w, "%3d: %s  csum:%s\n", e.Index, e.Settings.Summary(), formatChecksum(e.Checksum))
	}
}

func (r *BatchReport) renderFailure(w io.Writer, f BatchFailure) {
	failureColor.Fprintf(w, "%3d: %v\n", f.Index, f.Err)
}
