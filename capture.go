package main

import (
	"bufio"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tarm/serial"
)

// openCapture opens a serial IR receiver that prints one wire code per
// line. Reads block until a line arrives.
func openCapture(device string, baud int) (*serial.Port, error) {
	log.Printf("opening serial interface: %s", device)
	c := &serial.Config{Name: device, Baud: baud}
	return serial.OpenPort(c)
}

// readCodes collects lines from r until EOF, or until count non-blank lines
// have been read when count > 0. Blank lines are kept so report indexes
// match input line numbers.
func readCodes(r io.Reader, count int) ([]string, error) {
	var lines []string
	codes := 0
	sc := newCodeScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		lines = append(lines, line)
		if line == "" {
			continue
		}
		codes++
		log.Debugf("read code %d: %s", codes, line)
		if count > 0 && codes >= count {
			break
		}
	}
	return lines, sc.Err()
}

// wire codes of long captures exceed bufio's default line limit
func newCodeScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return sc
}
