package main

import (
	"errors"
	"fmt"
)

var (
	ErrLengthMismatch    = errors.New("pulse count does not match message width")
	ErrInvalidPulsePair  = errors.New("invalid pulse pair")
	ErrChecksumMismatch  = errors.New("checksum mismatch")
	ErrUnknownFieldValue = errors.New("unknown field value")
	ErrWireFormat        = errors.New("malformed wire code")
)

type LengthMismatchError struct {
	Got  int // pulse entries received
	Want int // 2*width + 3
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("IR code doesn't contain exact bits for a full message: %d entries, want %d", e.Got, e.Want)
}

func (e *LengthMismatchError) Unwrap() error { return ErrLengthMismatch }

type InvalidPulsePairError struct {
	Index  int
	V1, V2 uint16
}

func (e *InvalidPulsePairError) Error() string {
	return fmt.Sprintf("bit %d failed to decode: %d, %d", e.Index, e.V1, e.V2)
}

func (e *InvalidPulsePairError) Unwrap() error { return ErrInvalidPulsePair }

type ChecksumMismatchError struct {
	Expected uint8 // recomputed from the payload
	Actual   uint8 // carried in the checksum field
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: %s vs %s", formatChecksum(e.Actual), formatChecksum(e.Expected))
}

func (e *ChecksumMismatchError) Unwrap() error { return ErrChecksumMismatch }

type UnknownFieldValueError struct {
	Field string
	Raw   uint64
	Width uint
}

func (e *UnknownFieldValueError) Error() string {
	return fmt.Sprintf("unknown %s value: %d (%0*b)", e.Field, e.Raw, int(e.Width), e.Raw)
}

func (e *UnknownFieldValueError) Unwrap() error { return ErrUnknownFieldValue }

// errorKind names the failure class for API responses.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrLengthMismatch):
		return "length_mismatch"
	case errors.Is(err, ErrInvalidPulsePair):
		return "invalid_pulse_pair"
	case errors.Is(err, ErrChecksumMismatch):
		return "checksum_mismatch"
	case errors.Is(err, ErrUnknownFieldValue):
		return "unknown_field_value"
	case errors.Is(err, ErrWireFormat):
		return "wire_format"
	}
	return "internal"
}

func formatChecksum(c uint8) string {
	return fmt.Sprintf("%04b_%04b", c>>4, c&0xF)
}
