package eeprom

import "errors"

// Sentinel errors returned by eeprom operations.
//
// Callers should use [errors.Is] to check error types. Errors returned by the
// [Medium] are wrapped and remain matchable as well.
var (
	// ErrInvalidInput indicates invalid options or arguments.
	//
	// Common causes: wear-level factor out of range, negative base,
	// nil medium or buffer.
	//
	// This is a programming error.
	ErrInvalidInput = errors.New("eeprom: invalid input")

	// ErrDisabled indicates the operation family was not enabled in
	// [Options.Ops].
	ErrDisabled = errors.New("eeprom: operation disabled")

	// ErrOutOfRange indicates a slot-group extends past the end of the medium.
	ErrOutOfRange = errors.New("eeprom: out of range")

	// ErrLayoutOverflow indicates planned parameters do not fit the medium.
	//
	// Recovery: lower the wear-level factor or use a larger medium.
	ErrLayoutOverflow = errors.New("eeprom: available memory exceeded")
)
