// Package medium provides [eeprom.Medium] implementations.
//
// The main types are:
//   - [Mem]: simulated EEPROM in memory, with per-cell wear counters
//   - [File]: memory-mapped image file, durable per write
//   - [Failpoint]: testing wrapper that simulates power loss mid-write
//
// Fresh media read as [Erased] in every cell, like a factory-erased EEPROM.
package medium

import (
	"errors"

	"github.com/calvinalkan/wearlevel/pkg/eeprom"
)

// Erased is the content of a cell that was never written.
const Erased byte = 0xFF

// Sentinel errors returned by media.
var (
	// ErrOutOfRange indicates an address outside [0, Size()).
	ErrOutOfRange = errors.New("medium: address out of range")

	// ErrClosed indicates the medium has been closed.
	ErrClosed = errors.New("medium: closed")

	// ErrBusy indicates another process holds the image file.
	//
	// Recovery: retry after the other process exits.
	ErrBusy = errors.New("medium: busy")

	// ErrSizeMismatch indicates an existing image has a different size
	// than requested.
	ErrSizeMismatch = errors.New("medium: size mismatch")

	// ErrInvalidInput indicates invalid arguments were provided.
	ErrInvalidInput = errors.New("medium: invalid input")
)

// Compile-time interface checks.
var (
	_ eeprom.Medium = (*Mem)(nil)
	_ eeprom.Medium = (*File)(nil)
	_ eeprom.Medium = (*Failpoint)(nil)
)
