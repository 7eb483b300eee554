package medium

import (
	"errors"
	"fmt"

	"github.com/calvinalkan/wearlevel/pkg/eeprom"
)

// PowerLossError is the panic value used for power-loss injection.
//
// It implements [error] and can be identified with errors.As.
type PowerLossError struct {
	// Seq is the 1-indexed write on which power was lost.
	Seq uint64
	// Addr is the address of the write that was lost.
	Addr int
	// Value is the byte that was not written.
	Value byte
}

// Error implements [error].
func (p *PowerLossError) Error() string {
	return fmt.Sprintf("medium: power lost on write seq=%d addr=%d value=%#02x", p.Seq, p.Addr, p.Value)
}

// FailpointConfig configures a [Failpoint].
//
// The zero value never injects.
type FailpointConfig struct {
	// After loses power on the Nth write (1-indexed). The Nth write is not
	// applied; all earlier writes are.
	After uint64
}

// Failpoint wraps a medium and simulates power loss in the middle of a
// sequence of writes.
//
// When the failpoint triggers, WriteCell panics with a [*PowerLossError] and
// the Failpoint latches: every further ReadCell or WriteCell panics with the
// same value until [Failpoint.Recover] is called, modelling a device that is
// off until it reboots.
//
// Failpoint is intended for tests.
type Failpoint struct {
	inner   eeprom.Medium
	after   uint64
	count   uint64
	latched *PowerLossError
}

// NewFailpoint wraps inner.
func NewFailpoint(inner eeprom.Medium, cfg FailpointConfig) *Failpoint {
	return &Failpoint{inner: inner, after: cfg.After}
}

// Size returns the size of the wrapped medium.
func (f *Failpoint) Size() int { return f.inner.Size() }

// ReadCell reads from the wrapped medium.
func (f *Failpoint) ReadCell(addr int) (byte, error) {
	if f.latched != nil {
		panic(f.latched)
	}

	return f.inner.ReadCell(addr)
}

// WriteCell writes to the wrapped medium unless the failpoint triggers.
func (f *Failpoint) WriteCell(addr int, b byte) error {
	if f.latched != nil {
		panic(f.latched)
	}

	f.count++

	if f.after != 0 && f.count == f.after {
		f.latched = &PowerLossError{Seq: f.count, Addr: addr, Value: b}
		panic(f.latched)
	}

	return f.inner.WriteCell(addr, b)
}

// Writes returns the number of writes attempted since the last Arm.
func (f *Failpoint) Writes() uint64 { return f.count }

// Arm resets the write counter and loses power on the nth following write.
// Zero disarms.
func (f *Failpoint) Arm(n uint64) {
	f.after = n
	f.count = 0
}

// Recover clears a latched power loss and disarms the failpoint.
func (f *Failpoint) Recover() {
	f.latched = nil
	f.after = 0
}

// CatchPowerLoss runs fn and converts a power-loss panic into a return value.
//
// It returns (nil, err) when fn completes, and (p, nil) when fn was stopped by
// an injected power loss. Other panics propagate.
func CatchPowerLoss(fn func() error) (p *PowerLossError, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		rerr, ok := r.(error)
		if !ok || !errors.As(rerr, &p) {
			panic(r)
		}

		err = nil
	}()

	return nil, fn()
}
