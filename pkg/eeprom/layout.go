package eeprom

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Param is a planned wear-leveled parameter.
type Param struct {
	// Name identifies the parameter in diagnostics.
	Name string
	// Base is the offset of the first slot-group.
	Base int
	// Len is the number of logical bytes.
	Len int
	// End is the first address after the last slot-group.
	End int
}

// Layout allocates parameters back to back, starting at offset 0.
//
//	l := eeprom.NewLayout(8)
//	volume := l.Byte("volume")
//	settings := l.Block("settings", 3)
//	if err := l.Fits(mem.Size()); err != nil { ... }
type Layout struct {
	factor int
	next   int
	params []Param
}

// NewLayout returns an empty layout for the given wear-level factor.
// A zero factor selects [DefaultWearLevelFactor].
func NewLayout(factor int) *Layout {
	if factor == 0 {
		factor = DefaultWearLevelFactor
	}

	return &Layout{factor: factor}
}

// Byte reserves one logical byte.
func (l *Layout) Byte(name string) Param {
	return l.Block(name, 1)
}

// Block reserves n logical bytes. n must not be negative.
func (l *Layout) Block(name string, n int) Param {
	if n < 0 {
		panic(fmt.Sprintf("eeprom: negative block length %d for %q", n, name))
	}

	end := math.MaxInt
	if fp := Footprint(l.factor, n); fp <= math.MaxInt-l.next {
		end = l.next + fp
	}

	p := Param{
		Name: name,
		Base: l.next,
		Len:  n,
		End:  end,
	}

	l.next = p.End
	l.params = append(l.params, p)

	return p
}

// Reserve reserves space for one value of the fixed-size type T.
func Reserve[T any](l *Layout, name string) Param {
	var zero T

	size := binary.Size(zero)
	if size < 0 {
		panic(fmt.Sprintf("eeprom: %T has no fixed size", zero))
	}

	return l.Block(name, size)
}

// Params returns the reserved parameters in allocation order.
func (l *Layout) Params() []Param {
	out := make([]Param, len(l.params))
	copy(out, l.params)

	return out
}

// End returns the first address after the last reserved parameter.
func (l *Layout) End() int { return l.next }

// Fits reports whether every reserved parameter lies inside a medium of
// the given size.
func (l *Layout) Fits(size int) error {
	if l.next > size {
		return fmt.Errorf("layout ends at %d but medium holds %d bytes, consider a lower wear-level factor than %d: %w",
			l.next, size, l.factor, ErrLayoutOverflow)
	}

	return nil
}
