package eeprom

import (
	"fmt"
	"log/slog"
	"math"
)

// Wear-level factor bounds.
//
// Counters are single bytes. With 256 slots the initial counters
// 255, 0, 1, ..., 254 form one unbroken run and the seam disappears, so the
// usable maximum is 255.
const (
	MinWearLevelFactor = 1
	MaxWearLevelFactor = 255

	// DefaultWearLevelFactor multiplies cell endurance by eight.
	DefaultWearLevelFactor = 8
)

// Ops selects which operation families a [Store] exposes.
type Ops uint8

const (
	// OpsByte enables InitByte, GetByte and SetByte.
	OpsByte Ops = 1 << iota
	// OpsBlock enables InitBlock, GetBlock and SetBlock.
	OpsBlock

	// OpsAll enables every operation family. The zero value of [Ops] means OpsAll.
	OpsAll = OpsByte | OpsBlock
)

func (o Ops) String() string {
	switch o {
	case OpsByte:
		return "byte"
	case OpsBlock:
		return "block"
	case OpsAll:
		return "byte+block"
	default:
		return fmt.Sprintf("Ops(%d)", uint8(o))
	}
}

// Options configures a [Store].
type Options struct {
	// WearLevelFactor is the number of physical slots per logical byte.
	//
	// Each logical byte occupies 2*WearLevelFactor bytes of the medium.
	// Must be in [MinWearLevelFactor, MaxWearLevelFactor]. Zero selects
	// [DefaultWearLevelFactor].
	WearLevelFactor int

	// Ops restricts the exposed operation families. Zero enables all.
	Ops Ops

	// Logger receives debug records for physical writes. Nil discards.
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.WearLevelFactor == 0 {
		o.WearLevelFactor = DefaultWearLevelFactor
	}

	if o.Ops == 0 {
		o.Ops = OpsAll
	}

	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}

	return o
}

func (o Options) validate() error {
	if o.WearLevelFactor < MinWearLevelFactor || o.WearLevelFactor > MaxWearLevelFactor {
		return fmt.Errorf("wear_level_factor must be in [%d, %d], got %d: %w",
			MinWearLevelFactor, MaxWearLevelFactor, o.WearLevelFactor, ErrInvalidInput)
	}

	if o.Ops&^OpsAll != 0 {
		return fmt.Errorf("unknown ops bits %#x: %w", uint8(o.Ops&^OpsAll), ErrInvalidInput)
	}

	return nil
}

// Footprint returns the number of medium bytes used by n logical bytes at the
// given wear-level factor. Results that do not fit an int saturate at
// [math.MaxInt], so they never compare as fitting a medium.
func Footprint(factor, n int) int {
	if factor <= 0 || n <= 0 {
		return 0
	}

	if n > math.MaxInt/(2*factor) {
		return math.MaxInt
	}

	return n * 2 * factor
}
