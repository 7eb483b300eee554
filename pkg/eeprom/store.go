package eeprom

import (
	"fmt"
	"log/slog"
)

// Store is the wear-leveling engine bound to one [Medium].
//
// A Store holds no state besides its configuration; everything needed to
// resume after a restart lives in the medium.
type Store struct {
	medium Medium
	factor int
	ops    Ops
	log    *slog.Logger
}

// New returns a Store that keeps its slot-groups on m.
//
// Possible errors:
//   - [ErrInvalidInput]: nil medium, wear-level factor out of range, unknown ops
func New(m Medium, opts Options) (*Store, error) {
	if m == nil {
		return nil, fmt.Errorf("medium is nil: %w", ErrInvalidInput)
	}

	opts = opts.withDefaults()

	err := opts.validate()
	if err != nil {
		return nil, err
	}

	return &Store{
		medium: m,
		factor: opts.WearLevelFactor,
		ops:    opts.Ops,
		log:    opts.Logger,
	}, nil
}

// WearLevelFactor returns N, the number of slots per logical byte.
func (s *Store) WearLevelFactor() int { return s.factor }

// GroupSize returns the number of medium bytes backing one logical byte.
func (s *Store) GroupSize() int { return 2 * s.factor }

// Ops returns the enabled operation families.
func (s *Store) Ops() Ops { return s.ops }

// Medium returns the underlying medium.
func (s *Store) Medium() Medium { return s.medium }

// InitByte writes the wear-leveling metadata for the group at base and stores
// value in its first slot. It returns value.
//
// InitByte must be called exactly once per group before GetByte or SetByte.
// Calling it again resets the ring and spends a write on every counter.
func (s *Store) InitByte(base int, value byte) (byte, error) {
	err := s.check(OpsByte, base, 1)
	if err != nil {
		return 0, err
	}

	err = s.initByte(base, value)
	if err != nil {
		return 0, err
	}

	return value, nil
}

// GetByte returns the value held by the group at base. It never writes.
//
// The result is undefined if the group was never initialized.
func (s *Store) GetByte(base int) (byte, error) {
	err := s.check(OpsByte, base, 1)
	if err != nil {
		return 0, err
	}

	return s.getByte(base)
}

// SetByte stores value in the group at base.
//
// If the group already holds value nothing is written. Otherwise the value
// moves to the next slot of the ring, costing one data write and one counter
// write.
func (s *Store) SetByte(base int, value byte) error {
	err := s.check(OpsByte, base, 1)
	if err != nil {
		return err
	}

	_, err = s.setByte(base, value)

	return err
}

// Slot describes the resolved state of one slot-group.
type Slot struct {
	// Base is the group offset in the medium.
	Base int
	// Active is the index of the slot holding the current value.
	Active int
	// Value is the current value.
	Value byte
	// Data holds the N data cells.
	Data []byte
	// Gens holds the N generation counters.
	Gens []byte
}

// Inspect reads the whole group at base and resolves its active slot.
//
// Inspect is a diagnostic and is available regardless of [Options.Ops].
func (s *Store) Inspect(base int) (Slot, error) {
	err := s.CheckRange(base, 1)
	if err != nil {
		return Slot{}, err
	}

	raw := make([]byte, s.GroupSize())
	for i := range raw {
		raw[i], err = s.read(base + i)
		if err != nil {
			return Slot{}, err
		}
	}

	data := raw[:s.factor]
	gens := raw[s.factor:]
	active := ActiveIndex(gens)

	return Slot{
		Base:   base,
		Active: active,
		Value:  data[active],
		Data:   data,
		Gens:   gens,
	}, nil
}

func (s *Store) initByte(base int, value byte) error {
	genBase := base + s.factor

	// gen[0] = N-1 and gen[i] = i-1 leave a seam between index 0 and 1.
	err := s.write(genBase, byte(s.factor-1))
	if err != nil {
		return err
	}

	for i := 1; i < s.factor; i++ {
		err = s.write(genBase+i, byte(i-1))
		if err != nil {
			return err
		}
	}

	err = s.write(base, value)
	if err != nil {
		return err
	}

	s.log.Debug("init group", "base", base, "value", value)

	return nil
}

func (s *Store) getByte(base int) (byte, error) {
	idx, _, err := s.activeIndex(base)
	if err != nil {
		return 0, err
	}

	return s.read(base + idx)
}

// setByte reports whether a physical write happened.
func (s *Store) setByte(base int, value byte) (bool, error) {
	idx, gen, err := s.activeIndex(base)
	if err != nil {
		return false, err
	}

	current, err := s.read(base + idx)
	if err != nil {
		return false, err
	}

	if current == value {
		return false, nil
	}

	next := idx + 1
	if next == s.factor {
		next = 0
	}

	// Data first: until the counter lands, the seam still points at idx.
	err = s.write(base+next, value)
	if err != nil {
		return false, err
	}

	err = s.write(base+s.factor+next, gen+1)
	if err != nil {
		return false, err
	}

	s.log.Debug("advance slot", "base", base, "from", idx, "to", next, "gen", gen+1, "value", value)

	return true, nil
}

func (s *Store) check(family Ops, base, n int) error {
	if s.ops&family == 0 {
		return fmt.Errorf("%s operations: %w", family, ErrDisabled)
	}

	return s.CheckRange(base, n)
}

// CheckRange verifies that n consecutive groups starting at base fit the
// medium. Callers that size a buffer from untrusted input can use it before
// allocating.
//
// Possible errors:
//   - [ErrInvalidInput]: negative base or n
//   - [ErrOutOfRange]: the groups extend past the end of the medium
func (s *Store) CheckRange(base, n int) error {
	if base < 0 {
		return fmt.Errorf("base %d is negative: %w", base, ErrInvalidInput)
	}

	if n < 0 {
		return fmt.Errorf("group count %d is negative: %w", n, ErrInvalidInput)
	}

	// Compared by division so neither base nor n can overflow the sum.
	size := s.medium.Size()
	if base > size || n > (size-base)/s.GroupSize() {
		return fmt.Errorf("%d groups at base %d exceed medium size %d: %w", n, base, size, ErrOutOfRange)
	}

	return nil
}

func (s *Store) read(addr int) (byte, error) {
	b, err := s.medium.ReadCell(addr)
	if err != nil {
		return 0, fmt.Errorf("read cell %d: %w", addr, err)
	}

	return b, nil
}

func (s *Store) write(addr int, b byte) error {
	err := s.medium.WriteCell(addr, b)
	if err != nil {
		return fmt.Errorf("write cell %d: %w", addr, err)
	}

	return nil
}
