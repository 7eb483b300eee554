package eeprom

import "fmt"

// A block is a run of independently wear-leveled bytes. Byte i of a block at
// base lives in the group at base + i*GroupSize(). There is no block-level
// metadata and no atomicity across bytes: an interrupted SetBlock can leave
// some bytes updated and others not.

// InitBlock initializes len(data) consecutive groups starting at base and
// stores data in them.
func (s *Store) InitBlock(base int, data []byte) error {
	err := s.check(OpsBlock, base, len(data))
	if err != nil {
		return err
	}

	for i, b := range data {
		err = s.initByte(s.blockGroup(base, i), b)
		if err != nil {
			return fmt.Errorf("init block byte %d: %w", i, err)
		}
	}

	return nil
}

// GetBlock reads len(dst) bytes of the block at base into dst.
func (s *Store) GetBlock(base int, dst []byte) error {
	err := s.check(OpsBlock, base, len(dst))
	if err != nil {
		return err
	}

	for i := range dst {
		dst[i], err = s.getByte(s.blockGroup(base, i))
		if err != nil {
			return fmt.Errorf("get block byte %d: %w", i, err)
		}
	}

	return nil
}

// SetBlock stores data in the block at base. Only bytes whose value changed
// are written.
//
// It returns the number of bytes that were physically rewritten.
func (s *Store) SetBlock(base int, data []byte) (int, error) {
	err := s.check(OpsBlock, base, len(data))
	if err != nil {
		return 0, err
	}

	changed := 0

	for i, b := range data {
		wrote, err := s.setByte(s.blockGroup(base, i), b)
		if err != nil {
			return changed, fmt.Errorf("set block byte %d: %w", i, err)
		}

		if wrote {
			changed++
		}
	}

	return changed, nil
}

func (s *Store) blockGroup(base, i int) int {
	return base + i*s.GroupSize()
}
