package medium

import (
	"bytes"
	"fmt"
	"os"

	"github.com/natefinch/atomic"

	"github.com/calvinalkan/wearlevel/pkg/eeprom"
)

// Snapshot copies every cell of m into a new slice.
func Snapshot(m eeprom.Medium) ([]byte, error) {
	out := make([]byte, m.Size())

	for addr := range out {
		b, err := m.ReadCell(addr)
		if err != nil {
			return nil, fmt.Errorf("read cell %d: %w", addr, err)
		}

		out[addr] = b
	}

	return out, nil
}

// SaveImage writes the content of m to path atomically.
//
// Readers of path see either the previous image or the complete new one.
func SaveImage(path string, m eeprom.Medium) error {
	data, err := Snapshot(m)
	if err != nil {
		return err
	}

	err = atomic.WriteFile(path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("write image %s: %w", path, err)
	}

	return nil
}

// LoadImage reads an image saved by [SaveImage] into a new [Mem].
// Wear counters of the returned Mem start at zero.
func LoadImage(path string, opts MemOptions) (*Mem, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	m := NewMem(len(data), opts)
	copy(m.data, data)

	return m, nil
}
