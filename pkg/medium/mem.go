package medium

import "fmt"

// MemOptions configures a [Mem].
type MemOptions struct {
	// ElideEqualWrites skips writes of a value the cell already holds,
	// like the EEPROM "update byte" primitive. Elided writes do not count
	// as wear.
	ElideEqualWrites bool
}

// Mem is a simulated EEPROM held in memory.
//
// Every physical write is counted per cell so tests and the CLI can report
// how wear is distributed. Mem is not safe for concurrent use.
type Mem struct {
	data   []byte
	writes []uint64
	elided uint64
	opts   MemOptions
}

// NewMem returns a Mem of size cells, all set to [Erased].
func NewMem(size int, opts MemOptions) *Mem {
	if size < 0 {
		panic(fmt.Sprintf("medium: negative size %d", size))
	}

	data := make([]byte, size)
	for i := range data {
		data[i] = Erased
	}

	return &Mem{
		data:   data,
		writes: make([]uint64, size),
		opts:   opts,
	}
}

// Size returns the number of cells.
func (m *Mem) Size() int { return len(m.data) }

// ReadCell returns the byte at addr.
func (m *Mem) ReadCell(addr int) (byte, error) {
	if addr < 0 || addr >= len(m.data) {
		return 0, fmt.Errorf("read %d of %d: %w", addr, len(m.data), ErrOutOfRange)
	}

	return m.data[addr], nil
}

// WriteCell stores b at addr.
func (m *Mem) WriteCell(addr int, b byte) error {
	if addr < 0 || addr >= len(m.data) {
		return fmt.Errorf("write %d of %d: %w", addr, len(m.data), ErrOutOfRange)
	}

	if m.opts.ElideEqualWrites && m.data[addr] == b {
		m.elided++

		return nil
	}

	m.data[addr] = b
	m.writes[addr]++

	return nil
}

// Bytes returns a copy of the whole medium.
func (m *Mem) Bytes() []byte {
	out := make([]byte, len(m.data))
	copy(out, m.data)

	return out
}

// Slice returns a copy of cells [begin, end).
func (m *Mem) Slice(begin, end int) []byte {
	out := make([]byte, end-begin)
	copy(out, m.data[begin:end])

	return out
}

// Restore overwrites the medium content with data without counting wear.
// len(data) must equal Size().
func (m *Mem) Restore(data []byte) error {
	if len(data) != len(m.data) {
		return fmt.Errorf("restore %d bytes into medium of %d: %w", len(data), len(m.data), ErrSizeMismatch)
	}

	copy(m.data, data)

	return nil
}

// WriteCount returns the number of physical writes to addr.
func (m *Mem) WriteCount(addr int) uint64 {
	return m.writes[addr]
}

// Wear summarizes physical writes over a range of cells.
type Wear struct {
	// Total is the number of physical writes.
	Total uint64
	// Elided is the number of writes skipped because the cell already held
	// the value. Only counted over the whole medium.
	Elided uint64
	// Max is the highest write count of any single cell.
	Max uint64
	// MaxAddr is the first address with Max writes.
	MaxAddr int
}

// Wear reports write statistics for cells [begin, end).
func (m *Mem) Wear(begin, end int) Wear {
	w := Wear{Elided: m.elided, MaxAddr: begin}

	for addr := begin; addr < end; addr++ {
		n := m.writes[addr]
		w.Total += n

		if n > w.Max {
			w.Max = n
			w.MaxAddr = addr
		}
	}

	return w
}
