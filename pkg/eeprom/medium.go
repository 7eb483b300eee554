package eeprom

// Medium is byte-addressable persistent storage.
//
// A completed WriteCell must be visible to every subsequent ReadCell and must
// survive power loss. Implementations may skip writes of a value the cell
// already holds; the engine never relies on it.
//
// Addresses are in [0, Size()). Implementations return an error for addresses
// outside that range.
type Medium interface {
	// Size returns the number of addressable cells.
	Size() int

	// ReadCell returns the byte stored at addr.
	ReadCell(addr int) (byte, error)

	// WriteCell stores b at addr, blocking until the write is durable.
	WriteCell(addr int, b byte) error
}
