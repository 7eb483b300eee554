// Package eeprom provides wear-leveled storage of bytes and fixed-size blocks
// on an endurance-limited, byte-addressable persistent medium.
//
// Every logical byte owns a slot-group of 2N cells: N data cells followed by
// N one-byte generation counters. The active data cell is recovered by
// scanning the counters for the end of their ascending run, so no pointer or
// valid flag is stored outside the group. An update that does not change the
// value costs no writes; a changing update moves the value to the next cell of
// the ring and extends the run by one.
//
// # Basic Usage
//
//	mem := medium.NewMem(512, medium.MemOptions{})
//	store, err := eeprom.New(mem, eeprom.Options{WearLevelFactor: 8})
//	if err != nil {
//	    return err
//	}
//
//	// Once per group, when the medium is first provisioned.
//	_, err = store.InitByte(0, 0x40)
//
//	v, err := store.GetByte(0)
//	err = store.SetByte(0, v+1)
//
// # Layout
//
// Bases are plain medium offsets. [Layout] allocates them sequentially and
// checks that the result fits the medium. A block of n bytes occupies n
// consecutive slot-groups, group i starting at base + i*2N.
//
// # Crash Behavior
//
// A single byte is crash safe: the data cell is written before its counter, so
// an interrupted update reads back as the previous value. Blocks have no
// atomicity across bytes.
//
// # Concurrency
//
// A [Store] is not safe for concurrent use. Callers sharing a medium with
// interrupt handlers or other goroutines must serialize access themselves.
package eeprom
