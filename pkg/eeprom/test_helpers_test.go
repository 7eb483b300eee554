package eeprom_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/calvinalkan/wearlevel/pkg/eeprom"
	"github.com/calvinalkan/wearlevel/pkg/medium"
)

func mustNewStore(t *testing.T, m eeprom.Medium, opts eeprom.Options) *eeprom.Store {
	t.Helper()

	s, err := eeprom.New(m, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return s
}

// newMemStore returns a store over a fresh medium large enough for groups
// logical bytes at the given factor.
func newMemStore(t *testing.T, factor, groups int) (*eeprom.Store, *medium.Mem) {
	t.Helper()

	mem := medium.NewMem(eeprom.Footprint(factor, groups), medium.MemOptions{})

	return mustNewStore(t, mem, eeprom.Options{WearLevelFactor: factor}), mem
}

// hexRows renders cells [0, rows*16) as space separated hex, one row per line.
func hexRows(mem *medium.Mem, rows int) []string {
	data := mem.Slice(0, rows*16)
	out := make([]string, rows)

	for r := range rows {
		cells := make([]string, 16)
		for c := range cells {
			cells[c] = fmt.Sprintf("%02X", data[r*16+c])
		}

		out[r] = strings.Join(cells, " ")
	}

	return out
}

func mustInitByte(t *testing.T, s *eeprom.Store, base int, v byte) {
	t.Helper()

	got, err := s.InitByte(base, v)
	if err != nil {
		t.Fatalf("InitByte(%d, %#02x): %v", base, v, err)
	}

	if got != v {
		t.Fatalf("InitByte(%d, %#02x) returned %#02x", base, v, got)
	}
}

func mustGetByte(t *testing.T, s *eeprom.Store, base int) byte {
	t.Helper()

	v, err := s.GetByte(base)
	if err != nil {
		t.Fatalf("GetByte(%d): %v", base, err)
	}

	return v
}

func mustSetByte(t *testing.T, s *eeprom.Store, base int, v byte) {
	t.Helper()

	err := s.SetByte(base, v)
	if err != nil {
		t.Fatalf("SetByte(%d, %#02x): %v", base, v, err)
	}
}

func mustInspect(t *testing.T, s *eeprom.Store, base int) eeprom.Slot {
	t.Helper()

	slot, err := s.Inspect(base)
	if err != nil {
		t.Fatalf("Inspect(%d): %v", base, err)
	}

	return slot
}
