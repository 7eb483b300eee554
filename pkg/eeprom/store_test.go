package eeprom_test

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/wearlevel/pkg/eeprom"
	"github.com/calvinalkan/wearlevel/pkg/medium"
)

func Test_Store_Matches_Reference_Layout_When_Byte_Initialized_And_Updated(t *testing.T) {
	t.Parallel()

	s, mem := newMemStore(t, 8, 1)

	mustInitByte(t, s, 0, 0x40)

	want := []string{"40 FF FF FF FF FF FF FF 07 00 01 02 03 04 05 06"}
	if diff := cmp.Diff(want, hexRows(mem, 1)); diff != "" {
		t.Fatalf("after init (-want +got):\n%s", diff)
	}

	mustSetByte(t, s, 0, 0x41)

	want = []string{"40 41 FF FF FF FF FF FF 07 08 01 02 03 04 05 06"}
	if diff := cmp.Diff(want, hexRows(mem, 1)); diff != "" {
		t.Fatalf("after update (-want +got):\n%s", diff)
	}

	mustSetByte(t, s, 0, 0x41)

	if diff := cmp.Diff(want, hexRows(mem, 1)); diff != "" {
		t.Fatalf("after same-value update (-want +got):\n%s", diff)
	}

	if got := mustGetByte(t, s, 0); got != 0x41 {
		t.Fatalf("GetByte = %#02x, want 0x41", got)
	}
}

func Test_Store_Returns_Initial_Value_When_Initialized_With_Any_Byte(t *testing.T) {
	t.Parallel()

	for _, factor := range []int{1, 2, 8, 255} {
		t.Run(fmt.Sprintf("factor=%d", factor), func(t *testing.T) {
			t.Parallel()

			s, _ := newMemStore(t, factor, 1)

			for v := range 256 {
				mustInitByte(t, s, 0, byte(v))

				if got := mustGetByte(t, s, 0); got != byte(v) {
					t.Fatalf("GetByte after InitByte(%#02x) = %#02x", v, got)
				}
			}
		})
	}
}

// Applies seeded random updates to several groups and checks every read
// against a plain map model.
func Test_Store_Matches_Model_When_Seeded_Random_Updates_Applied(t *testing.T) {
	t.Parallel()

	opsPerSeed := 4000
	if testing.Short() {
		opsPerSeed = 500
	}

	for _, factor := range []int{1, 2, 3, 8, 64} {
		for seed := uint64(1); seed <= 4; seed++ {
			t.Run(fmt.Sprintf("factor=%d/seed=%d", factor, seed), func(t *testing.T) {
				t.Parallel()

				const groups = 4

				s, _ := newMemStore(t, factor, groups)
				rng := rand.New(rand.NewPCG(seed, uint64(factor)))
				model := make(map[int]byte, groups)

				for g := range groups {
					base := g * s.GroupSize()
					v := byte(rng.UintN(256))
					mustInitByte(t, s, base, v)
					model[base] = v
				}

				for op := range opsPerSeed {
					base := int(rng.UintN(groups)) * s.GroupSize()

					// Small alphabet so unchanged writes happen often.
					v := byte(rng.UintN(4))

					mustSetByte(t, s, base, v)
					model[base] = v

					for b, want := range model {
						if got := mustGetByte(t, s, b); got != want {
							t.Fatalf("op %d: GetByte(%d) = %#02x, want %#02x", op, b, got, want)
						}
					}
				}
			})
		}
	}
}

func Test_SetByte_Writes_Nothing_When_Value_Is_Unchanged(t *testing.T) {
	t.Parallel()

	s, mem := newMemStore(t, 8, 1)

	mustInitByte(t, s, 0, 0x10)

	for _, v := range []byte{0x11, 0x12, 0x13} {
		mustSetByte(t, s, 0, v)
	}

	before := mem.Bytes()
	wearBefore := mem.Wear(0, mem.Size())

	for range 10 {
		mustSetByte(t, s, 0, 0x13)
	}

	if !bytes.Equal(before, mem.Bytes()) {
		t.Fatalf("region changed:\nbefore % X\nafter  % X", before, mem.Bytes())
	}

	if got := mem.Wear(0, mem.Size()); got != wearBefore {
		t.Fatalf("wear changed: before %+v, after %+v", wearBefore, got)
	}
}

func Test_SetByte_Visits_Slots_Round_Robin_When_Value_Changes(t *testing.T) {
	t.Parallel()

	for _, factor := range []int{1, 2, 5, 8} {
		t.Run(fmt.Sprintf("factor=%d", factor), func(t *testing.T) {
			t.Parallel()

			s, mem := newMemStore(t, factor, 1)

			mustInitByte(t, s, 0, 0)

			updates := 3*factor + 1
			visits := make([]int, factor)

			for i := 1; i <= updates; i++ {
				mustSetByte(t, s, 0, byte(i))

				slot := mustInspect(t, s, 0)
				if want := i % factor; slot.Active != want {
					t.Fatalf("update %d: active slot %d, want %d", i, slot.Active, want)
				}

				visits[slot.Active]++
			}

			// Over 3N+1 changing updates every slot is visited three times,
			// slot 1 (or slot 0 for factor 1) once more.
			for idx, n := range visits {
				if n < 3 || n > 4 {
					t.Fatalf("slot %d visited %d times: %v", idx, n, visits)
				}
			}

			// Each data cell is written at most once more than any other.
			w := mem.Wear(0, factor)
			minWrites := w.Max
			for addr := range factor {
				minWrites = min(minWrites, mem.WriteCount(addr))
			}

			if w.Max-minWrites > 1 {
				t.Fatalf("uneven data wear: max %d, min %d", w.Max, minWrites)
			}
		})
	}
}

func Test_SetByte_Resolves_Latest_Slot_When_Counters_Wrap_Past_0xFF(t *testing.T) {
	t.Parallel()

	const factor = 8

	s, mem := newMemStore(t, factor, 1)

	// Ring whose newest slot is 5 with counter 0xFF.
	image := []byte{
		0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5, 0xA6, 0xA7,
		0xFA, 0xFB, 0xFC, 0xFD, 0xFE, 0xFF, 0xF8, 0xF9,
	}

	err := mem.Restore(image)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if got := mustGetByte(t, s, 0); got != 0xA5 {
		t.Fatalf("GetByte = %#02x, want 0xA5", got)
	}

	// Drive the counters through several full wraps.
	for i := range 3 * 256 {
		v := byte(i)
		if v == mustGetByte(t, s, 0) {
			v++
		}

		before := mustInspect(t, s, 0)
		mustSetByte(t, s, 0, v)
		after := mustInspect(t, s, 0)

		if got := after.Value; got != v {
			t.Fatalf("update %d: value %#02x, want %#02x (gens % X)", i, got, v, after.Gens)
		}

		if want := (before.Active + 1) % factor; after.Active != want {
			t.Fatalf("update %d: active %d, want %d (gens % X)", i, after.Active, want, after.Gens)
		}

		if want := before.Gens[before.Active] + 1; after.Gens[after.Active] != want {
			t.Fatalf("update %d: counter %#02x, want %#02x", i, after.Gens[after.Active], want)
		}
	}
}

func Test_InitByte_Writes_Counters_And_First_Slot_When_Factor_Varies(t *testing.T) {
	t.Parallel()

	for _, factor := range []int{1, 2, 3, 16} {
		t.Run(fmt.Sprintf("factor=%d", factor), func(t *testing.T) {
			t.Parallel()

			s, mem := newMemStore(t, factor, 1)

			mustInitByte(t, s, 0, 0x5A)

			want := make([]byte, 2*factor)
			for i := range factor {
				want[i] = medium.Erased
			}

			want[0] = 0x5A
			copy(want[factor:], initGens(factor))

			if diff := cmp.Diff(want, mem.Bytes()); diff != "" {
				t.Fatalf("group (-want +got):\n%s", diff)
			}

			if slot := mustInspect(t, s, 0); slot.Active != 0 {
				t.Fatalf("active = %d, want 0", slot.Active)
			}
		})
	}
}

func Test_Store_Keeps_Groups_Independent_When_Neighbours_Are_Updated(t *testing.T) {
	t.Parallel()

	s, mem := newMemStore(t, 4, 3)

	for g := range 3 {
		mustInitByte(t, s, g*s.GroupSize(), byte(0x10*g))
	}

	first := mem.Slice(0, s.GroupSize())
	last := mem.Slice(2*s.GroupSize(), 3*s.GroupSize())

	for v := range 20 {
		mustSetByte(t, s, s.GroupSize(), byte(v))
	}

	if diff := cmp.Diff(first, mem.Slice(0, s.GroupSize())); diff != "" {
		t.Fatalf("first group changed (-before +after):\n%s", diff)
	}

	if diff := cmp.Diff(last, mem.Slice(2*s.GroupSize(), 3*s.GroupSize())); diff != "" {
		t.Fatalf("last group changed (-before +after):\n%s", diff)
	}
}

func Test_New_Returns_ErrInvalidInput_When_Options_Are_Invalid(t *testing.T) {
	t.Parallel()

	mem := medium.NewMem(16, medium.MemOptions{})

	tests := []struct {
		name string
		m    eeprom.Medium
		opts eeprom.Options
	}{
		{name: "nil medium", m: nil, opts: eeprom.Options{}},
		{name: "negative factor", m: mem, opts: eeprom.Options{WearLevelFactor: -1}},
		{name: "factor 256", m: mem, opts: eeprom.Options{WearLevelFactor: 256}},
		{name: "unknown ops", m: mem, opts: eeprom.Options{Ops: 0x80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := eeprom.New(tt.m, tt.opts)
			if !errors.Is(err, eeprom.ErrInvalidInput) {
				t.Fatalf("New: got %v, want ErrInvalidInput", err)
			}
		})
	}
}

func Test_New_Applies_Defaults_When_Options_Are_Zero(t *testing.T) {
	t.Parallel()

	s := mustNewStore(t, medium.NewMem(16, medium.MemOptions{}), eeprom.Options{})

	if s.WearLevelFactor() != eeprom.DefaultWearLevelFactor {
		t.Fatalf("WearLevelFactor = %d, want %d", s.WearLevelFactor(), eeprom.DefaultWearLevelFactor)
	}

	if s.Ops() != eeprom.OpsAll {
		t.Fatalf("Ops = %v, want %v", s.Ops(), eeprom.OpsAll)
	}
}

func Test_Store_Rejects_Groups_When_They_Do_Not_Fit_Medium(t *testing.T) {
	t.Parallel()

	s, _ := newMemStore(t, 8, 2)

	_, err := s.InitByte(17, 1)
	if !errors.Is(err, eeprom.ErrOutOfRange) {
		t.Fatalf("InitByte past end: got %v, want ErrOutOfRange", err)
	}

	_, err = s.GetByte(-1)
	if !errors.Is(err, eeprom.ErrInvalidInput) {
		t.Fatalf("GetByte(-1): got %v, want ErrInvalidInput", err)
	}

	// The last group that fits is fine.
	mustInitByte(t, s, 16, 1)
}

func Test_Store_Returns_ErrOutOfRange_When_Base_Or_Length_Would_Overflow(t *testing.T) {
	t.Parallel()

	s, mem := newMemStore(t, 8, 4)
	before := mem.Slice(0, mem.Size())

	for _, base := range []int{math.MaxInt - 4, math.MaxInt - 15, math.MaxInt, mem.Size() + 1} {
		_, err := s.InitByte(base, 1)
		if !errors.Is(err, eeprom.ErrOutOfRange) {
			t.Errorf("InitByte(%d): got %v, want ErrOutOfRange", base, err)
		}

		_, err = s.Inspect(base)
		if !errors.Is(err, eeprom.ErrOutOfRange) {
			t.Errorf("Inspect(%d): got %v, want ErrOutOfRange", base, err)
		}

		err = s.InitBlock(base, []byte{1, 2})
		if !errors.Is(err, eeprom.ErrOutOfRange) {
			t.Errorf("InitBlock(%d): got %v, want ErrOutOfRange", base, err)
		}
	}

	for _, n := range []int{math.MaxInt, math.MaxInt / 16, math.MaxInt/16 + 1, 5} {
		err := s.CheckRange(0, n)
		if !errors.Is(err, eeprom.ErrOutOfRange) {
			t.Errorf("CheckRange(0, %d): got %v, want ErrOutOfRange", n, err)
		}

		err = s.CheckRange(16, n)
		if !errors.Is(err, eeprom.ErrOutOfRange) {
			t.Errorf("CheckRange(16, %d): got %v, want ErrOutOfRange", n, err)
		}
	}

	if err := s.CheckRange(0, -1); !errors.Is(err, eeprom.ErrInvalidInput) {
		t.Errorf("CheckRange(0, -1): got %v, want ErrInvalidInput", err)
	}

	if err := s.CheckRange(mem.Size(), 0); err != nil {
		t.Errorf("CheckRange(size, 0): got %v, want nil", err)
	}

	if err := s.CheckRange(0, 4); err != nil {
		t.Errorf("CheckRange(0, 4): got %v, want nil", err)
	}

	if diff := cmp.Diff(before, mem.Slice(0, mem.Size())); diff != "" {
		t.Fatalf("rejected calls wrote to the medium (-before +after):\n%s", diff)
	}
}

func Test_Store_Returns_ErrDisabled_When_Operation_Family_Is_Off(t *testing.T) {
	t.Parallel()

	mem := medium.NewMem(64, medium.MemOptions{})

	byteOnly := mustNewStore(t, mem, eeprom.Options{Ops: eeprom.OpsByte})

	err := byteOnly.InitBlock(0, []byte{1, 2})
	if !errors.Is(err, eeprom.ErrDisabled) {
		t.Fatalf("InitBlock on byte-only store: got %v, want ErrDisabled", err)
	}

	blockOnly := mustNewStore(t, mem, eeprom.Options{Ops: eeprom.OpsBlock})

	_, err = blockOnly.InitByte(0, 1)
	if !errors.Is(err, eeprom.ErrDisabled) {
		t.Fatalf("InitByte on block-only store: got %v, want ErrDisabled", err)
	}

	err = blockOnly.SetByte(0, 1)
	if !errors.Is(err, eeprom.ErrDisabled) {
		t.Fatalf("SetByte on block-only store: got %v, want ErrDisabled", err)
	}

	// Blocks still work, and a one-byte block is the same group as a byte.
	err = blockOnly.InitBlock(0, []byte{0x33})
	if err != nil {
		t.Fatalf("InitBlock: %v", err)
	}

	if got := mustGetByte(t, byteOnly, 0); got != 0x33 {
		t.Fatalf("GetByte = %#02x, want 0x33", got)
	}
}

func Test_Store_Wraps_Medium_Errors_When_Medium_Fails(t *testing.T) {
	t.Parallel()

	s := mustNewStore(t, failingMedium{size: 32}, eeprom.Options{})

	_, err := s.GetByte(0)
	if !errors.Is(err, errMediumBroken) {
		t.Fatalf("GetByte: got %v, want errMediumBroken", err)
	}

	_, err = s.InitByte(0, 1)
	if !errors.Is(err, errMediumBroken) {
		t.Fatalf("InitByte: got %v, want errMediumBroken", err)
	}
}

var errMediumBroken = errors.New("broken")

type failingMedium struct{ size int }

func (f failingMedium) Size() int                  { return f.size }
func (f failingMedium) ReadCell(int) (byte, error) { return 0, errMediumBroken }
func (f failingMedium) WriteCell(int, byte) error  { return errMediumBroken }
