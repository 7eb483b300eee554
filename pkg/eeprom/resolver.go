package eeprom

// ActiveIndex returns the index of the active slot for the given generation
// counters.
//
// Starting from gens[0], it follows the run of counters that each exceed the
// previous one by exactly one (mod 256) and returns the last index of that run.
// An empty slice returns 0.
func ActiveIndex(gens []byte) int {
	idx, _, _ := scanRun(len(gens), func(i int) (byte, error) { return gens[i], nil })

	return idx
}

// scanRun walks n counters fetched by at and returns the last index of the
// ascending run from counter 0 together with that counter. at is not called
// past the first counter that breaks the run. n == 0 returns index 0.
func scanRun(n int, at func(i int) (byte, error)) (int, byte, error) {
	if n == 0 {
		return 0, 0, nil
	}

	g, err := at(0)
	if err != nil {
		return 0, 0, err
	}

	idx := 0

	for idx+1 < n {
		next, err := at(idx + 1)
		if err != nil {
			return 0, 0, err
		}

		if next != g+1 {
			break
		}

		idx++
		g = next
	}

	return idx, g, nil
}

// activeIndex resolves the group at base, reading counters from the medium
// only until the run breaks.
func (s *Store) activeIndex(base int) (int, byte, error) {
	genBase := base + s.factor

	return scanRun(s.factor, func(i int) (byte, error) { return s.read(genBase + i) })
}
