package eeprom

import (
	"fmt"
	"io"
	"strings"
)

const dumpRule = "-----------------------------------------------"

// Dump writes cells [begin, end) of m as hex, 16 per line, framed by rules.
//
// Every byte is followed by a space, including the last one on a line. Line
// breaks fall after addresses that are one less than a multiple of 16, so a
// dump starting at 0 shows one slot-group of factor 8 per line. A partial
// last line is terminated before the closing rule.
func Dump(w io.Writer, m Medium, begin, end int) error {
	if begin < 0 || end > m.Size() || begin > end {
		return fmt.Errorf("dump range [%d, %d) outside medium of size %d: %w", begin, end, m.Size(), ErrOutOfRange)
	}

	var sb strings.Builder

	sb.WriteString(dumpRule)
	sb.WriteByte('\n')

	for addr := begin; addr < end; addr++ {
		b, err := m.ReadCell(addr)
		if err != nil {
			return fmt.Errorf("read cell %d: %w", addr, err)
		}

		fmt.Fprintf(&sb, "%02X ", b)

		if (addr+1)%16 == 0 || addr+1 == end {
			sb.WriteByte('\n')
		}
	}

	sb.WriteString(dumpRule)
	sb.WriteByte('\n')

	_, err := io.WriteString(w, sb.String())

	return err
}
