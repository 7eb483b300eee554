package cli

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// parseAddr parses a medium address. Accepts decimal, 0x hex, 0o octal and
// 0b binary.
func parseAddr(s string) (int, error) {
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: address %q", ErrBadNumber, s)
	}

	return int(n), nil
}

// parseByte parses a byte value in the same bases as parseAddr.
func parseByte(s string) (byte, error) {
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: byte value %q", ErrBadNumber, s)
	}

	return byte(n), nil
}

// parseHex decodes hex data split over one or more args, e.g. "0102 03" or
// "01:02:03".
func parseHex(args []string) ([]byte, error) {
	joined := strings.NewReplacer(":", "", " ", "", "0x", "", "0X", "").Replace(strings.Join(args, ""))

	data, err := hex.DecodeString(joined)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadHex, err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no bytes given", ErrBadHex)
	}

	return data, nil
}

func wantArgs(args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: want %d, got %d", ErrArgCount, n, len(args))
	}

	return nil
}

// formatBytes renders b as space separated upper-case hex pairs.
func formatBytes(b []byte) string {
	return fmt.Sprintf("% X", b)
}
