package cli

import "errors"

// CLI errors.
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrArgCount       = errors.New("wrong number of arguments")
	ErrBadNumber      = errors.New("invalid number")
	ErrBadHex         = errors.New("invalid hex data")
	ErrNoImage        = errors.New("image not found")
	ErrImageExists    = errors.New("image already exists")
	ErrNotInShell     = errors.New("command not available in the shell")
	ErrUnknownFormat  = errors.New("unknown output format")
)
