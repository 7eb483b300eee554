package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Section groups commands in help listings.
type Section int

// Help sections, in listing order.
const (
	SectionImage Section = iota
	SectionByte
	SectionBlock
	SectionDiagnostics
)

var sections = []Section{SectionImage, SectionByte, SectionBlock, SectionDiagnostics}

func (s Section) String() string {
	switch s {
	case SectionImage:
		return "Image"
	case SectionByte:
		return "Bytes"
	case SectionBlock:
		return "Blocks"
	case SectionDiagnostics:
		return "Diagnostics"
	default:
		return fmt.Sprintf("Section(%d)", int(s))
	}
}

// Command is one eewear subcommand.
type Command struct {
	// Flags holds the command flags. Each constructor call builds a fresh
	// set so the shell can run a command more than once.
	Flags *flag.FlagSet

	// Usage starts with the command name, followed by its arguments,
	// e.g. "set-byte <base> <value>".
	Usage string

	// Short is the one-line summary shown in listings.
	Short string

	// Long is shown by --help. Short is used when empty.
	Long string

	// Section places the command in help listings.
	Section Section

	// TopLevel commands replace or hold the image themselves (create, shell).
	// The shell already holds the image lock and refuses them.
	TopLevel bool

	// Exec runs the command with the arguments left after flag parsing.
	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name returns the first word of Usage.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine returns the listing line for the command.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-28s %s", c.Usage, c.Short)
}

// PrintHelp prints the --help text. Inside the shell the "eewear" prefix is
// dropped since commands are typed without it.
func (c *Command) PrintHelp(o *IO) {
	if o.inShell {
		o.Println("Usage:", c.Usage)
	} else {
		o.Println("Usage: eewear", c.Usage)
	}

	o.Println()

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	o.Println(desc)

	if c.TopLevel {
		o.Println()
		o.Println("Not available inside the shell.")
	}

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")
		o.Printf("%s", c.Flags.FlagUsages())
	}
}

// Run parses flags and executes the command, printing any error to stderr.
// It returns the exit code.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	if o.inShell && c.TopLevel {
		o.ErrPrintln("error:", fmt.Errorf("%w: %s", ErrNotInShell, c.Name()))
		return 1
	}

	c.Flags.SetOutput(io.Discard)

	err := c.Flags.Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o)
			return 0
		}

		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(o)

		return 1
	}

	err = c.Exec(ctx, o, c.Flags.Args())
	if err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	return 0
}

// printCommandList writes the commands grouped by section. skip hides
// commands from the listing.
func printCommandList(w io.Writer, cmds []*Command, skip func(*Command) bool) {
	for _, sec := range sections {
		header := false

		for _, cmd := range cmds {
			if cmd.Section != sec || (skip != nil && skip(cmd)) {
				continue
			}

			if !header {
				fprintln(w, sec.String()+":")

				header = true
			}

			fprintln(w, cmd.HelpLine())
		}
	}
}
