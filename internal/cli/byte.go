package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/wearlevel/pkg/medium"
)

// initByteCmd returns the init-byte command.
func initByteCmd(s *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("init-byte", flag.ContinueOnError),
		Usage: "init-byte <base> <value>",
		Short: "Initialize a slot-group with a value",
		Long: `Write the initial counter sequence and the first data slot of the
slot-group at <base>. Whatever the group held before is discarded.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			return execInitByte(o, s, args)
		},
		Section: SectionByte,
	}
}

func execInitByte(o *IO, s *session, args []string) error {
	base, value, err := parseBaseValue(args)
	if err != nil {
		return err
	}

	store, err := s.open(o)
	if err != nil {
		return err
	}

	got, err := store.InitByte(base, value)
	if err != nil {
		return err
	}

	o.Printf("0x%02X\n", got)

	return nil
}

// getByteCmd returns the get-byte command.
func getByteCmd(s *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("get-byte", flag.ContinueOnError),
		Usage: "get-byte <base>",
		Short: "Read the current value of a slot-group",
		Exec: func(_ context.Context, o *IO, args []string) error {
			return execGetByte(o, s, args)
		},
		Section: SectionByte,
	}
}

func execGetByte(o *IO, s *session, args []string) error {
	err := wantArgs(args, 1)
	if err != nil {
		return err
	}

	base, err := parseAddr(args[0])
	if err != nil {
		return err
	}

	store, err := s.open(o)
	if err != nil {
		return err
	}

	v, err := store.GetByte(base)
	if err != nil {
		return err
	}

	warnIfErased(o, s, base)

	o.Printf("0x%02X\n", v)

	return nil
}

// setByteCmd returns the set-byte command.
func setByteCmd(s *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("set-byte", flag.ContinueOnError),
		Usage: "set-byte <base> <value>",
		Short: "Update the value of a slot-group",
		Long: `Store <value> in the slot-group at <base>. If the group already holds
the value nothing is written. Otherwise the next slot receives the value and
then its counter, so an interrupted update still reads the previous value.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			return execSetByte(o, s, args)
		},
		Section: SectionByte,
	}
}

func execSetByte(o *IO, s *session, args []string) error {
	base, value, err := parseBaseValue(args)
	if err != nil {
		return err
	}

	store, err := s.open(o)
	if err != nil {
		return err
	}

	warnIfErased(o, s, base)

	before := s.file.Writes()

	err = store.SetByte(base, value)
	if err != nil {
		return err
	}

	if s.file.Writes() == before {
		o.Printf("0x%02X (unchanged)\n", value)
		return nil
	}

	o.Printf("0x%02X\n", value)

	return nil
}

func parseBaseValue(args []string) (int, byte, error) {
	err := wantArgs(args, 2)
	if err != nil {
		return 0, 0, err
	}

	base, err := parseAddr(args[0])
	if err != nil {
		return 0, 0, err
	}

	value, err := parseByte(args[1])
	if err != nil {
		return 0, 0, err
	}

	return base, value, nil
}

// warnIfErased flags groups whose counters are still all erased, which
// means init-byte was never run for them. Initialized groups of two or more
// slots always hold distinct counters.
func warnIfErased(o *IO, s *session, base int) {
	slot, err := s.store.Inspect(base)
	if err != nil || len(slot.Gens) < 2 {
		return
	}

	for _, g := range slot.Gens {
		if g != medium.Erased {
			return
		}
	}

	o.Warn(fmt.Sprintf("slot-group at %d looks uninitialized", base), "run 'eewear init-byte' for it first")
}
