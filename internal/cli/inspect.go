package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/wearlevel/pkg/eeprom"
)

func inspectCmd(s *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("inspect", flag.ContinueOnError),
		Usage: "inspect <base>",
		Short: "Show the slots and counters of a slot-group",
		Long: `Print the data slots and generation counters of the slot-group at
<base> together with the resolved active slot. Works regardless of which
operation families are enabled.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
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

			slot, err := store.Inspect(base)
			if err != nil {
				return err
			}

			printSlot(o, store, slot)

			return nil
		},
		Section: SectionDiagnostics,
	}
}

func printSlot(o *IO, store *eeprom.Store, slot eeprom.Slot) {
	o.Printf("base=%d factor=%d active=%d value=0x%02X\n", slot.Base, store.WearLevelFactor(), slot.Active, slot.Value)
	o.Println("data:", formatBytes(slot.Data))
	o.Println("gens:", formatBytes(slot.Gens))
}
