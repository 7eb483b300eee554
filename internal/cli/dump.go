package cli

import (
	"context"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/wearlevel/pkg/eeprom"
)

func dumpCmd(s *session) *Command {
	flags := flag.NewFlagSet("dump", flag.ContinueOnError)
	begin := flags.IntP("begin", "b", 0, "First address to print")
	end := flags.IntP("end", "e", -1, "Address after the last one to print (default: image size)")

	return &Command{
		Flags: flags,
		Usage: "dump [flags]",
		Short: "Hex dump the raw image",
		Long:  "Print the raw image bytes, 16 per line, between separator rules.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			err := wantArgs(args, 0)
			if err != nil {
				return err
			}

			store, err := s.open(o)
			if err != nil {
				return err
			}

			stop := *end
			if stop < 0 {
				stop = store.Medium().Size()
			}

			var sb strings.Builder

			err = eeprom.Dump(&sb, store.Medium(), *begin, stop)
			if err != nil {
				return err
			}

			o.Printf("%s", sb.String())

			return nil
		},
		Section: SectionDiagnostics,
	}
}
