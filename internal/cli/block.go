package cli

import (
	"context"

	flag "github.com/spf13/pflag"
)

func initBlockCmd(s *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("init-block", flag.ContinueOnError),
		Usage: "init-block <base> <hex>",
		Short: "Initialize consecutive slot-groups from hex data",
		Long: `Initialize one slot-group per byte of <hex>, starting at <base>.
Group i lives at base + i*2*wear_level_factor.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			base, data, err := parseBaseHex(args)
			if err != nil {
				return err
			}

			store, err := s.open(o)
			if err != nil {
				return err
			}

			err = store.InitBlock(base, data)
			if err != nil {
				return err
			}

			o.Println(formatBytes(data))

			return nil
		},
		Section: SectionBlock,
	}
}

func getBlockCmd(s *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("get-block", flag.ContinueOnError),
		Usage: "get-block <base> <len>",
		Short: "Read <len> consecutive slot-groups as hex",
		Exec: func(_ context.Context, o *IO, args []string) error {
			err := wantArgs(args, 2)
			if err != nil {
				return err
			}

			base, err := parseAddr(args[0])
			if err != nil {
				return err
			}

			n, err := parseAddr(args[1])
			if err != nil {
				return err
			}

			store, err := s.open(o)
			if err != nil {
				return err
			}

			// n comes from the command line; size the buffer only once the
			// groups are known to fit.
			err = store.CheckRange(base, n)
			if err != nil {
				return err
			}

			buf := make([]byte, n)

			err = store.GetBlock(base, buf)
			if err != nil {
				return err
			}

			o.Println(formatBytes(buf))

			return nil
		},
		Section: SectionBlock,
	}
}

func setBlockCmd(s *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("set-block", flag.ContinueOnError),
		Usage: "set-block <base> <hex>",
		Short: "Update consecutive slot-groups from hex data",
		Long: `Update one slot-group per byte of <hex>, starting at <base>. Groups
whose value is unchanged are not written. The block as a whole is not atomic:
after a power loss each byte reads either its old or its new value.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			base, data, err := parseBaseHex(args)
			if err != nil {
				return err
			}

			store, err := s.open(o)
			if err != nil {
				return err
			}

			changed, err := store.SetBlock(base, data)
			if err != nil {
				return err
			}

			o.Printf("%s (%d of %d bytes changed)\n", formatBytes(data), changed, len(data))

			return nil
		},
		Section: SectionBlock,
	}
}

func parseBaseHex(args []string) (int, []byte, error) {
	if len(args) < 2 {
		return 0, nil, wantArgs(args, 2)
	}

	base, err := parseAddr(args[0])
	if err != nil {
		return 0, nil, err
	}

	data, err := parseHex(args[1:])
	if err != nil {
		return 0, nil, err
	}

	return base, data, nil
}
