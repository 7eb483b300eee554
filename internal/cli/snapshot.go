package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/wearlevel/pkg/medium"
)

func snapshotCmd(s *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("snapshot", flag.ContinueOnError),
		Usage: "snapshot <path>",
		Short: "Copy the image to <path> atomically",
		Long: `Write a copy of the current image to <path>. The copy replaces any
existing file atomically, so readers never observe a partial image.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			err := wantArgs(args, 1)
			if err != nil {
				return err
			}

			store, err := s.open(o)
			if err != nil {
				return err
			}

			path := s.resolve(args[0])

			err = medium.SaveImage(path, store.Medium())
			if err != nil {
				return err
			}

			o.Printf("Saved %s (%d bytes)\n", path, store.Medium().Size())

			return nil
		},
		Section: SectionImage,
	}
}
