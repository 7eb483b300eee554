package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/wearlevel/pkg/medium"
)

func createCmd(s *session) *Command {
	flags := flag.NewFlagSet("create", flag.ContinueOnError)
	force := flags.BoolP("force", "f", false, "Replace an existing image")

	return &Command{
		Flags: flags,
		Usage: "create [flags]",
		Short: "Create an erased image of medium_size bytes",
		Long: `Create the image at medium_path, filled with 0xFF like a freshly erased
EEPROM. Fails if the image exists unless --force is given.`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			err := wantArgs(args, 0)
			if err != nil {
				return err
			}

			return execCreate(o, s, *force)
		},
		Section:  SectionImage,
		TopLevel: true,
	}
}

func execCreate(o *IO, s *session, force bool) error {
	path := s.imagePath()

	_, err := os.Stat(path)

	switch {
	case err == nil && !force:
		return fmt.Errorf("%w: %s (use --force to replace it)", ErrImageExists, path)
	case err == nil:
		err = os.Remove(path)
		if err != nil {
			return fmt.Errorf("remove image: %w", err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("stat image: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(path), 0o750)
	if err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}

	f, err := medium.OpenFile(path, medium.FileOptions{Size: s.cfg.MediumSize})
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("close image: %w", err)
	}

	groups := s.cfg.MediumSize / (2 * s.cfg.WearLevelFactor)

	o.Printf("Created %s (%d bytes, %d slot-groups at factor %d)\n", path, s.cfg.MediumSize, groups, s.cfg.WearLevelFactor)

	return nil
}
