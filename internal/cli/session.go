package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/calvinalkan/wearlevel/internal/config"
	"github.com/calvinalkan/wearlevel/pkg/eeprom"
	"github.com/calvinalkan/wearlevel/pkg/medium"
)

// session owns the image file for the lifetime of one invocation or one
// shell. The image is opened on first use and held under its lock until
// close.
type session struct {
	cfg     config.Config
	sources config.Sources
	workDir string
	env     map[string]string
	logger  *slog.Logger

	file  *medium.File
	store *eeprom.Store
}

// imagePath returns the absolute image path.
func (s *session) imagePath() string {
	if filepath.IsAbs(s.cfg.MediumPath) {
		return s.cfg.MediumPath
	}

	return filepath.Join(s.workDir, s.cfg.MediumPath)
}

// resolve makes p absolute relative to the work directory.
func (s *session) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}

	return filepath.Join(s.workDir, p)
}

// open returns the store over the existing image, opening it if needed.
func (s *session) open(o *IO) (*eeprom.Store, error) {
	if s.store != nil {
		return s.store, nil
	}

	path := s.imagePath()

	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s (run 'eewear create' first)", ErrNoImage, path)
	}

	if err != nil {
		return nil, fmt.Errorf("stat image: %w", err)
	}

	f, err := medium.OpenFile(path, medium.FileOptions{})
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}

	if f.Size() != s.cfg.MediumSize {
		o.Warn(fmt.Sprintf("image %s is %d bytes but medium_size is %d", path, f.Size(), s.cfg.MediumSize),
			"using the image size; recreate the image or fix medium_size")
	}

	opts := s.cfg.StoreOptions()
	opts.Logger = s.logger

	store, err := eeprom.New(f, opts)
	if err != nil {
		return nil, errors.Join(err, f.Close())
	}

	s.file, s.store = f, store

	return store, nil
}

// close releases the image. Safe to call when nothing was opened.
func (s *session) close() error {
	if s.file == nil {
		return nil
	}

	err := s.file.Close()
	s.file, s.store = nil, nil

	return err
}
