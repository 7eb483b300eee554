package medium

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// pageSize is the system page size, used for aligning msync ranges.
var pageSize = unix.Getpagesize()

// FileOptions configures [OpenFile].
type FileOptions struct {
	// Size is the number of cells.
	//
	// A new or empty file is extended to Size and erased. An existing file
	// must already have exactly Size bytes. Zero adopts the size of an
	// existing file.
	Size int

	// NoSync skips the msync after each write. Writes are then only as
	// durable as the page cache until [File.Sync] or [File.Close].
	NoSync bool
}

// File is a medium backed by a memory-mapped image file.
//
// Each changing write is flushed with msync before WriteCell returns. Writes
// of a value the cell already holds are skipped, mirroring the EEPROM update
// primitive.
//
// The file is locked exclusively for the lifetime of the File. A second
// OpenFile on the same path, from any process, fails with [ErrBusy].
type File struct {
	mu     sync.Mutex
	path   string
	f      *os.File
	data   []byte
	noSync bool
	writes uint64
	closed bool
}

// OpenFile opens or creates the image at path.
//
// Possible errors:
//   - [ErrInvalidInput]: empty path, negative size, or zero size for a new file
//   - [ErrBusy]: the image is locked by another handle
//   - [ErrSizeMismatch]: the existing image has a different size
//   - syscall errors: open, stat, truncate, mmap failures
func OpenFile(path string, opts FileOptions) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required: %w", ErrInvalidInput)
	}

	if opts.Size < 0 {
		return nil, fmt.Errorf("size must be >= 0, got %d: %w", opts.Size, ErrInvalidInput)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644) //nolint:gosec // path is caller-controlled
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}

	m, err := mapImage(f, opts)
	if err != nil {
		return nil, errors.Join(err, f.Close())
	}

	m.path = path

	return m, nil
}

func mapImage(f *os.File, opts FileOptions) (*File, error) {
	fd := int(f.Fd())

	err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("lock %s: %w", f.Name(), ErrBusy)
		}

		return nil, fmt.Errorf("lock image: %w", err)
	}

	var st unix.Stat_t

	err = unix.Fstat(fd, &st)
	if err != nil {
		return nil, fmt.Errorf("stat image: %w", err)
	}

	existing := int(st.Size)
	fresh := existing == 0

	size := opts.Size

	switch {
	case fresh && size == 0:
		return nil, fmt.Errorf("size is required for a new image: %w", ErrInvalidInput)
	case fresh:
		err = unix.Ftruncate(fd, int64(size))
		if err != nil {
			return nil, fmt.Errorf("truncate image: %w", err)
		}
	case size == 0:
		size = existing
	case size != existing:
		return nil, fmt.Errorf("image has %d bytes, want %d: %w", existing, size, ErrSizeMismatch)
	}

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap image: %w", err)
	}

	if fresh {
		for i := range data {
			data[i] = Erased
		}

		err = unix.Msync(data, unix.MS_SYNC)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("msync: %w", err), unix.Munmap(data))
		}
	}

	return &File{f: f, data: data, noSync: opts.NoSync}, nil
}

// Path returns the image path.
func (m *File) Path() string { return m.path }

// Size returns the number of cells.
func (m *File) Size() int { return len(m.data) }

// Writes returns the number of physical writes issued through this handle.
func (m *File) Writes() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.writes
}

// ReadCell returns the byte at addr.
func (m *File) ReadCell(addr int) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}

	if addr < 0 || addr >= len(m.data) {
		return 0, fmt.Errorf("read %d of %d: %w", addr, len(m.data), ErrOutOfRange)
	}

	return m.data[addr], nil
}

// WriteCell stores b at addr and flushes the containing page.
func (m *File) WriteCell(addr int, b byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if addr < 0 || addr >= len(m.data) {
		return fmt.Errorf("write %d of %d: %w", addr, len(m.data), ErrOutOfRange)
	}

	if m.data[addr] == b {
		return nil
	}

	m.data[addr] = b
	m.writes++

	if m.noSync {
		return nil
	}

	return msyncPage(m.data, addr)
}

// Sync flushes the whole image.
func (m *File) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	return m.syncAll()
}

// Close flushes, unmaps and unlocks the image. Close is idempotent.
func (m *File) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true

	var syncErr error
	if len(m.data) > 0 {
		syncErr = m.syncAll()
	}

	unmapErr := unix.Munmap(m.data)
	if unmapErr != nil {
		unmapErr = fmt.Errorf("munmap: %w", unmapErr)
	}

	m.data = nil

	// Closing the descriptor releases the flock.
	return errors.Join(syncErr, unmapErr, m.f.Close())
}

func (m *File) syncAll() error {
	err := unix.Msync(m.data, unix.MS_SYNC)
	if err != nil {
		return fmt.Errorf("msync: %w", err)
	}

	return nil
}

// msyncPage flushes the page holding addr. The mapping starts page aligned.
func msyncPage(data []byte, addr int) error {
	start := (addr / pageSize) * pageSize
	end := min(start+pageSize, len(data))

	err := unix.Msync(data[start:end], unix.MS_SYNC)
	if err != nil {
		return fmt.Errorf("msync: %w", err)
	}

	return nil
}
