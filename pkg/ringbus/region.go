package ringbus

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// sharedRegion is the named shared-memory primitive every topic is backed
// by: open-or-create, open, and an explicit unmap on Close. It is backed by
// a regular file in the configured directory rather than a platform shm
// API, which gives every participating process the same bytes via a plain
// mmap without pulling in a platform-specific shm_open binding.
type sharedRegion struct {
	file *os.File
	data []byte
}

// regionPath returns the deterministic file path for a topic's backing
// region, named the same deterministic way as the topic's participant
// lock files.
func regionPath(dir, topic string) string {
	return filepath.Join(dir, topic+".ringbus")
}

// openOrCreateRegion opens the file backing topic in dir, creating it if
// necessary, and ensures it is at least minSize bytes before mapping it
// MAP_SHARED into this process's address space. Growing an existing file
// that is already large enough is a no-op; multiple processes racing to
// create/grow the same file concurrently is safe because every
// participating process computes the same minSize from the same Options.
func openOrCreateRegion(dir, topic string, minSize int64) (*sharedRegion, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create region directory: %v", ErrShmOpen, err)
	}

	path := regionPath(dir, topic)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open region file: %v", ErrShmOpen, err)
	}

	if err := growRegionFile(f, minSize); err != nil {
		_ = f.Close()
		return nil, err
	}

	return mapRegionFile(f, minSize)
}

// openRegion maps an already-created region without trying to create or
// grow it - used by subscribers, which must never be the one to size the
// file (only the publisher-side Options are authoritative for layout).
func openRegion(dir, topic string, minSize int64) (*sharedRegion, error) {
	path := regionPath(dir, topic)

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open region file: %v", ErrShmOpen, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: stat region file: %v", ErrShmOpen, err)
	}

	if info.Size() < minSize {
		_ = f.Close()
		return nil, fmt.Errorf("%w: region file smaller than expected layout", ErrIncompatible)
	}

	return mapRegionFile(f, minSize)
}

func growRegionFile(f *os.File, minSize int64) error {
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat region file: %v", ErrShmOpen, err)
	}

	if info.Size() >= minSize {
		return nil
	}

	if err := f.Truncate(minSize); err != nil {
		return fmt.Errorf("%w: grow region file: %v", ErrShmOpen, err)
	}

	return nil
}

func mapRegionFile(f *os.File, size int64) (*sharedRegion, error) {
	if uint64(size) > maxRegionSizeBytes {
		_ = f.Close()
		return nil, fmt.Errorf("%w: region size %d exceeds limit %d", ErrInvalidInput, size, maxRegionSizeBytes)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: mmap region file: %v", ErrShmOpen, err)
	}

	return &sharedRegion{file: f, data: data}, nil
}

// Close unmaps the region and closes the backing file descriptor. The
// region itself (the file) outlives this process - the header is never
// destroyed, only unmapped.
func (r *sharedRegion) Close() error {
	var errs []error

	if r.data != nil {
		if err := unix.Munmap(r.data); err != nil {
			errs = append(errs, fmt.Errorf("munmap: %w", err))
		}

		r.data = nil
	}

	if err := r.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close region file: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("closing region: %v", errs)
	}

	return nil
}
