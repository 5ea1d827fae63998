package flash

import (
	"fmt"
	"io"
	"os"
)

// File is a file-backed flash region. The region is mirrored in memory; the
// mirror is persisted to disk when the region is locked, matching the
// unlock/erase/program/lock bracket the engine drives.
type File struct {
	path string
	mem  *Mem
}

// NewFile opens or creates a file-backed flash region of the given size.
// An existing shorter file is padded with ErasedByte; a longer one is
// truncated to size.
func NewFile(path string, size int) (*File, error) {
	f := &File{path: path, mem: NewMem(size)}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read flash image: %w", err)
		}
		return f, nil
	}

	if len(data) > size {
		data = data[:size]
	}
	copy(f.mem.region, data)

	return f, nil
}

// Info returns the region description.
func (f *File) Info() Info {
	return f.mem.Info()
}

// Read returns a snapshot of the region contents.
func (f *File) Read() []byte {
	return f.mem.Read()
}

// Unlock makes the region writable.
func (f *File) Unlock() error {
	return f.mem.Unlock()
}

// Erase fills the region with ErasedByte.
func (f *File) Erase() error {
	return f.mem.Erase()
}

// Lock makes the region read-only and persists the mirror to disk.
func (f *File) Lock() error {
	if err := f.mem.Lock(); err != nil {
		return err
	}
	if err := os.WriteFile(f.path, f.mem.Read(), 0o600); err != nil {
		return fmt.Errorf("failed to persist flash image: %w", err)
	}
	return nil
}

// Writer returns the sequential program stream.
func (f *File) Writer() io.Writer {
	return f.mem.Writer()
}

// Compile-time interface satisfaction check.
var _ Interface = (*File)(nil)
