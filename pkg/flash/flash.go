// Package flash abstracts the persistent region the configuration engine
// writes its image into. The engine only needs a fixed-size byte region with
// an unlock/erase/lock bracket and a sequential program stream; physical
// timing and addressing belong to the driver behind this interface.
package flash

import (
	"errors"
	"io"
	"sync"
)

// ErasedByte is the value every cell holds after an erase.
const ErasedByte = 0xFF

// Flash errors.
var (
	// ErrLocked indicates a program or erase attempt while the region is locked.
	ErrLocked = errors.New("flash region is locked")

	// ErrRegionFull indicates a program attempt past the end of the region.
	ErrRegionFull = errors.New("flash region is full")
)

// Info describes the flash region.
type Info struct {
	// Size is the region size in bytes.
	Size int
}

// Interface is the flash capability consumed by the configuration engine.
// The region is exclusive-write while unlocked and assumed single-writer.
type Interface interface {
	// Info returns the region description.
	Info() Info

	// Read returns a snapshot of the region contents.
	Read() []byte

	// Unlock makes the region writable.
	Unlock() error

	// Erase resets every byte to ErasedByte. Requires an unlocked region.
	Erase() error

	// Lock makes the region read-only again and persists any backing store.
	Lock() error

	// Writer returns a sequential program stream starting at the region
	// origin. Writes fail with ErrLocked while locked and ErrRegionFull
	// past the end of the region.
	Writer() io.Writer
}

// Mem is an in-memory flash simulator used by tests and the console binary.
// Safe for concurrent use; the engine itself is single-flight, but observers
// (autosave, tests) may snapshot the region from other goroutines.
type Mem struct {
	mu       sync.Mutex
	region   []byte
	unlocked bool
	offset   int
}

// NewMem creates an in-memory flash region of the given size, initially
// erased and locked.
func NewMem(size int) *Mem {
	m := &Mem{region: make([]byte, size)}
	for i := range m.region {
		m.region[i] = ErasedByte
	}
	return m
}

// Info returns the region description.
func (m *Mem) Info() Info {
	return Info{Size: len(m.region)}
}

// Read returns a snapshot of the region contents.
func (m *Mem) Read() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]byte, len(m.region))
	copy(snapshot, m.region)
	return snapshot
}

// Unlock makes the region writable.
func (m *Mem) Unlock() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unlocked = true
	return nil
}

// Erase fills the region with ErasedByte and rewinds the program stream.
func (m *Mem) Erase() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.unlocked {
		return ErrLocked
	}
	for i := range m.region {
		m.region[i] = ErasedByte
	}
	m.offset = 0
	return nil
}

// Lock makes the region read-only.
func (m *Mem) Lock() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unlocked = false
	return nil
}

// Writer returns the sequential program stream.
func (m *Mem) Writer() io.Writer {
	return &memWriter{m: m}
}

type memWriter struct {
	m *Mem
}

func (w *memWriter) Write(p []byte) (int, error) {
	w.m.mu.Lock()
	defer w.m.mu.Unlock()
	if !w.m.unlocked {
		return 0, ErrLocked
	}
	if w.m.offset+len(p) > len(w.m.region) {
		return 0, ErrRegionFull
	}
	copy(w.m.region[w.m.offset:], p)
	w.m.offset += len(p)
	return len(p), nil
}

// Compile-time interface satisfaction check.
var _ Interface = (*Mem)(nil)
