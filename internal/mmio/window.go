// Package mmio maps device register regions into the process address space
// and provides bounds-checked 32-bit access to them.
package mmio

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

const devMemPath = "/dev/mem"

// Window is a mapped register region. Reads may run concurrently; writes
// are exclusive. All accesses are bounds-checked against the region
// length, and Close unmaps on every path once.
type Window struct {
	mu     sync.RWMutex
	mem    []byte // full mapping, including any fractional leading page
	off    int    // offset of the region inside mem
	size   int    // usable region length
	mapped bool
	locked bool
}

// MapResource maps length bytes of a PCI resource file starting at offset.
// The kernel requires a page-aligned offset for resource files; port-ID
// shifted community offsets (multiples of 64 KB) always qualify.
func MapResource(path string, offset int64, length int, lock bool) (*Window, error) {
	page := int64(unix.Getpagesize())
	if offset%page != 0 {
		return nil, fmt.Errorf("resource offset 0x%x is not page aligned", offset)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	mem, err := unix.Mmap(int(f.Fd()), offset, length,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s offset 0x%x length 0x%x: %w", path, offset, length, err)
	}

	w := &Window{mem: mem, size: length, mapped: true}
	if lock {
		if err := unix.Mlock(mem); err != nil {
			unix.Munmap(mem)
			return nil, fmt.Errorf("mlock %s: %w", path, err)
		}
		w.locked = true
	}
	return w, nil
}

// alignSpan computes the page-aligned mmap offset for a physical base that
// need not be page aligned: the offset handed to the kernel is rounded
// down to a page boundary and the lost fraction is added back to every
// in-process access.
func alignSpan(base uint64, length int, page uint64) (offset int64, mapLen, frac int) {
	aligned := base &^ (page - 1)
	frac = int(base - aligned)
	return int64(aligned), frac + length, frac
}

// MapPhys maps length bytes of physical memory at base through /dev/mem.
func MapPhys(base uint64, length int) (*Window, error) {
	f, err := os.OpenFile(devMemPath, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", devMemPath, err)
	}
	defer f.Close()

	offset, mapLen, frac := alignSpan(base, length, uint64(unix.Getpagesize()))
	mem, err := unix.Mmap(int(f.Fd()), offset, mapLen,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s at 0x%x length 0x%x: %w", devMemPath, offset, mapLen, err)
	}

	return &Window{mem: mem, off: frac, size: length, mapped: true}, nil
}

// Wrap exposes an existing buffer as a Window: the caller already owns a
// mapped region and keeps it alive for the Window's lifetime. Close does
// not unmap wrapped memory.
func Wrap(buf []byte) *Window {
	return &Window{mem: buf, size: len(buf)}
}

// Size returns the usable region length in bytes.
func (w *Window) Size() int {
	return w.size
}

func (w *Window) check(off uint64, width int) error {
	if w.mem == nil {
		return fmt.Errorf("window is closed")
	}
	if off%uint64(width) != 0 {
		return fmt.Errorf("offset 0x%x: %d-byte access must be %d-byte aligned", off, width, width)
	}
	if off+uint64(width) > uint64(w.size) {
		return fmt.Errorf("offset 0x%x: outside mapped window of 0x%x bytes", off, w.size)
	}
	return nil
}

// Read32 returns the 32-bit register at off. The load is a single 32-bit
// access; byte-wise copies can tear device registers.
func (w *Window) Read32(off uint64) (uint32, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if err := w.check(off, 4); err != nil {
		return 0, err
	}
	return *(*uint32)(unsafe.Pointer(&w.mem[w.off+int(off)])), nil
}

// Write32 stores val to the 32-bit register at off.
func (w *Window) Write32(off uint64, val uint32) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.check(off, 4); err != nil {
		return err
	}
	*(*uint32)(unsafe.Pointer(&w.mem[w.off+int(off)])) = val
	return nil
}

// Close unlocks and unmaps the window. Idempotent; wrapped buffers are
// only detached, never unmapped.
func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mem == nil {
		return nil
	}
	mem := w.mem
	w.mem = nil
	if !w.mapped {
		return nil
	}
	var err error
	if w.locked {
		err = unix.Munlock(mem)
	}
	if e := unix.Munmap(mem); err == nil {
		err = e
	}
	return err
}
