// Package portio provides raw x86 I/O-port access and the legacy CF8/CFC
// PCI configuration-space transport built on top of it.
package portio

import (
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// PortIO is the raw port primitive set. The production implementation goes
// through /dev/port after an ioperm grant; tests substitute an in-memory
// fake.
type PortIO interface {
	Inb(port uint16) (uint8, error)
	Outb(port uint16, val uint8) error
	Inl(port uint16) (uint32, error)
	Outl(port uint16, val uint32) error
	Close() error
}

const devPortPath = "/dev/port"

// devPorts accesses a granted port range through /dev/port. The kernel
// performs the port transaction for each positioned read/write.
type devPorts struct {
	f    *os.File
	base uint16
	num  uint
}

// Request raises the I/O privilege level, grants access to num ports
// starting at base, and opens /dev/port. Requires root. The grant is
// released by Close; accesses outside the granted range are rejected
// before touching hardware.
func Request(base uint16, num uint) (PortIO, error) {
	if err := unix.Iopl(3); err != nil {
		return nil, fmt.Errorf("raising I/O privilege level: %w", err)
	}
	if err := unix.Ioperm(int(base), int(num), 1); err != nil {
		return nil, fmt.Errorf("requesting access to ports 0x%x-0x%x: %w", base, uint(base)+num-1, err)
	}
	f, err := os.OpenFile(devPortPath, os.O_RDWR, 0)
	if err != nil {
		unix.Ioperm(int(base), int(num), 0)
		unix.Iopl(0)
		return nil, fmt.Errorf("opening %s: %w", devPortPath, err)
	}
	return &devPorts{f: f, base: base, num: num}, nil
}

func (p *devPorts) check(port uint16, width uint) error {
	if p.f == nil {
		return fmt.Errorf("port range released")
	}
	if port < p.base || uint(port)+width > uint(p.base)+p.num {
		return fmt.Errorf("port 0x%x outside granted range 0x%x-0x%x",
			port, p.base, uint(p.base)+p.num-1)
	}
	return nil
}

func (p *devPorts) Inb(port uint16) (uint8, error) {
	if err := p.check(port, 1); err != nil {
		return 0, err
	}
	var b [1]byte
	if _, err := p.f.ReadAt(b[:], int64(port)); err != nil {
		return 0, fmt.Errorf("inb 0x%x: %w", port, err)
	}
	return b[0], nil
}

func (p *devPorts) Outb(port uint16, val uint8) error {
	if err := p.check(port, 1); err != nil {
		return err
	}
	if _, err := p.f.WriteAt([]byte{val}, int64(port)); err != nil {
		return fmt.Errorf("outb 0x%x: %w", port, err)
	}
	return nil
}

func (p *devPorts) Inl(port uint16) (uint32, error) {
	if err := p.check(port, 4); err != nil {
		return 0, err
	}
	var b [4]byte
	if _, err := p.f.ReadAt(b[:], int64(port)); err != nil {
		return 0, fmt.Errorf("inl 0x%x: %w", port, err)
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (p *devPorts) Outl(port uint16, val uint32) error {
	if err := p.check(port, 4); err != nil {
		return err
	}
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], val)
	if _, err := p.f.WriteAt(b[:], int64(port)); err != nil {
		return fmt.Errorf("outl 0x%x: %w", port, err)
	}
	return nil
}

// Close releases the port grant and drops the privilege level. Safe to
// call once per Request.
func (p *devPorts) Close() error {
	if p.f == nil {
		return nil
	}
	err := p.f.Close()
	p.f = nil
	if e := unix.Ioperm(int(p.base), int(p.num), 0); err == nil {
		err = e
	}
	if e := unix.Iopl(0); err == nil {
		err = e
	}
	return err
}
