// Package cmos reads and writes the RTC CMOS banks through their indexed
// port pairs: select a register on the index port, then move a byte
// through the data port.
package cmos

import (
	"fmt"
	"sync"

	"github.com/hwprobe/pcisb/internal/portio"
)

// Indexed port pairs for the two CMOS banks.
const (
	Bank0IndexPort uint16 = 0x70
	Bank0DataPort  uint16 = 0x71
	Bank1IndexPort uint16 = 0x72
	Bank1DataPort  uint16 = 0x73

	numPorts uint = 4
)

// NumBanks is the number of addressable CMOS banks.
const NumBanks = 2

// Banks is the CMOS transport. Each index+data transaction runs under an
// exclusive lock: the index port is shared hardware state, and bank 0's
// index register doubles as the NMI-disable latch.
type Banks struct {
	mu sync.Mutex
	io portio.PortIO
}

// New wraps an already-granted port primitive covering ports 0x70-0x73.
func New(io portio.PortIO) *Banks {
	return &Banks{io: io}
}

// Open requests access to the CMOS port range. Callers must Close to
// release the grant.
func Open() (*Banks, error) {
	io, err := portio.Request(Bank0IndexPort, numPorts)
	if err != nil {
		return nil, err
	}
	return New(io), nil
}

// Close releases the underlying port grant.
func (b *Banks) Close() error {
	return b.io.Close()
}

func bankPorts(bank int) (index, data uint16, err error) {
	switch bank {
	case 0:
		return Bank0IndexPort, Bank0DataPort, nil
	case 1:
		return Bank1IndexPort, Bank1DataPort, nil
	}
	return 0, 0, fmt.Errorf("bank %d: must be 0 or 1", bank)
}

// Read returns the byte at reg in the given bank.
func (b *Banks) Read(bank int, reg uint8) (uint8, error) {
	index, data, err := bankPorts(bank)
	if err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.io.Outb(index, reg); err != nil {
		return 0, err
	}
	return b.io.Inb(data)
}

// Write stores val at reg in the given bank.
func (b *Banks) Write(bank int, reg uint8, val uint8) error {
	index, data, err := bankPorts(bank)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.io.Outb(index, reg); err != nil {
		return err
	}
	return b.io.Outb(data, val)
}
