package portio

import (
	"fmt"
	"sync"

	"github.com/hwprobe/pcisb/internal/pci"
)

// Legacy PCI configuration-space access ports.
const (
	ConfigAddrPort uint16 = 0xCF8 // index register
	ConfigDataPort uint16 = 0xCFC // data register
	ConfigNumPorts uint   = 8

	configEnable uint32 = 0x80000000
)

// Config is the legacy CF8/CFC configuration-space transport. The index
// and data ports are global hardware state shared by every PCI config
// access in the system, so each index+data pair runs under an exclusive
// lock. A hidden or absent function reads back 0xFFFFFFFF, which is
// indistinguishable from a legitimately all-ones register.
type Config struct {
	mu sync.Mutex
	io PortIO
}

// NewConfig wraps an already-granted port primitive.
func NewConfig(io PortIO) *Config {
	return &Config{io: io}
}

// OpenConfig requests access to the CF8/CFC port range and returns the
// transport. Callers must Close it to release the grant.
func OpenConfig() (*Config, error) {
	io, err := Request(ConfigAddrPort, ConfigNumPorts)
	if err != nil {
		return nil, err
	}
	return NewConfig(io), nil
}

// Close releases the underlying port grant.
func (c *Config) Close() error {
	return c.io.Close()
}

// tag builds the index-port value: bit 31 enable, bits 23:16 bus, 15:11
// device, 10:8 function, 7:0 register masked to its dword-aligned base.
func tag(bdf pci.BDF, reg uint8) uint32 {
	return configEnable |
		uint32(bdf.Bus)<<16 |
		uint32(bdf.Device)<<11 |
		uint32(bdf.Function)<<8 |
		uint32(reg&0xFC)
}

// readAligned performs one locked index+data transaction for the dword
// containing reg.
func (c *Config) readAligned(bdf pci.BDF, reg uint8) (uint32, error) {
	if err := bdf.Validate(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.io.Outl(ConfigAddrPort, tag(bdf, reg)); err != nil {
		return 0, err
	}
	return c.io.Inl(ConfigDataPort)
}

// ReadDword reads the 32-bit config register at reg, which must be 4-byte
// aligned. Reading the same register twice has no side effect.
func (c *Config) ReadDword(bdf pci.BDF, reg uint8) (uint32, error) {
	if reg&0x3 != 0 {
		return 0, fmt.Errorf("register 0x%02x: dword access must be 4-byte aligned", reg)
	}
	return c.readAligned(bdf, reg)
}

// ReadWord reads the 16-bit register at reg; the low address bit selects
// the word inside the aligned dword, no unaligned port transaction is
// issued.
func (c *Config) ReadWord(bdf pci.BDF, reg uint8) (uint16, error) {
	dword, err := c.readAligned(bdf, reg)
	if err != nil {
		return 0, err
	}
	return uint16(dword >> ((reg & 0x2) * 8)), nil
}

// ReadByte reads the 8-bit register at reg from its aligned dword.
func (c *Config) ReadByte(bdf pci.BDF, reg uint8) (uint8, error) {
	dword, err := c.readAligned(bdf, reg)
	if err != nil {
		return 0, err
	}
	return uint8(dword >> ((reg & 0x3) * 8)), nil
}

// WriteDword writes the 32-bit config register at reg (4-byte aligned).
func (c *Config) WriteDword(bdf pci.BDF, reg uint8, val uint32) error {
	if reg&0x3 != 0 {
		return fmt.Errorf("register 0x%02x: dword access must be 4-byte aligned", reg)
	}
	if err := bdf.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.io.Outl(ConfigAddrPort, tag(bdf, reg)); err != nil {
		return err
	}
	return c.io.Outl(ConfigDataPort, val)
}

// WriteWord writes a 16-bit register by read-modify-write of its aligned
// dword, all under one lock hold.
func (c *Config) WriteWord(bdf pci.BDF, reg uint8, val uint16) error {
	shift := uint32(reg&0x2) * 8
	return c.rmw(bdf, reg, uint32(0xFFFF)<<shift, uint32(val)<<shift)
}

// WriteByte writes an 8-bit register by read-modify-write of its aligned
// dword.
func (c *Config) WriteByte(bdf pci.BDF, reg uint8, val uint8) error {
	shift := uint32(reg&0x3) * 8
	return c.rmw(bdf, reg, uint32(0xFF)<<shift, uint32(val)<<shift)
}

func (c *Config) rmw(bdf pci.BDF, reg uint8, mask, bits uint32) error {
	if err := bdf.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	t := tag(bdf, reg)
	if err := c.io.Outl(ConfigAddrPort, t); err != nil {
		return err
	}
	dword, err := c.io.Inl(ConfigDataPort)
	if err != nil {
		return err
	}
	dword = (dword &^ mask) | bits
	if err := c.io.Outl(ConfigAddrPort, t); err != nil {
		return err
	}
	return c.io.Outl(ConfigDataPort, dword)
}

// FuncReader is a Config bound to one function; it satisfies
// pci.ConfigReader for the header decoder.
type FuncReader struct {
	c   *Config
	bdf pci.BDF
}

// Func returns a reader bound to bdf. The locator is validated here,
// before any transaction is issued.
func (c *Config) Func(bdf pci.BDF) (*FuncReader, error) {
	if err := bdf.Validate(); err != nil {
		return nil, err
	}
	return &FuncReader{c: c, bdf: bdf}, nil
}

// ReadConfigDword implements pci.ConfigReader.
func (f *FuncReader) ReadConfigDword(reg uint8) (uint32, error) {
	return f.c.ReadDword(f.bdf, reg)
}
