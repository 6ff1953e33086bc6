package pci

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ConfigSpaceSize is the full PCIe extended config space size (4KB).
const ConfigSpaceSize = 4096

// ConfigSpaceLegacySize is the legacy PCI config space size (256 bytes).
const ConfigSpaceLegacySize = 256

// ConfigSpace is a byte-backed snapshot of a function's configuration
// space, typically read from a sysfs config file. It implements
// ConfigReader so the header decoder runs identically over a snapshot and
// over the live port transport.
type ConfigSpace struct {
	Data [ConfigSpaceSize]byte
	Size int // actual bytes read (64, 256 or 4096)
}

// NewConfigSpace creates an empty ConfigSpace.
func NewConfigSpace() *ConfigSpace {
	return &ConfigSpace{Size: ConfigSpaceSize}
}

// NewConfigSpaceFromBytes creates a ConfigSpace from a byte slice.
func NewConfigSpaceFromBytes(data []byte) *ConfigSpace {
	cs := &ConfigSpace{Size: len(data)}
	copy(cs.Data[:], data)
	return cs
}

// ReadConfigDword implements ConfigReader over the snapshot.
func (cs *ConfigSpace) ReadConfigDword(reg uint8) (uint32, error) {
	if reg&0x3 != 0 {
		return 0, fmt.Errorf("register 0x%02x: dword reads must be 4-byte aligned", reg)
	}
	return cs.ReadU32(int(reg)), nil
}

// Command register bits.
const (
	CommandIOSpace  uint16 = 0x0001
	CommandMemSpace uint16 = 0x0002
)

// VendorID returns the Vendor ID (offset 0x00).
func (cs *ConfigSpace) VendorID() uint16 {
	return cs.ReadU16(0x00)
}

// DeviceID returns the Device ID (offset 0x02).
func (cs *ConfigSpace) DeviceID() uint16 {
	return cs.ReadU16(0x02)
}

// Command returns the Command register (offset 0x04). Bit 1 enables
// memory decoding; a device with it clear ignores BAR accesses.
func (cs *ConfigSpace) Command() uint16 {
	return cs.ReadU16(0x04)
}

// Status returns the Status register (offset 0x06).
func (cs *ConfigSpace) Status() uint16 {
	return cs.ReadU16(0x06)
}

// HeaderType returns the raw Header Type byte (offset 0x0E).
func (cs *ConfigSpace) HeaderType() uint8 {
	return cs.Data[0x0E]
}

// HeaderLayout returns the header layout (low 7 bits of the type byte).
func (cs *ConfigSpace) HeaderLayout() uint8 {
	return cs.HeaderType() & 0x7F
}

// IsMultiFunction returns true if the device is multi-function.
func (cs *ConfigSpace) IsMultiFunction() bool {
	return (cs.HeaderType() & 0x80) != 0
}

// BAR returns the raw Base Address Register value at the given index (0-5).
func (cs *ConfigSpace) BAR(index int) uint32 {
	if index < 0 || index > 5 {
		return 0
	}
	offset := 0x10 + (index * 4)
	return binary.LittleEndian.Uint32(cs.Data[offset : offset+4])
}

// ReadU8 reads a uint8 from the given offset.
func (cs *ConfigSpace) ReadU8(offset int) uint8 {
	if offset < 0 || offset >= ConfigSpaceSize {
		return 0
	}
	return cs.Data[offset]
}

// ReadU16 reads a little-endian uint16 from the given offset.
func (cs *ConfigSpace) ReadU16(offset int) uint16 {
	if offset < 0 || offset+1 >= ConfigSpaceSize {
		return 0
	}
	return binary.LittleEndian.Uint16(cs.Data[offset : offset+2])
}

// ReadU32 reads a little-endian uint32 from the given offset.
func (cs *ConfigSpace) ReadU32(offset int) uint32 {
	if offset < 0 || offset+3 >= ConfigSpaceSize {
		return 0
	}
	return binary.LittleEndian.Uint32(cs.Data[offset : offset+4])
}

// WriteU16 writes a little-endian uint16 at the given offset.
func (cs *ConfigSpace) WriteU16(offset int, val uint16) {
	if offset >= 0 && offset+1 < ConfigSpaceSize {
		binary.LittleEndian.PutUint16(cs.Data[offset:offset+2], val)
	}
}

// WriteU32 writes a little-endian uint32 at the given offset.
func (cs *ConfigSpace) WriteU32(offset int, val uint32) {
	if offset >= 0 && offset+3 < ConfigSpaceSize {
		binary.LittleEndian.PutUint32(cs.Data[offset:offset+4], val)
	}
}

// Bytes returns the actual config space data as a byte slice.
func (cs *ConfigSpace) Bytes() []byte {
	return cs.Data[:cs.Size]
}

// HexDump returns a hex dump of the config space for debugging.
func (cs *ConfigSpace) HexDump(maxBytes int) string {
	if maxBytes <= 0 || maxBytes > cs.Size {
		maxBytes = cs.Size
	}

	var sb strings.Builder
	for i := 0; i < maxBytes; i += 16 {
		fmt.Fprintf(&sb, "%03x: ", i)
		for j := 0; j < 16 && i+j < maxBytes; j++ {
			fmt.Fprintf(&sb, "%02x ", cs.Data[i+j])
			if j == 7 {
				sb.WriteString(" ")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
