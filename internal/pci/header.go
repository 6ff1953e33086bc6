package pci

import "fmt"

// Header layouts reported in the low 7 bits of the header-type byte (0x0E).
const (
	HeaderLayoutEndpoint uint8 = 0 // Type 0: endpoints
	HeaderLayoutBridge   uint8 = 1 // Type 1: root complexes, switches, bridges
)

// HeaderSize is the standardized portion of configuration space that the
// field tables describe. The remainder of the 256-byte legacy space is
// vendor-defined.
const HeaderSize = 0x40

// endWidth is the sentinel width of the table terminator at offset
// HeaderSize. It is never a real field width and must not be decoded.
const endWidth = 5

// HeaderField describes one named bitfield of a standardized PCI header.
type HeaderField struct {
	Name   string
	Offset uint8 // byte offset into configuration space
	Width  uint8 // byte width, 1-4 (endWidth marks the terminator)
}

// Type 0 (endpoint) header. The entries tile [0x00, 0x40) exactly; the
// decoder relies on that to walk the table in step with the dword reads.
var type0Fields = []HeaderField{
	{"Vendor ID", 0x00, 2},
	{"Device ID", 0x02, 2},
	{"Command", 0x04, 2},
	{"Status", 0x06, 2},
	{"Revision ID", 0x08, 1},
	{"Class Code", 0x09, 3},
	{"Cache Line S", 0x0C, 1},
	{"Lat. Timer", 0x0D, 1},
	{"Header Type", 0x0E, 1},
	{"BIST", 0x0F, 1},
	{"BAR 0", 0x10, 4},
	{"BAR 1", 0x14, 4},
	{"BAR 2", 0x18, 4},
	{"BAR 3", 0x1C, 4},
	{"BAR 4", 0x20, 4},
	{"BAR 5", 0x24, 4},
	{"Cardbus CIS Pointer", 0x28, 4},
	{"Subsystem Vendor ID", 0x2C, 2},
	{"Subsystem ID", 0x2E, 2},
	{"Expansion ROM Address", 0x30, 4},
	{"Cap. Pointer", 0x34, 1},
	{"Reserved", 0x35, 3},
	{"Reserved", 0x38, 4},
	{"IRQ Line", 0x3C, 1},
	{"IRQ Pin", 0x3D, 1},
	{"Min Gnt.", 0x3E, 1},
	{"Max Lat.", 0x3F, 1},
	{"End", HeaderSize, endWidth},
}

// Type 1 (PCI-to-PCI bridge) header.
var type1Fields = []HeaderField{
	{"Vendor ID", 0x00, 2},
	{"Device ID", 0x02, 2},
	{"Command", 0x04, 2},
	{"Status", 0x06, 2},
	{"Revision ID", 0x08, 1},
	{"Class Code", 0x09, 3},
	{"Cache Line S", 0x0C, 1},
	{"Lat. Timer", 0x0D, 1},
	{"Header Type", 0x0E, 1},
	{"BIST", 0x0F, 1},
	{"BAR 0", 0x10, 4},
	{"BAR 1", 0x14, 4},
	{"Primary Bus", 0x18, 1},
	{"Secondary Bus", 0x19, 1},
	{"Sub. Bus", 0x1A, 1},
	{"Sec Lat Timer", 0x1B, 1},
	{"IO Base", 0x1C, 1},
	{"IO Limit", 0x1D, 1},
	{"Sec. Status", 0x1E, 2},
	{"Memory Base", 0x20, 2},
	{"Memory Limit", 0x22, 2},
	{"Pref. Memory Base", 0x24, 2},
	{"Pref. Memory Limit", 0x26, 2},
	{"Pref. Base Upper", 0x28, 4},
	{"Pref. Limit Upper", 0x2C, 4},
	{"IO Base Upper", 0x30, 2},
	{"IO Limit Upper", 0x32, 2},
	{"Cap. Pointer", 0x34, 1},
	{"Reserved", 0x35, 3},
	{"Exp. ROM Base Addr", 0x38, 4},
	{"IRQ Line", 0x3C, 1},
	{"IRQ Pin", 0x3D, 1},
	{"Min Gnt.", 0x3E, 1},
	{"Max Lat.", 0x3F, 1},
	{"End", HeaderSize, endWidth},
}

var headerTables = [2][]HeaderField{type0Fields, type1Fields}

// UnknownHeaderTypeError reports a header-type byte outside {0, 1}. A
// hidden or disabled function typically reads back 0xFF here.
type UnknownHeaderTypeError struct {
	Raw uint8 // header-type byte as read, before masking
}

func (e *UnknownHeaderTypeError) Error() string {
	return fmt.Sprintf("unknown PCI header type 0x%02x", e.Raw)
}

// HeaderFields returns the field schema for the given header layout (0 or
// 1), including the trailing "End" terminator.
func HeaderFields(layout uint8) ([]HeaderField, error) {
	if layout != HeaderLayoutEndpoint && layout != HeaderLayoutBridge {
		return nil, &UnknownHeaderTypeError{Raw: layout}
	}
	return headerTables[layout], nil
}

// LayoutName returns a display name for a header layout.
func LayoutName(layout uint8) string {
	switch layout {
	case HeaderLayoutEndpoint:
		return "Endpoint"
	case HeaderLayoutBridge:
		return "Bridge"
	}
	return fmt.Sprintf("Unknown (0x%02x)", layout)
}
