package pci

import "fmt"

// ConfigReader issues dword-aligned reads from one function's configuration
// space. Implemented by the legacy port transport and by ConfigSpace for
// sysfs-backed decoding.
type ConfigReader interface {
	ReadConfigDword(reg uint8) (uint32, error)
}

// FieldValue is one decoded header field together with its value rendered
// as a hex string zero-padded to 2*Width digits.
type FieldValue struct {
	HeaderField
	Value uint32
	Hex   string
}

// HeaderDump is a decoded 64-byte standardized header. Rows holds the
// fields grouped by dword-aligned offset (Rows[n] covers offsets
// [4n, 4n+4)); field order within and across rows follows the schema table.
type HeaderDump struct {
	Layout uint8
	Rows   [][]FieldValue
}

// Fields returns all decoded fields flattened in schema order.
func (d *HeaderDump) Fields() []FieldValue {
	var out []FieldValue
	for _, row := range d.Rows {
		out = append(out, row...)
	}
	return out
}

// DecodeHeader reads and decodes the first 0x40 bytes of a function's
// configuration space. Each dword-aligned offset is read exactly once. A
// header-type byte outside {0, 1} aborts with UnknownHeaderTypeError before
// any field is emitted; the low 7 bits select the layout, bit 7 is the
// multi-function flag.
func DecodeHeader(r ConfigReader) (*HeaderDump, error) {
	// Probe the header type first; the dword at 0x0C is reused below so
	// the probe does not cost a second read of the same offset.
	typeDword, err := r.ReadConfigDword(0x0C)
	if err != nil {
		return nil, fmt.Errorf("reading header type: %w", err)
	}
	rawType := uint8(typeDword >> 16) // byte 0x0E
	layout := rawType & 0x7F
	fields, err := HeaderFields(layout)
	if err != nil {
		return nil, &UnknownHeaderTypeError{Raw: rawType}
	}

	dump := &HeaderDump{Layout: layout}
	idx := 0
	for i := 0; i < HeaderSize; i += 4 {
		off := uint8(i)
		dword := typeDword
		if off != 0x0C {
			dword, err = r.ReadConfigDword(off)
			if err != nil {
				return nil, fmt.Errorf("reading config dword 0x%02x: %w", off, err)
			}
		}

		row := make([]FieldValue, 0, 4)
		for idx < len(fields) && fields[idx].Offset < off+4 {
			f := fields[idx]
			if f.Width == endWidth {
				// Table terminator, not a value.
				break
			}
			shift := 8 * uint(f.Offset-off)
			mask := (uint64(1)<<(8*uint(f.Width)) - 1) << shift
			v := uint32((uint64(dword) & mask) >> shift)
			row = append(row, FieldValue{
				HeaderField: f,
				Value:       v,
				Hex:         fmt.Sprintf("0x%0*X", int(f.Width)*2, v),
			})
			idx++
		}
		dump.Rows = append(dump.Rows, row)
	}

	return dump, nil
}
