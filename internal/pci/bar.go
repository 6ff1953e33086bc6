package pci

import "fmt"

// BARSpace is the address space a BAR decodes into.
type BARSpace int

const (
	SpaceMemory BARSpace = iota
	SpaceIO
)

// BARWidth is the address width of a memory-space BAR.
type BARWidth int

const (
	Width32 BARWidth = iota
	Width64
	WidthReserved // bits [2:1] = 01 or 11
)

// BARClass is the decoded type information of a raw BAR value.
type BARClass struct {
	Space        BARSpace
	Width        BARWidth
	Prefetchable bool // meaningful only for memory space
}

// Classify decodes a raw 32-bit BAR value. Memory space iff bit 0 is
// clear; for memory space, bits [2:1] select 32-bit (00) or 64-bit (10)
// decoding and bit 3 is the prefetchable flag. Classify performs no I/O.
func Classify(bar uint32) BARClass {
	if bar&0x1 != 0 {
		return BARClass{Space: SpaceIO}
	}
	c := BARClass{Space: SpaceMemory, Prefetchable: bar&0x8 != 0}
	switch (bar >> 1) & 0x3 {
	case 0x0:
		c.Width = Width32
	case 0x2:
		c.Width = Width64
	default:
		c.Width = WidthReserved
	}
	return c
}

// Combine64 assembles a 64-bit base address from a BAR pair. The low BAR's
// bottom four type bits are always masked off. Callers must Classify the
// low BAR first: combining an I/O-space or 32-bit BAR with its neighbor
// yields a meaningless address.
func Combine64(bar, barHigh uint32) uint64 {
	return uint64(barHigh)<<32 | uint64(bar&0xFFFFFFF0)
}

// BAR type constants
const (
	BARTypeIO       = "io"
	BARTypeMem32    = "mem32"
	BARTypeMem64    = "mem64"
	BARTypeDisabled = "disabled"
)

// BAR represents a decoded PCI Base Address Register.
type BAR struct {
	Index        int
	RawValue     uint32
	Address      uint64
	Size         uint64 // known only when read from a sysfs resource file
	Type         string // "io", "mem32", "mem64", "disabled"
	Prefetchable bool
	Is64Bit      bool
}

// IsIO returns true if this is an I/O BAR.
func (b *BAR) IsIO() bool {
	return b.Type == BARTypeIO
}

// IsMemory returns true if this is a memory BAR.
func (b *BAR) IsMemory() bool {
	return b.Type == BARTypeMem32 || b.Type == BARTypeMem64
}

// IsDisabled returns true if this BAR is disabled.
func (b *BAR) IsDisabled() bool {
	return b.Type == BARTypeDisabled
}

// SizeHuman returns the BAR size in human-readable format.
func (b *BAR) SizeHuman() string {
	switch {
	case b.Size == 0:
		return "-"
	case b.Size >= 1<<30:
		return fmt.Sprintf("%d GB", b.Size>>30)
	case b.Size >= 1<<20:
		return fmt.Sprintf("%d MB", b.Size>>20)
	case b.Size >= 1<<10:
		return fmt.Sprintf("%d KB", b.Size>>10)
	}
	return fmt.Sprintf("%d B", b.Size)
}

// String returns a summary of the BAR for display.
func (b *BAR) String() string {
	if b.IsDisabled() {
		return fmt.Sprintf("BAR%d: [disabled]", b.Index)
	}
	pf := ""
	if b.Prefetchable {
		pf = " [prefetchable]"
	}
	return fmt.Sprintf("BAR%d: %s at 0x%x%s", b.Index, b.Type, b.Address, pf)
}

// ParseBARs decodes the six Type-0 BAR slots from a config space. The slot
// cursor advances by two when a slot classifies as a 64-bit BAR (its
// neighbor holds the high address dword), otherwise by one; the high slot
// of a 64-bit pair produces no entry of its own. Sizes cannot be
// determined from config space alone; use a sysfs resource file for sizes.
func ParseBARs(cs *ConfigSpace) []BAR {
	var bars []BAR

	for i := 0; i < 6; {
		raw := cs.BAR(i)
		bar := BAR{Index: i, RawValue: raw}
		stride := 1

		if raw == 0 {
			bar.Type = BARTypeDisabled
		} else {
			c := Classify(raw)
			switch {
			case c.Space == SpaceIO:
				bar.Type = BARTypeIO
				bar.Address = uint64(raw & 0xFFFFFFFC)
			case c.Width == Width32:
				bar.Type = BARTypeMem32
				bar.Prefetchable = c.Prefetchable
				bar.Address = uint64(raw & 0xFFFFFFF0)
			case c.Width == Width64 && i < 5:
				bar.Type = BARTypeMem64
				bar.Prefetchable = c.Prefetchable
				bar.Is64Bit = true
				bar.Address = Combine64(raw, cs.BAR(i+1))
				stride = 2
			default:
				// Reserved width encoding, or a 64-bit BAR in the
				// last slot with no room for its high dword.
				bar.Type = BARTypeDisabled
			}
		}

		bars = append(bars, bar)
		i += stride
	}

	return bars
}

// Resource-file flag bits, from the kernel's IORESOURCE_* values.
const (
	resourceIO       = 0x0100
	resourceMem64    = 0x0010_0000
	resourcePrefetch = 0x2000
)

// ParseResourceLines parses BAR information from sysfs resource lines.
// Each line has the format "start end flags".
func ParseResourceLines(lines []string) []BAR {
	var bars []BAR

	for i := 0; i < 6 && i < len(lines); i++ {
		var start, end, flags uint64
		n, _ := fmt.Sscanf(lines[i], "0x%x 0x%x 0x%x", &start, &end, &flags)
		if n != 3 {
			n, _ = fmt.Sscanf(lines[i], "%x %x %x", &start, &end, &flags)
			if n != 3 {
				continue
			}
		}

		bar := BAR{Index: i}

		if start == 0 && end == 0 {
			bar.Type = BARTypeDisabled
		} else {
			bar.Address = start
			bar.Size = end - start + 1

			switch {
			case flags&resourceIO != 0:
				bar.Type = BARTypeIO
			case flags&resourceMem64 != 0:
				bar.Type = BARTypeMem64
				bar.Is64Bit = true
				bar.Prefetchable = flags&resourcePrefetch != 0
			default:
				bar.Type = BARTypeMem32
				bar.Prefetchable = flags&resourcePrefetch != 0
			}
		}

		bars = append(bars, bar)
	}

	return bars
}
