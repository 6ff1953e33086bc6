package portio

import (
	"strings"
	"testing"

	"github.com/hwprobe/pcisb/internal/pci"
)

// fakePorts emulates the CF8/CFC protocol: Outl to the index port latches
// an address, Inl/Outl on the data port access a per-tag register file.
// Unknown tags read back all ones, like a hidden or absent function.
type fakePorts struct {
	addr   uint32
	regs   map[uint32]uint32
	ops    int
	closed bool
}

func newFakePorts() *fakePorts {
	return &fakePorts{regs: make(map[uint32]uint32)}
}

func (f *fakePorts) set(bdf pci.BDF, reg uint8, val uint32) {
	f.regs[tag(bdf, reg)] = val
}

func (f *fakePorts) Outl(port uint16, val uint32) error {
	f.ops++
	switch port {
	case ConfigAddrPort:
		f.addr = val
	case ConfigDataPort:
		f.regs[f.addr] = val
	}
	return nil
}

func (f *fakePorts) Inl(port uint16) (uint32, error) {
	f.ops++
	if port != ConfigDataPort {
		return 0, nil
	}
	if v, ok := f.regs[f.addr]; ok {
		return v, nil
	}
	return 0xFFFFFFFF, nil
}

func (f *fakePorts) Inb(port uint16) (uint8, error) { f.ops++; return 0, nil }

func (f *fakePorts) Outb(port uint16, val uint8) error { f.ops++; return nil }

func (f *fakePorts) Close() error { f.closed = true; return nil }

func TestTagLayout(t *testing.T) {
	// 3:2:5 register 0x40, the worked example from the CF8 protocol:
	// 1000 0000 BBBB BBBB DDDD DFFF RRRR RRRR.
	got := tag(pci.BDF{Bus: 3, Device: 2, Function: 5}, 0x40)
	if got != 0x80031540 {
		t.Errorf("tag(3:2.5, 0x40) = 0x%08x, want 0x80031540", got)
	}

	// Unaligned registers are masked to their dword base.
	if tag(pci.BDF{}, 0x0E) != tag(pci.BDF{}, 0x0C) {
		t.Error("tag should mask the register to its aligned base")
	}
}

func TestReadDword(t *testing.T) {
	fp := newFakePorts()
	bdf := pci.BDF{Bus: 0, Device: 0x1F, Function: 1}
	fp.set(bdf, 0x00, 0xA1A08086)
	c := NewConfig(fp)

	v, err := c.ReadDword(bdf, 0x00)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0xA1A08086 {
		t.Errorf("ReadDword = 0x%08x, want 0xa1a08086", v)
	}

	// Reads are idempotent.
	v2, err := c.ReadDword(bdf, 0x00)
	if err != nil {
		t.Fatal(err)
	}
	if v2 != v {
		t.Errorf("second read = 0x%08x, want 0x%08x", v2, v)
	}
}

func TestReadDwordUnaligned(t *testing.T) {
	fp := newFakePorts()
	c := NewConfig(fp)
	_, err := c.ReadDword(pci.BDF{}, 0x0E)
	if err == nil {
		t.Fatal("unaligned dword read accepted")
	}
	if !strings.Contains(err.Error(), "aligned") {
		t.Errorf("error = %v, want alignment complaint", err)
	}
	if fp.ops != 0 {
		t.Errorf("%d port operations issued for rejected read", fp.ops)
	}
}

func TestReadSubWidths(t *testing.T) {
	fp := newFakePorts()
	bdf := pci.BDF{Bus: 0x26}
	// Dword at 0x0C: cache line 0x08, latency 0x00, header type 0x01, BIST 0x00.
	fp.set(bdf, 0x0C, 0x00010008)
	c := NewConfig(fp)

	b, err := c.ReadByte(bdf, 0x0E)
	if err != nil {
		t.Fatal(err)
	}
	if b != 0x01 {
		t.Errorf("ReadByte(0x0E) = 0x%02x, want 0x01", b)
	}

	w, err := c.ReadWord(bdf, 0x0E)
	if err != nil {
		t.Fatal(err)
	}
	if w != 0x0001 {
		t.Errorf("ReadWord(0x0E) = 0x%04x, want 0x0001", w)
	}

	b0, err := c.ReadByte(bdf, 0x0C)
	if err != nil {
		t.Fatal(err)
	}
	if b0 != 0x08 {
		t.Errorf("ReadByte(0x0C) = 0x%02x, want 0x08", b0)
	}
}

func TestInvalidLocatorRejectedBeforeIO(t *testing.T) {
	fp := newFakePorts()
	c := NewConfig(fp)

	if _, err := c.ReadDword(pci.BDF{Device: 32}, 0x00); err == nil {
		t.Error("device 32 accepted")
	}
	if _, err := c.ReadByte(pci.BDF{Function: 8}, 0x00); err == nil {
		t.Error("function 8 accepted")
	}
	if _, err := c.Func(pci.BDF{Device: 0xFF}); err == nil {
		t.Error("Func accepted invalid locator")
	}
	if fp.ops != 0 {
		t.Errorf("%d port operations issued for invalid locators", fp.ops)
	}
}

func TestHiddenFunctionReadsAllOnes(t *testing.T) {
	fp := newFakePorts()
	c := NewConfig(fp)

	// Nothing registered at this BDF: every register reads the sentinel.
	for _, reg := range []uint8{0x00, 0x10, 0xE0} {
		v, err := c.ReadDword(pci.BDF{Bus: 0, Device: 0x1F, Function: 1}, reg)
		if err != nil {
			t.Fatal(err)
		}
		if v != 0xFFFFFFFF {
			t.Errorf("reg 0x%02x = 0x%08x, want 0xffffffff", reg, v)
		}
	}
}

func TestWriteDword(t *testing.T) {
	fp := newFakePorts()
	bdf := pci.BDF{Bus: 1}
	c := NewConfig(fp)

	if err := c.WriteDword(bdf, 0x10, 0xC2000000); err != nil {
		t.Fatal(err)
	}
	v, err := c.ReadDword(bdf, 0x10)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0xC2000000 {
		t.Errorf("readback = 0x%08x, want 0xc2000000", v)
	}

	if err := c.WriteDword(bdf, 0x11, 0); err == nil {
		t.Error("unaligned dword write accepted")
	}
}

func TestWriteByteRMW(t *testing.T) {
	fp := newFakePorts()
	bdf := pci.BDF{}
	fp.set(bdf, 0xE0, 0x00000100) // hide bit set in byte 0xE1
	c := NewConfig(fp)

	if err := c.WriteByte(bdf, 0xE1, 0x00); err != nil {
		t.Fatal(err)
	}
	v, err := c.ReadDword(bdf, 0xE0)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x00000000 {
		t.Errorf("dword after byte write = 0x%08x, want 0", v)
	}

	// Neighboring bytes survive a word write.
	fp.set(bdf, 0x04, 0xAABBCCDD)
	if err := c.WriteWord(bdf, 0x06, 0x1122); err != nil {
		t.Fatal(err)
	}
	v, _ = c.ReadDword(bdf, 0x04)
	if v != 0x1122CCDD {
		t.Errorf("dword after word write = 0x%08x, want 0x1122ccdd", v)
	}
}

func TestFuncReader(t *testing.T) {
	fp := newFakePorts()
	bdf := pci.BDF{Bus: 0x26}
	fp.set(bdf, 0x00, 0x100910B5)
	fp.set(bdf, 0x0C, 0x00000000)
	c := NewConfig(fp)

	fr, err := c.Func(bdf)
	if err != nil {
		t.Fatal(err)
	}
	dump, err := pci.DecodeHeader(fr)
	if err != nil {
		t.Fatal(err)
	}
	if got := dump.Rows[0][0].Hex; got != "0x10B5" {
		t.Errorf("Vendor ID = %s, want 0x10B5", got)
	}
}
