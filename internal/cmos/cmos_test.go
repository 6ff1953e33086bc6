package cmos

import "testing"

// fakePorts models the two indexed bank pairs: a byte written to an index
// port latches the register for the matching data port.
type fakePorts struct {
	index [NumBanks]uint8
	regs  [NumBanks][256]uint8
}

func (f *fakePorts) bank(port uint16) (int, bool) {
	switch port {
	case Bank0IndexPort, Bank0DataPort:
		return 0, port == Bank0IndexPort
	case Bank1IndexPort, Bank1DataPort:
		return 1, port == Bank1IndexPort
	}
	panic("port outside CMOS range")
}

func (f *fakePorts) Inb(port uint16) (uint8, error) {
	bank, isIndex := f.bank(port)
	if isIndex {
		return f.index[bank], nil
	}
	return f.regs[bank][f.index[bank]], nil
}

func (f *fakePorts) Outb(port uint16, val uint8) error {
	bank, isIndex := f.bank(port)
	if isIndex {
		f.index[bank] = val
	} else {
		f.regs[bank][f.index[bank]] = val
	}
	return nil
}

func (f *fakePorts) Inl(port uint16) (uint32, error)    { panic("dword access to byte ports") }
func (f *fakePorts) Outl(port uint16, val uint32) error { panic("dword access to byte ports") }
func (f *fakePorts) Close() error                       { return nil }

func TestReadWrite(t *testing.T) {
	f := &fakePorts{}
	f.regs[0][0x0E] = 0x80 // diagnostic status
	f.regs[1][0x40] = 0x5A

	b := New(f)

	v, err := b.Read(0, 0x0E)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x80 {
		t.Errorf("Read(0, 0x0E) = 0x%02x, want 0x80", v)
	}

	v, err = b.Read(1, 0x40)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x5A {
		t.Errorf("Read(1, 0x40) = 0x%02x, want 0x5a", v)
	}

	if err := b.Write(1, 0x41, 0xA5); err != nil {
		t.Fatal(err)
	}
	if f.regs[1][0x41] != 0xA5 {
		t.Errorf("bank 1 reg 0x41 = 0x%02x, want 0xa5", f.regs[1][0x41])
	}
	// The neighbouring bank is untouched.
	if f.regs[0][0x41] != 0 {
		t.Errorf("bank 0 reg 0x41 = 0x%02x, want 0", f.regs[0][0x41])
	}
}

func TestBankValidation(t *testing.T) {
	b := New(&fakePorts{})
	if _, err := b.Read(2, 0x00); err == nil {
		t.Error("bank 2 read accepted")
	}
	if err := b.Write(-1, 0x00, 0); err == nil {
		t.Error("bank -1 write accepted")
	}
}
