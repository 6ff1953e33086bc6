package pci

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		bar  uint32
		want BARClass
	}{
		{0x0000E001, BARClass{Space: SpaceIO}},
		{0xFFFFFFFF, BARClass{Space: SpaceIO}}, // all-ones sentinel has bit 0 set
		{0xC2000000, BARClass{Space: SpaceMemory, Width: Width32}},
		{0x00000004, BARClass{Space: SpaceMemory, Width: Width64}},
		{0x0000000C, BARClass{Space: SpaceMemory, Width: Width64, Prefetchable: true}},
		{0xFE000008, BARClass{Space: SpaceMemory, Width: Width32, Prefetchable: true}},
		{0x00000002, BARClass{Space: SpaceMemory, Width: WidthReserved}},
		{0x00000006, BARClass{Space: SpaceMemory, Width: WidthReserved}},
	}

	for _, tt := range tests {
		got := Classify(tt.bar)
		if got != tt.want {
			t.Errorf("Classify(0x%08x) = %+v, want %+v", tt.bar, got, tt.want)
		}
	}
}

func TestCombine64(t *testing.T) {
	tests := []struct {
		bar, barHigh uint32
		want         uint64
	}{
		{0x00000004, 0x000000D0, 0xD000000000}, // C620 P2SB SBREG_BAR
		{0x0000000C, 0x00000001, 0x100000000},
		{0xC200000F, 0x00000000, 0xC2000000}, // low type bits always masked
	}
	for _, tt := range tests {
		if got := Combine64(tt.bar, tt.barHigh); got != tt.want {
			t.Errorf("Combine64(0x%08x, 0x%08x) = 0x%x, want 0x%x",
				tt.bar, tt.barHigh, got, tt.want)
		}
	}
}

func TestParseBARs(t *testing.T) {
	cs := NewConfigSpace()
	cs.WriteU32(0x10, 0xC2000000) // BAR0: 32-bit memory
	cs.WriteU32(0x14, 0x0000E001) // BAR1: I/O
	cs.WriteU32(0x18, 0x0000000C) // BAR2: 64-bit prefetchable memory
	cs.WriteU32(0x1C, 0x00000001) // BAR3: high dword of BAR2
	// BAR4, BAR5: disabled

	bars := ParseBARs(cs)
	if len(bars) != 5 {
		t.Fatalf("got %d BARs, want 5 (64-bit pair consumes two slots)", len(bars))
	}

	if bars[0].Type != BARTypeMem32 || bars[0].Address != 0xC2000000 {
		t.Errorf("BAR0 = %s", bars[0].String())
	}
	if bars[1].Type != BARTypeIO || bars[1].Address != 0xE000 {
		t.Errorf("BAR1 = %s", bars[1].String())
	}
	if bars[2].Type != BARTypeMem64 || !bars[2].Is64Bit || !bars[2].Prefetchable {
		t.Errorf("BAR2 = %s", bars[2].String())
	}
	if bars[2].Address != 0x100000000 {
		t.Errorf("BAR2 address = 0x%x, want 0x100000000", bars[2].Address)
	}

	// The cursor skipped slot 3; the next entry is slot 4.
	if bars[3].Index != 4 {
		t.Errorf("entry after 64-bit pair has index %d, want 4", bars[3].Index)
	}
	if !bars[3].IsDisabled() || !bars[4].IsDisabled() {
		t.Errorf("BAR4/BAR5 should be disabled")
	}
}

func TestParseBARsReservedWidth(t *testing.T) {
	cs := NewConfigSpace()
	cs.WriteU32(0x10, 0x00000002) // bits [2:1] = 01: reserved
	bars := ParseBARs(cs)
	if !bars[0].IsDisabled() {
		t.Errorf("reserved-width BAR0 = %s, want disabled", bars[0].String())
	}
	// Reserved width must not consume the next slot.
	if bars[1].Index != 1 {
		t.Errorf("next entry has index %d, want 1", bars[1].Index)
	}
}

func TestParseBARs64BitInLastSlot(t *testing.T) {
	cs := NewConfigSpace()
	cs.WriteU32(0x24, 0x00000004) // BAR5 claims 64-bit but has no high slot
	bars := ParseBARs(cs)
	last := bars[len(bars)-1]
	if last.Index != 5 || !last.IsDisabled() {
		t.Errorf("BAR5 = %s, want disabled", last.String())
	}
}

func TestParseResourceLines(t *testing.T) {
	lines := []string{
		"0x00000000f7d00000 0x00000000f7dfffff 0x0000000000040200", // BAR0: 1MB memory
		"0x0000000000000000 0x0000000000000000 0x0000000000000000", // BAR1: disabled
		"0x0000000000006001 0x000000000000601f 0x0000000000040101", // BAR2: I/O
		"0x0000000000000000 0x0000000000000000 0x0000000000000000", // BAR3: disabled
		"0x00000000f7c00000 0x00000000f7c3ffff 0x000000000014220c", // BAR4: mem64 prefetch
		"0x0000000000000000 0x0000000000000000 0x0000000000000000", // BAR5: disabled
	}

	bars := ParseResourceLines(lines)
	if len(bars) != 6 {
		t.Fatalf("got %d BARs, want 6", len(bars))
	}

	if bars[0].Type != BARTypeMem32 || bars[0].Size != 0x100000 {
		t.Errorf("BAR0 = %s size 0x%x", bars[0].String(), bars[0].Size)
	}
	if !bars[1].IsDisabled() {
		t.Error("BAR1 should be disabled")
	}
	if bars[2].Type != BARTypeIO {
		t.Errorf("BAR2 = %s, want io", bars[2].String())
	}
	if bars[4].Type != BARTypeMem64 || !bars[4].Prefetchable {
		t.Errorf("BAR4 = %s, want mem64 prefetchable", bars[4].String())
	}
}

func TestBARString(t *testing.T) {
	disabled := BAR{Index: 3, Type: BARTypeDisabled}
	if disabled.String() != "BAR3: [disabled]" {
		t.Errorf("disabled BAR string = %q", disabled.String())
	}

	mem := BAR{Index: 0, Type: BARTypeMem32, Address: 0xC2000000}
	if mem.String() != "BAR0: mem32 at 0xc2000000" {
		t.Errorf("memory BAR string = %q", mem.String())
	}
}
