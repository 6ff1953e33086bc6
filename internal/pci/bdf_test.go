package pci

import "testing"

func TestParseBDF(t *testing.T) {
	tests := []struct {
		in   string
		want BDF
	}{
		{"0000:03:00.0", BDF{Domain: 0, Bus: 3, Device: 0, Function: 0}},
		{"00:1f.1", BDF{Domain: 0, Bus: 0, Device: 0x1F, Function: 1}},
		{"0001:26:00.7", BDF{Domain: 1, Bus: 0x26, Device: 0, Function: 7}},
		{" 00:1f.1 ", BDF{Domain: 0, Bus: 0, Device: 0x1F, Function: 1}},
	}
	for _, tt := range tests {
		got, err := ParseBDF(tt.in)
		if err != nil {
			t.Errorf("ParseBDF(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBDF(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseBDFInvalid(t *testing.T) {
	for _, in := range []string{"", "nonsense", "00:20.0", "00:1f.8", "zz:00.0"} {
		if _, err := ParseBDF(in); err == nil {
			t.Errorf("ParseBDF(%q): expected error", in)
		}
	}
}

func TestBDFValidate(t *testing.T) {
	if err := (BDF{Bus: 255, Device: 31, Function: 7}).Validate(); err != nil {
		t.Errorf("valid BDF rejected: %v", err)
	}
	if err := (BDF{Device: 32}).Validate(); err == nil {
		t.Error("device 32 accepted")
	}
	if err := (BDF{Function: 8}).Validate(); err == nil {
		t.Error("function 8 accepted")
	}
}

func TestBDFString(t *testing.T) {
	b := BDF{Domain: 0, Bus: 0, Device: 0x1F, Function: 1}
	if b.String() != "0000:00:1f.1" {
		t.Errorf("String() = %q", b.String())
	}
	if b.Short() != "00:1f.1" {
		t.Errorf("Short() = %q", b.Short())
	}
	if b.SysfsPath() != "/sys/bus/pci/devices/0000:00:1f.1" {
		t.Errorf("SysfsPath() = %q", b.SysfsPath())
	}
}
