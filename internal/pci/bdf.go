// Package pci defines PCI/PCIe addressing, the standardized 64-byte header
// schema, header decoding, and BAR classification.
package pci

import (
	"fmt"
	"strings"
)

// BDF represents a PCI Bus:Device.Function address.
type BDF struct {
	Domain   uint16
	Bus      uint8
	Device   uint8
	Function uint8
}

// ParseBDF parses a BDF string in the format "DDDD:BB:DD.F" or "BB:DD.F".
// The parsed address is range-checked: device 0-31, function 0-7.
func ParseBDF(s string) (BDF, error) {
	s = strings.TrimSpace(s)

	var domain, bus, device, function uint32

	// Try full format: DDDD:BB:DD.F
	n, err := fmt.Sscanf(s, "%x:%x:%x.%x", &domain, &bus, &device, &function)
	if err != nil || n != 4 {
		// Try short format: BB:DD.F (domain defaults to 0)
		domain = 0
		n, err = fmt.Sscanf(s, "%x:%x.%x", &bus, &device, &function)
		if err != nil || n != 3 {
			return BDF{}, fmt.Errorf("invalid BDF format %q: expected DDDD:BB:DD.F or BB:DD.F", s)
		}
	}

	if domain > 0xFFFF || bus > 0xFF || device > 0x1F || function > 0x7 {
		return BDF{}, fmt.Errorf("BDF %q out of range: bus 0-ff, device 0-1f, function 0-7", s)
	}

	return BDF{
		Domain:   uint16(domain),
		Bus:      uint8(bus),
		Device:   uint8(device),
		Function: uint8(function),
	}, nil
}

// Validate checks the device and function ranges. The legacy port transport
// rejects invalid locators before issuing any transaction; bus covers the
// full uint8 range so only device and function can be out of range here.
func (b BDF) Validate() error {
	if b.Device > 0x1F {
		return fmt.Errorf("device 0x%02x out of range (0-0x1f)", b.Device)
	}
	if b.Function > 0x7 {
		return fmt.Errorf("function 0x%x out of range (0-7)", b.Function)
	}
	return nil
}

// String returns the canonical BDF representation: "DDDD:BB:DD.F".
func (b BDF) String() string {
	return fmt.Sprintf("%04x:%02x:%02x.%x", b.Domain, b.Bus, b.Device, b.Function)
}

// Short returns the short BDF representation without domain: "BB:DD.F".
func (b BDF) Short() string {
	return fmt.Sprintf("%02x:%02x.%x", b.Bus, b.Device, b.Function)
}

// SysfsPath returns the sysfs path for this device.
func (b BDF) SysfsPath() string {
	return fmt.Sprintf("/sys/bus/pci/devices/%s", b.String())
}
