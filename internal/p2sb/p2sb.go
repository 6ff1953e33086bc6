// Package p2sb drives the Intel C620-family Primary-to-Sideband bridge:
// locating the (normally hidden) PCI function, toggling its visibility and
// memory decoding through the external setpci control surface, and reading
// the sideband base from its configuration space.
package p2sb

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/hwprobe/pcisb/internal/pci"
)

// VendorDeviceID identifies the C620 P2SB function for lspci -n matching.
const VendorDeviceID = "8086:a1a0"

// DefaultBDF is where the P2SB lives on C620 platforms.
var DefaultBDF = pci.BDF{Bus: 0x00, Device: 0x1F, Function: 1}

// P2SB configuration-space registers.
const (
	RegSBRegBar  uint8 = 0x10 // SBREG_BAR, low dword
	RegSBRegBarH uint8 = 0x14 // SBREG_BARH, high dword
	RegCtrl      uint8 = 0xE0 // P2SBC; bit 8 (byte 0xE1 bit 0) hides the function
)

// GPIO community port IDs within the sideband space.
const (
	PortIDGPIOCommunity0 uint8 = 0xAF
	PortIDGPIOCommunity1 uint8 = 0xAE
	PortIDGPIOCommunity2 uint8 = 0xAD
	PortIDGPIOCommunity3 uint8 = 0xAC
)

// GPIO sideband registers, offsets within a community.
const (
	GPIORegPadBar          uint16 = 0x0C
	GPIORegPadOwnership    uint16 = 0x20
	GPIORegHostSWOwnership uint16 = 0x80
	GPIORegNMIEnable       uint16 = 0x178
)

// setpci register arguments. BITS:MASK semantics: the bits selected by
// MASK take the corresponding BITS values.
const (
	setpciHideReg    = "0xE1.B" // P2SBC byte holding the hide bit
	setpciCommandReg = "0x04.B" // command register byte with memory-enable
)

// Control shells out to setpci and lspci; both are consumed as an
// already-available control surface, not reimplemented.
type Control struct {
	run func(name string, args ...string) ([]byte, error)
}

// NewControl returns a Control backed by the real binaries on PATH.
func NewControl() *Control {
	return &Control{
		run: func(name string, args ...string) ([]byte, error) {
			out, err := exec.Command(name, args...).Output()
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
			}
			return out, nil
		},
	}
}

// Locate finds the P2SB function by vendor:device match in lspci -n
// output. lspci only lists the function while it is unhidden.
func (c *Control) Locate() (pci.BDF, error) {
	out, err := c.run("lspci", "-n")
	if err != nil {
		return pci.BDF{}, err
	}
	return ParseLspciBDF(out, VendorDeviceID)
}

// ParseLspciBDF scans `lspci -n` output for a line whose vendor:device
// column matches id and returns its BDF. Lines look like:
//
//	00:1f.1 0580: 8086:a1a0 (rev ff)
func ParseLspciBDF(out []byte, id string) (pci.BDF, error) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			continue
		}
		if !strings.EqualFold(fields[2], id) {
			continue
		}
		bdf, err := pci.ParseBDF(fields[0])
		if err != nil {
			return pci.BDF{}, fmt.Errorf("lspci line %q: %w", sc.Text(), err)
		}
		return bdf, nil
	}
	return pci.BDF{}, fmt.Errorf("device %s not found in lspci output (hidden?)", id)
}

func (c *Control) setpci(bdf pci.BDF, arg string) error {
	_, err := c.run("setpci", "-s", bdf.Short(), arg)
	return err
}

// Unhide clears the hide bit so the function answers configuration reads.
func (c *Control) Unhide(bdf pci.BDF) error {
	return c.setpci(bdf, setpciHideReg+"=00:01")
}

// Hide sets the hide bit; every configuration read of the function then
// returns 0xFFFFFFFF.
func (c *Control) Hide(bdf pci.BDF) error {
	return c.setpci(bdf, setpciHideReg+"=01:01")
}

// EnableMemSpace sets the command-register memory-enable bit so the
// SBREG_BAR region decodes.
func (c *Control) EnableMemSpace(bdf pci.BDF) error {
	return c.setpci(bdf, setpciCommandReg+"=02:02")
}

// DisableMemSpace clears the memory-enable bit.
func (c *Control) DisableMemSpace(bdf pci.BDF) error {
	return c.setpci(bdf, setpciCommandReg+"=00:02")
}

// Config is the slice of the configuration transport ReadBase needs.
type Config interface {
	ReadDword(bdf pci.BDF, reg uint8) (uint32, error)
}

// ReadBase reads SBREG_BAR/SBREG_BARH and returns the sideband base
// address. The BAR must classify as a memory BAR; on C620 it is 64-bit
// (base 0xD000000000 in practice). A hidden function reads 0xFFFFFFFF,
// which classifies as I/O space and is rejected here.
func ReadBase(c Config, bdf pci.BDF) (uint64, error) {
	bar, err := c.ReadDword(bdf, RegSBRegBar)
	if err != nil {
		return 0, err
	}
	cl := pci.Classify(bar)
	if cl.Space != pci.SpaceMemory {
		return 0, fmt.Errorf("SBREG_BAR 0x%08x is not a memory BAR (function hidden?)", bar)
	}
	if cl.Width != pci.Width64 {
		return 0, fmt.Errorf("SBREG_BAR 0x%08x: expected a 64-bit memory BAR", bar)
	}
	barh, err := c.ReadDword(bdf, RegSBRegBarH)
	if err != nil {
		return 0, err
	}
	return pci.Combine64(bar, barh), nil
}
