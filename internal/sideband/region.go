// Package sideband addresses private register communities reachable
// through a P2SB sideband space: a register lives at
// base + portID<<16 + offset.
package sideband

import (
	"github.com/hwprobe/pcisb/internal/mmio"
)

// PortShift positions a port ID inside a sideband address.
const PortShift = 16

// CommunitySize is the register space owned by one port ID.
const CommunitySize = 64 * 1024

// RegionOffset returns the offset of a port's register relative to the
// sideband base.
func RegionOffset(portID uint8, reg uint16) uint64 {
	return uint64(portID)<<PortShift | uint64(reg)
}

// RegionAddress returns the absolute address of a register given the
// sideband base (typically the P2SB SBREG_BAR value).
func RegionAddress(base uint64, portID uint8, reg uint16) uint64 {
	return base + RegionOffset(portID, reg)
}

// Space is a window spanning multiple port communities, mapped at the
// sideband base; the port-ID shift is applied on every access.
type Space struct {
	win *mmio.Window
}

// NewSpace wraps a window covering the sideband base onward.
func NewSpace(w *mmio.Window) *Space {
	return &Space{win: w}
}

// Read32 reads a register in the given port's community.
func (s *Space) Read32(portID uint8, reg uint16) (uint32, error) {
	return s.win.Read32(RegionOffset(portID, reg))
}

// Write32 writes a register in the given port's community.
func (s *Space) Write32(portID uint8, reg uint16, val uint32) error {
	return s.win.Write32(RegionOffset(portID, reg), val)
}

// Close releases the underlying window.
func (s *Space) Close() error {
	return s.win.Close()
}

// Community is a window over exactly one port's 64 KB block. The port-ID
// term is already baked into where the window was mapped, so registers
// are addressed by offset alone.
type Community struct {
	PortID uint8
	win    *mmio.Window
}

// NewCommunity wraps a window the caller already mapped at the port's
// community base.
func NewCommunity(w *mmio.Window, portID uint8) *Community {
	return &Community{PortID: portID, win: w}
}

// OpenCommunity maps one port's community from a PCI resource file whose
// start is the sideband base. The mapping offset portID<<16 is a 64 KB
// multiple and therefore page aligned.
func OpenCommunity(resourcePath string, portID uint8, lock bool) (*Community, error) {
	off := int64(RegionOffset(portID, 0))
	w, err := mmio.MapResource(resourcePath, off, CommunitySize, lock)
	if err != nil {
		return nil, err
	}
	return NewCommunity(w, portID), nil
}

// Read32 reads the register at reg inside the community.
func (c *Community) Read32(reg uint16) (uint32, error) {
	return c.win.Read32(uint64(reg))
}

// Write32 writes the register at reg inside the community.
func (c *Community) Write32(reg uint16, val uint32) error {
	return c.win.Write32(uint64(reg), val)
}

// Close unmaps the community window.
func (c *Community) Close() error {
	return c.win.Close()
}
