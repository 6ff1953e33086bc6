package main

import (
	"fmt"

	"github.com/hwprobe/pcisb/internal/mmio"
	"github.com/hwprobe/pcisb/internal/sideband"
	"github.com/spf13/cobra"
)

var (
	sbResource string
	sbPhys     uint64
	sbPort     uint8
	sbOffset   uint16
	sbValue    uint32
	sbLock     bool
)

var sidebandCmd = &cobra.Command{
	Use:   "sideband",
	Short: "Read or write a sideband register",
	Long: `Accesses one register of a sideband port community. The register lives
at base + portID<<16 + offset; the base comes either from a PCI resource
file (--resource, only the 64 KB community is mapped) or from a physical
address via /dev/mem (--phys, typically the P2SB SBREG_BAR value).

With --value the register is written, otherwise it is read.

Example:
  pcisb sideband --resource /sys/bus/pci/devices/0000:00:1f.1/resource0 --port 0xAE --offset 0x20
  pcisb sideband --phys 0xd000000000 --port 0xAF --offset 0x0C`,
	RunE: func(cmd *cobra.Command, args []string) error {
		read32, write32, cleanup, err := openSideband()
		if err != nil {
			return err
		}
		defer cleanup()

		if cmd.Flags().Changed("value") {
			if err := write32(sbValue); err != nil {
				return err
			}
			fmt.Printf("port 0x%02X reg 0x%X <- 0x%08X\n", sbPort, sbOffset, sbValue)
			return nil
		}

		v, err := read32()
		if err != nil {
			return err
		}
		fmt.Printf("port 0x%02X reg 0x%X = 0x%08X\n", sbPort, sbOffset, v)
		return nil
	},
}

// openSideband maps the requested community and returns accessors bound
// to the port/offset flags.
func openSideband() (func() (uint32, error), func(uint32) error, func(), error) {
	switch {
	case sbResource != "":
		comm, err := sideband.OpenCommunity(sbResource, sbPort, sbLock)
		if err != nil {
			return nil, nil, nil, err
		}
		return func() (uint32, error) { return comm.Read32(sbOffset) },
			func(v uint32) error { return comm.Write32(sbOffset, v) },
			func() { comm.Close() }, nil

	case sbPhys != 0:
		addr := sideband.RegionAddress(sbPhys, sbPort, 0)
		w, err := mmio.MapPhys(addr, sideband.CommunitySize)
		if err != nil {
			return nil, nil, nil, err
		}
		comm := sideband.NewCommunity(w, sbPort)
		return func() (uint32, error) { return comm.Read32(sbOffset) },
			func(v uint32) error { return comm.Write32(sbOffset, v) },
			func() { comm.Close() }, nil
	}
	return nil, nil, nil, fmt.Errorf("either --resource or --phys is required")
}

func init() {
	sidebandCmd.Flags().StringVar(&sbResource, "resource", "", "PCI resource file backing the sideband space")
	sidebandCmd.Flags().Uint64Var(&sbPhys, "phys", 0, "physical sideband base address (uses /dev/mem)")
	sidebandCmd.Flags().Uint8Var(&sbPort, "port", 0, "sideband port ID (required)")
	sidebandCmd.Flags().Uint16Var(&sbOffset, "offset", 0, "register offset within the community")
	sidebandCmd.Flags().Uint32Var(&sbValue, "value", 0, "value to write (omit to read)")
	sidebandCmd.Flags().BoolVar(&sbLock, "lock", false, "mlock the mapping")
	_ = sidebandCmd.MarkFlagRequired("port")
	rootCmd.AddCommand(sidebandCmd)
}
