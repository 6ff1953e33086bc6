package main

import (
	"fmt"

	"github.com/hwprobe/pcisb/internal/color"
	"github.com/hwprobe/pcisb/internal/p2sb"
	"github.com/hwprobe/pcisb/internal/pci"
	"github.com/hwprobe/pcisb/internal/portio"
	"github.com/hwprobe/pcisb/internal/sideband"
	"github.com/hwprobe/pcisb/internal/sysfs"
	"github.com/spf13/cobra"
)

var (
	p2sbDevice  string
	p2sbVisible bool

	// GPIO registers dumped from community 1 during the demo walk.
	gpioDemoRegs = []struct {
		name string
		reg  uint16
	}{
		{"PAD_BAR", p2sb.GPIORegPadBar},
		{"PAD_OWNERSHIP", p2sb.GPIORegPadOwnership},
		{"HOSTSW_OWNERSHIP", p2sb.GPIORegHostSWOwnership},
		{"NMI_ENABLE", p2sb.GPIORegNMIEnable},
	}
)

var p2sbCmd = &cobra.Command{
	Use:   "p2sb",
	Short: "Walk the P2SB unhide/read/hide sequence",
	Long: `Unhides the Intel C620 P2SB bridge, reads its sideband base registers,
dumps a handful of GPIO community-1 registers through the sideband
space, then hides the bridge again and shows that a hidden function
reads back all ones.

The hide bit is toggled with setpci and the bridge is located with
lspci; both must be on PATH. Pass --keep-visible to leave the bridge
unhidden afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctl := p2sb.NewControl()

		// The function only answers while unhidden, so unhide the known
		// location first, then confirm via lspci.
		bdf := p2sb.DefaultBDF
		if p2sbDevice != "" {
			var err error
			bdf, err = pci.ParseBDF(p2sbDevice)
			if err != nil {
				return fmt.Errorf("invalid BDF: %w", err)
			}
		}
		if err := ctl.Unhide(bdf); err != nil {
			return err
		}
		fmt.Println(color.Okf("unhidden %s", bdf.Short()))

		located, err := ctl.Locate()
		if err != nil {
			return err
		}
		if located != bdf {
			return fmt.Errorf("lspci reports P2SB at %s, expected %s", located, bdf)
		}
		fmt.Println(color.Okf("lspci confirms %s at %s", p2sb.VendorDeviceID, located.Short()))

		cfg, err := portio.OpenConfig()
		if err != nil {
			return err
		}
		defer cfg.Close()

		fmt.Printf("\n%s\n", color.Header("Configuration"))
		for _, r := range []struct {
			name string
			reg  uint8
		}{
			{"SBREG_BAR", p2sb.RegSBRegBar},
			{"SBREG_BARH", p2sb.RegSBRegBarH},
			{"P2SBC", p2sb.RegCtrl},
		} {
			v, err := cfg.ReadDword(bdf, r.reg)
			if err != nil {
				return err
			}
			fmt.Printf("%-11s 0x%08X\n", r.name, v)
		}

		base, err := p2sb.ReadBase(cfg, bdf)
		if err != nil {
			return err
		}
		fmt.Printf("%-11s 0x%X\n", "base", base)

		if err := ctl.EnableMemSpace(bdf); err != nil {
			return err
		}

		fmt.Printf("\n%s\n", color.Header("GPIO community 1"))
		resource := sysfs.NewReader().ResourcePath(bdf, 0)
		comm, err := sideband.OpenCommunity(resource, p2sb.PortIDGPIOCommunity1, false)
		if err != nil {
			return err
		}
		defer comm.Close()

		for _, r := range gpioDemoRegs {
			v, err := comm.Read32(r.reg)
			if err != nil {
				return err
			}
			fmt.Printf("%-17s (0x%03X) = 0x%08X\n", r.name, r.reg, v)
		}

		if p2sbVisible {
			fmt.Println(color.Warn("leaving P2SB visible"))
			return nil
		}

		if err := ctl.Hide(bdf); err != nil {
			return err
		}
		// All ones from config space is the signature of a hidden
		// function (and of an absent one).
		v, err := cfg.ReadDword(bdf, 0x00)
		if err != nil {
			return err
		}
		fmt.Printf("\n%s\n", color.Okf("hidden again, vendor/device now reads 0x%08X", v))
		return nil
	},
}

func init() {
	p2sbCmd.Flags().StringVar(&p2sbDevice, "bdf", "", "P2SB BDF address (default 00:1f.1)")
	p2sbCmd.Flags().BoolVar(&p2sbVisible, "keep-visible", false, "do not re-hide the bridge afterwards")
	rootCmd.AddCommand(p2sbCmd)
}
