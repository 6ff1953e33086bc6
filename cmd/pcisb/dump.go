package main

import (
	"fmt"
	"os"

	"github.com/hwprobe/pcisb/internal/color"
	"github.com/hwprobe/pcisb/internal/pci"
	"github.com/hwprobe/pcisb/internal/sysfs"
	"github.com/spf13/cobra"
)

var (
	dumpDevice string
	dumpBytes  int
	dumpRaw    bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Hex-dump a device's configuration space",
	Long: `Reads a device's configuration space from sysfs and prints a summary
line followed by a hex dump. With --raw the bytes are written to stdout
unformatted instead, for piping into other tools.

Example:
  pcisb dump --bdf 0000:00:1f.1
  pcisb dump --bdf 0000:00:1f.1 --raw > config.bin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bdf, err := pci.ParseBDF(dumpDevice)
		if err != nil {
			return fmt.Errorf("invalid BDF: %w", err)
		}

		cs, err := sysfs.NewReader().ReadConfigSpace(bdf)
		if err != nil {
			return err
		}

		if dumpRaw {
			_, err := os.Stdout.Write(cs.Bytes())
			return err
		}

		fmt.Printf("%s %04x:%04x (rev %02x) %s\n",
			color.Bold(bdf.String()), cs.VendorID(), cs.DeviceID(),
			cs.ReadU8(0x08), pci.LayoutName(cs.HeaderLayout()))
		fmt.Printf("command 0x%04X status 0x%04X\n\n", cs.Command(), cs.Status())
		fmt.Print(cs.HexDump(dumpBytes))
		return nil
	},
}

func init() {
	dumpCmd.Flags().StringVar(&dumpDevice, "bdf", "", "device BDF address (required)")
	dumpCmd.Flags().IntVar(&dumpBytes, "bytes", pci.ConfigSpaceLegacySize, "number of bytes to dump")
	dumpCmd.Flags().BoolVar(&dumpRaw, "raw", false, "write raw bytes to stdout")
	_ = dumpCmd.MarkFlagRequired("bdf")
	rootCmd.AddCommand(dumpCmd)
}
