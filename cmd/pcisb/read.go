package main

import (
	"fmt"

	"github.com/hwprobe/pcisb/internal/pci"
	"github.com/hwprobe/pcisb/internal/portio"
	"github.com/spf13/cobra"
)

var (
	readDevice string
	readOffset uint8
	readWidth  int
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read a config-space register through the legacy ports",
	Long: `Reads a single configuration register over the CF8/CFC port pair.
Dword offsets must be 4-byte aligned; byte and word reads may use any
offset, the value is taken from the containing aligned dword.

Example:
  pcisb read --bdf 00:1f.1 --offset 0x10 --width 4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bdf, err := pci.ParseBDF(readDevice)
		if err != nil {
			return fmt.Errorf("invalid BDF: %w", err)
		}

		cfg, err := portio.OpenConfig()
		if err != nil {
			return err
		}
		defer cfg.Close()

		switch readWidth {
		case 1:
			v, err := cfg.ReadByte(bdf, readOffset)
			if err != nil {
				return err
			}
			fmt.Printf("0x%02X\n", v)
		case 2:
			v, err := cfg.ReadWord(bdf, readOffset)
			if err != nil {
				return err
			}
			fmt.Printf("0x%04X\n", v)
		case 4:
			v, err := cfg.ReadDword(bdf, readOffset)
			if err != nil {
				return err
			}
			fmt.Printf("0x%08X\n", v)
		default:
			return fmt.Errorf("width %d: must be 1, 2 or 4", readWidth)
		}
		return nil
	},
}

func init() {
	readCmd.Flags().StringVar(&readDevice, "bdf", "", "device BDF address (required)")
	readCmd.Flags().Uint8Var(&readOffset, "offset", 0, "register offset (0x00-0xff)")
	readCmd.Flags().IntVar(&readWidth, "width", 4, "access width in bytes: 1, 2 or 4")
	_ = readCmd.MarkFlagRequired("bdf")
	rootCmd.AddCommand(readCmd)
}
