package main

import (
	"fmt"

	"github.com/hwprobe/pcisb/internal/pci"
	"github.com/hwprobe/pcisb/internal/portio"
	"github.com/spf13/cobra"
)

var (
	writeDevice string
	writeOffset uint8
	writeWidth  int
	writeValue  uint32
)

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Write a config-space register through the legacy ports",
	Long: `Writes a single configuration register over the CF8/CFC port pair.
Byte and word writes read-modify-write the containing dword, so the
neighbouring bytes are preserved.

Example:
  pcisb write --bdf 00:1f.1 --offset 0xE1 --width 1 --value 0x00`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bdf, err := pci.ParseBDF(writeDevice)
		if err != nil {
			return fmt.Errorf("invalid BDF: %w", err)
		}

		cfg, err := portio.OpenConfig()
		if err != nil {
			return err
		}
		defer cfg.Close()

		switch writeWidth {
		case 1:
			if writeValue > 0xFF {
				return fmt.Errorf("value 0x%x does not fit in one byte", writeValue)
			}
			return cfg.WriteByte(bdf, writeOffset, uint8(writeValue))
		case 2:
			if writeValue > 0xFFFF {
				return fmt.Errorf("value 0x%x does not fit in one word", writeValue)
			}
			return cfg.WriteWord(bdf, writeOffset, uint16(writeValue))
		case 4:
			return cfg.WriteDword(bdf, writeOffset, writeValue)
		}
		return fmt.Errorf("width %d: must be 1, 2 or 4", writeWidth)
	},
}

func init() {
	writeCmd.Flags().StringVar(&writeDevice, "bdf", "", "device BDF address (required)")
	writeCmd.Flags().Uint8Var(&writeOffset, "offset", 0, "register offset (0x00-0xff)")
	writeCmd.Flags().IntVar(&writeWidth, "width", 4, "access width in bytes: 1, 2 or 4")
	writeCmd.Flags().Uint32Var(&writeValue, "value", 0, "value to write (required)")
	_ = writeCmd.MarkFlagRequired("bdf")
	_ = writeCmd.MarkFlagRequired("value")
	rootCmd.AddCommand(writeCmd)
}
