package main

import (
	"fmt"

	"github.com/hwprobe/pcisb/internal/cmos"
	"github.com/spf13/cobra"
)

var (
	cmosBank  int
	cmosReg   uint8
	cmosValue uint8
)

var cmosCmd = &cobra.Command{
	Use:   "cmos",
	Short: "Read or write an RTC CMOS register",
	Long: `Accesses one byte of the RTC CMOS banks through the 0x70/0x71 and
0x72/0x73 indexed port pairs. With --value the register is written,
otherwise it is read.

Example:
  pcisb cmos --bank 0 --reg 0x0E
  pcisb cmos --bank 1 --reg 0x40 --value 0x5A`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := cmos.Open()
		if err != nil {
			return err
		}
		defer b.Close()

		if cmd.Flags().Changed("value") {
			if err := b.Write(cmosBank, cmosReg, cmosValue); err != nil {
				return err
			}
			fmt.Printf("bank %d reg 0x%02X <- 0x%02X\n", cmosBank, cmosReg, cmosValue)
			return nil
		}

		v, err := b.Read(cmosBank, cmosReg)
		if err != nil {
			return err
		}
		fmt.Printf("bank %d reg 0x%02X = 0x%02X\n", cmosBank, cmosReg, v)
		return nil
	},
}

func init() {
	cmosCmd.Flags().IntVar(&cmosBank, "bank", 0, "CMOS bank: 0 or 1")
	cmosCmd.Flags().Uint8Var(&cmosReg, "reg", 0, "register index within the bank")
	cmosCmd.Flags().Uint8Var(&cmosValue, "value", 0, "value to write (omit to read)")
	rootCmd.AddCommand(cmosCmd)
}
