package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/hwprobe/pcisb/internal/color"
	"github.com/hwprobe/pcisb/internal/pci"
	"github.com/hwprobe/pcisb/internal/sysfs"
	"github.com/spf13/cobra"
)

var barsDevice string

var barsCmd = &cobra.Command{
	Use:   "bars",
	Short: "Decode a device's Base Address Registers",
	Long: `Lists a device's BARs with type, address and size. Sizes come from the
sysfs resource file; when that is unreadable the BARs are decoded from
the raw config space instead (without sizes).

Example:
  pcisb bars --bdf 0000:00:1f.1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bdf, err := pci.ParseBDF(barsDevice)
		if err != nil {
			return fmt.Errorf("invalid BDF: %w", err)
		}

		sr := sysfs.NewReader()
		bars, err := sr.ReadResourceFile(bdf)
		if err != nil {
			fmt.Println(color.Warnf("resource file unreadable (%v), decoding config space", err))
			cs, err := sr.ReadConfigSpace(bdf)
			if err != nil {
				return err
			}
			if cs.Command()&pci.CommandMemSpace == 0 {
				fmt.Println(color.Warn("memory decoding is disabled; memory BAR addresses are not live"))
			}
			bars = pci.ParseBARs(cs)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BAR\tTYPE\tADDRESS\tSIZE\tPREFETCH")
		fmt.Fprintln(w, "---\t----\t-------\t----\t--------")
		for _, bar := range bars {
			if bar.IsDisabled() {
				fmt.Fprintf(w, "%d\t%s\t-\t-\t-\n", bar.Index, bar.Type)
				continue
			}
			pf := "no"
			if bar.Prefetchable {
				pf = "yes"
			}
			fmt.Fprintf(w, "%d\t%s\t0x%x\t%s\t%s\n",
				bar.Index, bar.Type, bar.Address, bar.SizeHuman(), pf)
		}
		w.Flush()
		return nil
	},
}

func init() {
	barsCmd.Flags().StringVar(&barsDevice, "bdf", "", "device BDF address (required)")
	_ = barsCmd.MarkFlagRequired("bdf")
	rootCmd.AddCommand(barsCmd)
}
