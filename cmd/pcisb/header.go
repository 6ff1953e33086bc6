package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/hwprobe/pcisb/internal/color"
	"github.com/hwprobe/pcisb/internal/pci"
	"github.com/hwprobe/pcisb/internal/portio"
	"github.com/hwprobe/pcisb/internal/sysfs"
	"github.com/spf13/cobra"
)

var (
	headerDevice string
	headerVia    string
)

var headerCmd = &cobra.Command{
	Use:   "header",
	Short: "Decode a device's standardized configuration header",
	Long: `Reads the first 64 bytes of a device's configuration space and decodes
every field of its Type 0 (endpoint) or Type 1 (bridge) header.

Example:
  pcisb header --bdf 0000:00:1f.1
  pcisb header --bdf 00:1f.1 --via ports`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bdf, err := pci.ParseBDF(headerDevice)
		if err != nil {
			return fmt.Errorf("invalid BDF: %w", err)
		}

		reader, cs, cleanup, err := configReader(bdf, headerVia)
		if err != nil {
			return err
		}
		defer cleanup()

		dump, err := pci.DecodeHeader(reader)
		if err != nil {
			var unk *pci.UnknownHeaderTypeError
			if errors.As(err, &unk) && unk.Raw == 0xFF {
				return fmt.Errorf("%w (device absent or hidden?)", err)
			}
			return err
		}

		multi := ""
		if cs != nil && cs.IsMultiFunction() {
			multi = " (multi-function)"
		}
		fmt.Printf("%s is a %s%s\n\n", color.Bold(bdf.String()), pci.LayoutName(dump.Layout), multi)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "OFFSET\tFIELD\tVALUE")
		fmt.Fprintln(w, "------\t-----\t-----")
		for _, f := range dump.Fields() {
			fmt.Fprintf(w, "0x%02x\t%s\t%s\n", f.Offset, f.Name, f.Hex)
		}
		w.Flush()
		return nil
	},
}

// configReader returns a header decoder source for the chosen transport
// and a cleanup func releasing whatever the transport holds. The snapshot
// is non-nil only for the sysfs transport.
func configReader(bdf pci.BDF, via string) (pci.ConfigReader, *pci.ConfigSpace, func(), error) {
	switch via {
	case "sysfs":
		cs, err := sysfs.NewReader().ReadConfigSpace(bdf)
		if err != nil {
			return nil, nil, nil, err
		}
		return cs, cs, func() {}, nil
	case "ports":
		cfg, err := portio.OpenConfig()
		if err != nil {
			return nil, nil, nil, err
		}
		f, err := cfg.Func(bdf)
		if err != nil {
			cfg.Close()
			return nil, nil, nil, err
		}
		return f, nil, func() { cfg.Close() }, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown transport %q: expected sysfs or ports", via)
}

func init() {
	headerCmd.Flags().StringVar(&headerDevice, "bdf", "", "device BDF address (required)")
	headerCmd.Flags().StringVar(&headerVia, "via", "sysfs", "config transport: sysfs or ports")
	_ = headerCmd.MarkFlagRequired("bdf")
	rootCmd.AddCommand(headerCmd)
}
