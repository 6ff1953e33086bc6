package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pcisb",
	Short: "PCI config-space and P2SB sideband inspection tool",
	Long: `pcisb inspects PCI/PCIe devices and drives the Intel P2SB sideband bridge.

It decodes standardized configuration headers and BARs (via sysfs or the
legacy CF8/CFC ports), reads and writes individual config registers, maps
sideband register communities, and walks the full P2SB unhide/read/hide
sequence on C620-family platforms.

Most commands require root: raw port access needs ioperm, and sysfs only
serves full config space and resource mappings to privileged readers.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
