package main

import (
	"fmt"

	"github.com/hwprobe/pcisb/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pcisb %s\n", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
