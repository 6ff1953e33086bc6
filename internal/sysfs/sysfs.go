// Package sysfs reads PCI device state from the Linux sysfs tree: config
// space snapshots, BAR resource tables, and the resource{N} files that
// back MMIO mappings.
package sysfs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hwprobe/pcisb/internal/pci"
)

const sysfsBasePath = "/sys/bus/pci/devices"

// Reader reads PCI device information from sysfs.
type Reader struct {
	basePath string
}

// NewReader creates a Reader over the live sysfs tree.
func NewReader() *Reader {
	return &Reader{basePath: sysfsBasePath}
}

// NewReaderWithPath creates a Reader with a custom base path (for testing).
func NewReaderWithPath(basePath string) *Reader {
	return &Reader{basePath: basePath}
}

// DevicePath returns the sysfs directory of the given function.
func (r *Reader) DevicePath(bdf pci.BDF) string {
	return filepath.Join(r.basePath, bdf.String())
}

// ResourcePath returns the path of the resource{N} file backing BAR index.
// Mapping that file gives access to the BAR's memory region.
func (r *Reader) ResourcePath(bdf pci.BDF, index int) string {
	return filepath.Join(r.DevicePath(bdf), fmt.Sprintf("resource%d", index))
}

// ReadConfigSpace reads the function's config file into a snapshot. The
// kernel serves 64, 256 or 4096 bytes depending on privileges and device
// generation.
func (r *Reader) ReadConfigSpace(bdf pci.BDF) (*pci.ConfigSpace, error) {
	configPath := filepath.Join(r.DevicePath(bdf), "config")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config space: %w", err)
	}

	return pci.NewConfigSpaceFromBytes(data), nil
}

// ReadResourceFile reads BAR addresses, sizes and flags from the sysfs
// resource file. Unlike a raw config-space decode this includes sizes,
// since the kernel already performed BAR sizing at enumeration.
func (r *Reader) ReadResourceFile(bdf pci.BDF) ([]pci.BAR, error) {
	resourcePath := filepath.Join(r.DevicePath(bdf), "resource")

	f, err := os.Open(resourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read resource file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	return pci.ParseResourceLines(lines), nil
}
