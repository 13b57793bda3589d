package platform

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PCI class codes for display controllers (top 16 bits).
const (
	pciClassVGA = "0x0300" // VGA compatible controller
	pciClass3D  = "0x0302" // 3D controller (e.g., NVIDIA Tesla)
)

// DetectAdaptersWithRoot scans sysfs under root for display controllers.
// An empty root uses the real filesystem root. Adapters are sorted by bus
// address; unreadable devices are skipped.
func DetectAdaptersWithRoot(root string) []Adapter {
	if root == "" {
		root = "/"
	}
	pattern := filepath.Join(root, "sys", "bus", "pci", "devices", "*", "class")
	classFiles, err := filepath.Glob(pattern)
	if err != nil {
		return nil
	}

	var adapters []Adapter
	for _, classFile := range classFiles {
		class, ok := readTrimmed(classFile)
		if !ok || !isDisplayController(class) {
			continue
		}

		deviceDir := filepath.Dir(classFile)
		vendorID, ok := readTrimmed(filepath.Join(deviceDir, "vendor"))
		if !ok {
			continue
		}
		deviceID, _ := readTrimmed(filepath.Join(deviceDir, "device"))

		adapters = append(adapters, Adapter{
			Address:  filepath.Base(deviceDir),
			Vendor:   vendorName(vendorID),
			VendorID: vendorID,
			DeviceID: deviceID,
		})
	}

	sort.Slice(adapters, func(i, j int) bool { return adapters[i].Address < adapters[j].Address })
	return adapters
}

func readTrimmed(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// isDisplayController checks if a PCI class code represents a display controller.
// Class codes are in the format "0xCCSSPP" where CC=class, SS=subclass, PP=prog-if.
func isDisplayController(classStr string) bool {
	if len(classStr) < 6 {
		return false
	}
	prefix := classStr[:6]
	return prefix == pciClassVGA || prefix == pciClass3D
}
