package platform

import "fmt"

// Adapter is a display controller found on the host bus. It is a hint for
// diagnostics only; the renderer's own enumeration decides slot contents.
type Adapter struct {
	Address  string // bus address, e.g. "0000:01:00.0"
	Vendor   string // "nvidia", "amd", "intel", "apple" or "unknown"
	VendorID string // PCI vendor id, e.g. "0x10de"
	DeviceID string // PCI device id, e.g. "0x1b80"
}

func (a Adapter) String() string {
	if a.Address == "" {
		return a.Vendor
	}
	return fmt.Sprintf("%s %s (%s:%s)", a.Address, a.Vendor, a.VendorID, a.DeviceID)
}

// Discrete reports whether the vendor ships discrete parts the built-in
// allowlist can certify. Intel adapters are denylisted by default.
func (a Adapter) Discrete() bool {
	return a.Vendor == "nvidia" || a.Vendor == "amd"
}

// pciVendors maps PCI vendor IDs to vendor names.
var pciVendors = map[string]string{
	"0x10de": "nvidia",
	"0x1002": "amd",
	"0x8086": "intel",
	"0x106b": "apple",
}

func vendorName(id string) string {
	if v, ok := pciVendors[id]; ok {
		return v
	}
	return "unknown"
}

// DetectAdapters lists display controllers on the running host.
func DetectAdapters() []Adapter {
	return DetectAdaptersWithRoot("")
}
