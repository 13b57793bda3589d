package platform

// DetectAdaptersWithRoot reports a single Apple adapter on macOS, where
// every supported machine has a Metal-capable GPU. root is ignored.
func DetectAdaptersWithRoot(_ string) []Adapter {
	return []Adapter{{Vendor: "apple"}}
}
