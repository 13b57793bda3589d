//go:build !linux && !darwin

package platform

// DetectAdaptersWithRoot has no bus scan on this platform and returns nil.
func DetectAdaptersWithRoot(_ string) []Adapter {
	return nil
}
