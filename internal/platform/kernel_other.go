//go:build !linux && !darwin

package platform

// KernelRelease is not reported on this platform.
func KernelRelease() string {
	return ""
}
