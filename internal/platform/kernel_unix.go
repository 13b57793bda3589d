//go:build linux || darwin

package platform

import "golang.org/x/sys/unix"

// KernelRelease returns the running kernel release, such as "6.8.0-45-generic".
// It returns "" when uname fails.
func KernelRelease() string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return ""
	}
	return unix.ByteSliceToString(u.Release[:])
}
