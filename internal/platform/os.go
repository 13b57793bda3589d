// Package platform describes the host a device is classified for.
//
// The operating system matters to classification because some allowlist
// entries only apply on a subset of systems (certain NVIDIA parts are not
// certified on macOS). The package also carries best-effort host GPU
// discovery used by diagnostics.
package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// OS identifies an operating system targeted by classification.
type OS string

const (
	Windows OS = "windows"
	Linux   OS = "linux"
	MacOS   OS = "macos"
)

// ValidOSes lists the recognized operating systems in display order.
var ValidOSes = []OS{Windows, Linux, MacOS}

// ErrUnknownOS is returned by ParseOS for unrecognized names.
var ErrUnknownOS = errors.New("unknown operating system")

// osAliases maps accepted spellings to canonical values.
var osAliases = map[string]OS{
	"windows": Windows, "win": Windows, "win32": Windows, "win64": Windows,
	"linux": Linux,
	"macos": MacOS, "darwin": MacOS, "osx": MacOS, "mac": MacOS,
}

// ParseOS converts a user-supplied name (case-insensitive) to an OS.
// GOOS spellings such as "darwin" are accepted.
func ParseOS(s string) (OS, error) {
	if os, ok := osAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return os, nil
	}
	return "", fmt.Errorf("%w: %q (valid: windows, linux, macos)", ErrUnknownOS, s)
}

// Current returns the OS of the running process.
// Hosts other than Windows and macOS are treated as Linux.
func Current() OS {
	return fromGOOS(runtime.GOOS)
}

func fromGOOS(goos string) OS {
	switch goos {
	case "windows":
		return Windows
	case "darwin", "ios":
		return MacOS
	default:
		return Linux
	}
}

// Valid reports whether o is one of the recognized operating systems.
func (o OS) Valid() bool {
	for _, v := range ValidOSes {
		if o == v {
			return true
		}
	}
	return false
}

func (o OS) String() string {
	return string(o)
}
