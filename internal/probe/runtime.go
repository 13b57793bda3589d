// Package probe is the boundary to the external renderer runtime.
//
// The runtime itself ships as a closed binary plugin; this package only
// describes the calls the classifier needs (create a context restricted to
// one device, read that device's name, destroy the context) and runs them as
// a scoped trial session. A scripted Runtime stands in for the real one in
// tests and in the CLI's offline mode.
package probe

import (
	"bytes"
	"context"

	"github.com/Masterminds/semver/v3"
	"github.com/tsukumogami/rprcheck/internal/device"
)

// PluginID is a handle returned when a renderer plugin is registered.
// Negative values are invalid.
type PluginID int

// DefaultAPIVersion is the runtime API version requested when none is set.
var DefaultAPIVersion = semver.MustParse("3.1.0")

// CompatibleAPIVersion reports whether a runtime implementing DefaultAPIVersion
// accepts requests for v. Only the major version has to agree; a nil v means
// DefaultAPIVersion.
func CompatibleAPIVersion(v *semver.Version) bool {
	return v == nil || v.Major() == DefaultAPIVersion.Major()
}

// SessionRequest describes a trial context.
type SessionRequest struct {
	APIVersion *semver.Version
	Plugins    []PluginID
	Flags      device.CreationFlag
	CachePath  string
}

// Runtime creates sessions on the renderer. Implementations may ignore ctx;
// the Prober enforces its own timeout.
type Runtime interface {
	CreateSession(ctx context.Context, req SessionRequest) (Session, Status)
}

// Session is a created renderer context.
type Session interface {
	// InfoSize returns the buffer size needed to hold the value of key.
	InfoSize(key device.InfoKey) (int, Status)
	// Info copies the value of key into buf, which must hold InfoSize bytes.
	Info(key device.InfoKey, buf []byte) Status
	// Destroy releases the session. It must be called exactly once.
	Destroy() Status
}

// DeviceName reads a NUL-terminated name using the size-then-fetch pattern.
func DeviceName(s Session, key device.InfoKey) (string, Status) {
	n, st := s.InfoSize(key)
	if !st.OK() {
		return "", st
	}
	if n <= 0 {
		return "", StatusSuccess
	}
	buf := make([]byte, n)
	if st := s.Info(key, buf); !st.OK() {
		return "", st
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf), StatusSuccess
}
