// Package buildinfo reports how the rprcheck binary was built.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Info describes the running binary.
type Info struct {
	Version   string // tag for releases, "dev-<hash>[-dirty]" otherwise
	Revision  string // full VCS revision, if known
	Modified  bool   // built from a dirty tree
	GoVersion string
}

// Read collects build metadata. It never fails; missing data leaves fields
// at their fallbacks ("unknown" version, empty revision).
func Read() Info {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Info{Version: "unknown"}
	}
	return fromBuildInfo(info)
}

// Version returns the version string for the current build.
func Version() string {
	return Read().Version
}

func fromBuildInfo(info *debug.BuildInfo) Info {
	out := Info{GoVersion: info.GoVersion}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			out.Revision = setting.Value
		case "vcs.modified":
			out.Modified = setting.Value == "true"
		}
	}

	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		out.Version = info.Main.Version
		return out
	}

	out.Version = "dev"
	if out.Revision != "" {
		short := out.Revision
		if len(short) > 12 {
			short = short[:12]
		}
		out.Version += "-" + short
		if out.Modified {
			out.Version += "-dirty"
		}
	}
	return out
}

// String renders the info as "rprcheck <version> (<go version>)".
func (i Info) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "rprcheck %s", i.Version)
	if i.GoVersion != "" {
		fmt.Fprintf(&sb, " (%s)", i.GoVersion)
	}
	return sb.String()
}
