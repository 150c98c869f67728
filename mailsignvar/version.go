// Package mailsignvar provides the version number of a mailsign build.
package mailsignvar

import (
	"runtime/debug"
)

// Version is set at runtime based on the Go module used to build.
var Version = "(devel)"

func init() {
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		Version = version(buildInfo)
	}
}

// version returns the module version, or for development builds the VCS
// revision with a marker for local modifications.
func version(bi *debug.BuildInfo) string {
	v := bi.Main.Version
	if v != "(devel)" && v != "" {
		return v
	}
	vcs := map[string]string{}
	for _, setting := range bi.Settings {
		vcs[setting.Key] = setting.Value
	}
	rev := vcs["vcs.revision"]
	if rev == "" {
		return "(devel)"
	}
	switch vcs["vcs.modified"] {
	case "false":
		return rev
	case "true":
		return rev + "+modifications"
	}
	return rev + "+unknown"
}
