// Package version provides the version of the application.
package version

import "runtime/debug"

// Version is the current version, set at build time via ldflags.
var Version = func() string {
	if info, ok := debug.ReadBuildInfo(); ok &&
		info.Main.Version != "" &&
		info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "unknown"
}()
