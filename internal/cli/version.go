package cli

import "runtime/debug"

// version is set with -ldflags "-X github.com/lvcoi/ytpp/internal/cli.version=...".
var version = ""

// Version reports the linked version, the module version from build info, or "dev".
func Version() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}
