// Package version exposes the build metadata stamped into release
// binaries.
package version

import "runtime/debug"

// Set at release time through ldflags, for example:
//
//	go build -ldflags "-X github.com/arlott/frigatemx/internal/version.Version=1.4.0"
//
// Development builds fall back to the VCS stamp the Go toolchain embeds
// in module builds.
var (
	// Version is the release version, or a pseudo-version for dev builds.
	Version = ""
	// Commit is the git revision the binary was built from.
	Commit = ""
	// BuildDate is the commit timestamp (RFC3339) when known.
	BuildDate = ""
)

func init() {
	fillFromBuildInfo()
	if Version == "" {
		Version = "0.0.0-dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fillFromBuildInfo fills any field ldflags left empty from the build
// info.
func fillFromBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}

	if Commit == "" {
		if rev := settings["vcs.revision"]; rev != "" {
			Commit = shortRev(rev)
			if settings["vcs.modified"] == "true" {
				Commit += "+dirty"
			}
		}
	}
	if BuildDate == "" {
		BuildDate = settings["vcs.time"]
	}
	if Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
}

func shortRev(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// String renders the version and commit the way the CLI version
// commands print them.
func String() string {
	return Version + " (commit: " + Commit + ")"
}
