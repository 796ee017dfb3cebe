package version

import (
	"fmt"
	"runtime/debug"
)

// You can set the version at build time using something like:
// go build -ldflags "-X github.com/microtonal/tetrachord/version.Version=$(git describe --dirty)"

var Version string

var buildInfo, hasBuildInfo = debug.ReadBuildInfo()

// Hash is the short VCS revision the binary was built from, suffixed with
// -dirty for modified trees.
var Hash = func() string {
	if !hasBuildInfo {
		return ""
	}
	var revision string
	modified := false
	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if revision != "" && modified {
		return revision + "-dirty"
	}
	return revision
}()

var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	if Hash != "" {
		return Hash
	}
	return "devel"
}()

// Describe returns the line the tools print for -v, e.g.
// "tetrachord-serve v0.3.0 (go1.24.0)".
func Describe(tool string) string {
	if !hasBuildInfo {
		return fmt.Sprintf("%s %s", tool, VersionOrHash)
	}
	return fmt.Sprintf("%s %s (%s)", tool, VersionOrHash, buildInfo.GoVersion)
}
