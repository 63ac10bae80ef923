// Package version reports gones's build identity: the version string set
// via -ldflags at release time, falling back to the VCS revision embedded
// by the Go toolchain for dev builds.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Version is set at build time via -ldflags; "dev" in a local build.
	Version = "dev"
)

// buildInfo holds the subset of runtime/debug's build info gones surfaces.
type buildInfo struct {
	revision  string
	goVersion string
	platform  string
}

func readBuildInfo() buildInfo {
	info := buildInfo{
		revision:  "unknown",
		goVersion: runtime.Version(),
		platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range bi.Settings {
			if setting.Key == "vcs.revision" {
				info.revision = setting.Value
			}
		}
	}
	return info
}

// GetVersion returns the release version, or "dev-<commit7>" for a build
// that embeds VCS info but wasn't given a -ldflags version.
func GetVersion() string {
	if Version != "dev" {
		return Version
	}
	rev := readBuildInfo().revision
	if len(rev) >= 7 {
		return fmt.Sprintf("dev-%s", rev[:7])
	}
	return Version
}

// PrintBuildInfo prints gones's version, commit, and toolchain/platform to
// stdout for the -version flag.
func PrintBuildInfo() {
	info := readBuildInfo()
	fmt.Printf("gones - Go NES Emulator\n")
	fmt.Printf("Version:    %s\n", GetVersion())
	fmt.Printf("Git Commit: %s\n", info.revision)
	fmt.Printf("Go Version: %s\n", info.goVersion)
	fmt.Printf("Platform:   %s\n", info.platform)
}
