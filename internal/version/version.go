package version

import (
	"runtime/debug"
	"sync"
)

// Version is the current semantic version of rspfix
const Version = "0.3.0"

// Set at build time with -ldflags "-X github.com/standardbeagle/rspfix/internal/version.GitCommit=..."
var (
	BuildDate = "development"
	GitCommit = "unknown"
)

var commitOnce sync.Once

// Commit returns GitCommit, falling back to the VCS revision the Go
// toolchain stamped into the binary.
func Commit() string {
	commitOnce.Do(func() {
		if GitCommit != "unknown" {
			return
		}
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				GitCommit = s.Value[:7]
			}
		}
	})
	return GitCommit
}

// FullInfo returns detailed version information
func FullInfo() string {
	return "rspfix " + Version + " (commit: " + Commit() + ", built: " + BuildDate + ")"
}
