package version

import (
	"crypto/sha256"
	"fmt"
	"runtime/debug"
	"sync"
)

// Version information for grepline
const (
	// Version is the current semantic version of grepline
	Version = "0.3.0"

	// BuildDate is set during build time (use -ldflags)
	BuildDate = "development"

	// GitCommit is set during build time (use -ldflags)
	GitCommit = "unknown"
)

// Info returns version information as a string
func Info() string {
	return Version
}

// FullInfo returns detailed version information
func FullInfo() string {
	return "grepline " + Version + " (commit: " + GitCommit + ", built: " + BuildDate + ")"
}

var (
	buildID     string
	buildIDOnce sync.Once
)

// BuildID returns a fingerprint of the current binary build.
// It hashes Go version, module path/version, and VCS build settings;
// the debug log records it so reports can be tied to an exact build.
func BuildID() string {
	buildIDOnce.Do(func() {
		buildID = computeBuildID()
	})
	return buildID
}

func computeBuildID() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Version + "-" + GitCommit
	}

	h := sha256.New()
	h.Write([]byte(info.GoVersion))
	h.Write([]byte(info.Main.Path))
	h.Write([]byte(info.Main.Version))

	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision", "vcs.modified", "vcs.time":
			h.Write([]byte(s.Key))
			h.Write([]byte(s.Value))
		}
	}

	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}
