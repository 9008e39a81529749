// Package version reports which build of the tracker binaries is running.
package version

import (
	"runtime/debug"
	"sync"
)

// Set with -ldflags "-X ycintel/internal/core/version.version=v0.3.0 -X ycintel/internal/core/version.commit=abcd
// -X ycintel/internal/core/version.date=2026-01-02". Unset values fall back to the vcs stamp go build embeds
var (
	version = "dev"
	commit  = ""
	date    = ""
)

// BuildInfo is the build block served by /healthz
type BuildInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`
}

var stamp = sync.OnceValue(func() BuildInfo {
	b := BuildInfo{Version: version, Commit: commit, Date: date}
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		b = fromBuild(b, bi)
	}
	if b.Commit == "" {
		b.Commit = "none"
	}
	if b.Date == "" {
		b.Date = "unknown"
	}
	return b
})

// fromBuild fills what ldflags left empty from the embedded vcs settings
func fromBuild(b BuildInfo, bi *debug.BuildInfo) BuildInfo {
	b.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.Commit == "" {
				b.Commit = s.Value
			}
		case "vcs.time":
			if b.Date == "" {
				b.Date = s.Value
			}
		case "vcs.modified":
			b.Dirty = s.Value == "true"
		}
	}
	return b
}

// Info returns the build stamp tagged with service, "tracker" when empty
func Info(service string) BuildInfo {
	if service == "" {
		service = "tracker"
	}
	b := stamp()
	b.Service = service
	return b
}
