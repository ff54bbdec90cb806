// Package buildinfo carries the version stamped into the msum binary.
package buildinfo

import (
	"runtime"
)

// These vars are set at build time via ldflags:
// -X github.com/YashavikaSingh/meeting-summariser/pkg/buildinfo.Version=v0.3.0
// -X github.com/YashavikaSingh/meeting-summariser/pkg/buildinfo.Commit=4c1d2e9
// -X github.com/YashavikaSingh/meeting-summariser/pkg/buildinfo.BuildTime=2026-10-01T09:00:00Z
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Name is the program name used in version output and the User-Agent header.
const Name = "msum"

// Info holds build information.
type Info struct {
	Name      string `json:"name" yaml:"name"`
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// Get returns the build info of this binary.
func Get() Info {
	return Info{
		Name:      Name,
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String returns a human-readable one-liner like "v0.3.0 (4c1d2e9, 2026-10-01T09:00:00Z)"
func String() string {
	return Version + " (" + Commit + ", " + BuildTime + ")"
}

// UserAgent is sent with every backend request.
func UserAgent() string {
	return Name + "/" + Version + " (" + runtime.GOOS + "/" + runtime.GOARCH + ")"
}
