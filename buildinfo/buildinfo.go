package buildinfo

import (
	"runtime/debug"
)

const modulePath = "github.com/coder/httplog"

var version string

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if info.Main.Path == modulePath && info.Main.Version != "(devel)" {
		version = info.Main.Version
		return
	}
	for _, dep := range info.Deps {
		if dep.Path == modulePath {
			version = dep.Version
		}
	}
}

func Version() string {
	if version == "" {
		return "unknown"
	}
	return version
}

// UserAgent is the User-Agent sent by the httplog binary.
func UserAgent() string {
	return "httplog/" + Version()
}
