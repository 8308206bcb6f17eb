package version

import (
	"fmt"
	"runtime"
)

// Product names the project in user agents and banners.
const Product = "sos-beacon"

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns a human-readable version string with commit, build time and platform.
func Full() string {
	return fmt.Sprintf("%s version: %s, commit: %s, built at: %s, platform: %s/%s",
		Product, Version, Commit, BuildTime, runtime.GOOS, runtime.GOARCH)
}

// UserAgent identifies the build on the control API.
func UserAgent() string {
	return Product + "/" + Version
}
