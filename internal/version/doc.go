// Package version exposes build metadata for the beacon and its clients.
//
// Version, Commit and BuildTime are injected at build time via Go ldflags.
// UserAgent tags control API calls; the beacon logs it per call.
package version
