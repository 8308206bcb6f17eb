// Package alert contains core domain types for the SOS beacon.
//
// It defines the signal Pattern (an immutable looping list of SignalStep values),
// the alert State and torch Permission enums, and the Snapshot reported to
// callers, with Clone helpers to avoid leaking internal references.
package alert
