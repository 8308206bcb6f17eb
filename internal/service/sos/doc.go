// Package sos implements the alert state machine. The Controller owns the
// ACTIVE/INACTIVE state, drives the pattern clock and fans every transition out
// to the visual, audio and torch channels.
package sos
