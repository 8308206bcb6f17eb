// Package checker polls the beacon and logs alert state transitions.
// It backs the "sos-button watch" command.
package checker
