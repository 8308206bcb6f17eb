// Package client implements the sos-button actions.
//
// It connects to the beacon control API and switches the alert on or off,
// toggles it, or prints its current state.
package client
