// Package beacon runs the SOS beacon process: it builds the output channels
// from configuration, drives them with the SOS controller and serves the gRPC
// control API, the websocket bridge and the terminal UI until shutdown.
package beacon
