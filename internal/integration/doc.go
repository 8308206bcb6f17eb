// Package integration runs a headless beacon in-process and drives it through
// the sos-button client, the watch poller, the raw gRPC client and the
// websocket bridge.
package integration
