// Package alert implements the gRPC transport for the SOS controller.
//
// It decodes Struct payloads into domain types, calls into a provided
// service interface and encodes the resulting snapshot.
package alert
