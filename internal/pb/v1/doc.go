// Package pb defines the sos.v1.AlertService gRPC contract.
//
// Every message travels as a google.protobuf.Struct; the typed helpers in this
// package convert between those structs and Go values. The contract is
// documented in api/sos/v1/alert.proto.
package pb
