package sos

import (
	"context"

	"github.com/oshokin/sos-beacon/internal/domain/alert"
)

// Visual is the full-screen overlay.
type Visual interface {
	Start()
	OnLevel(level bool)
	Stop()
}

// Audio is the siren.
type Audio interface {
	Start(ctx context.Context)
	Stop(ctx context.Context)
	Close(ctx context.Context)
	Available() bool
}

// Torch is the hardware light.
type Torch interface {
	Probe(ctx context.Context) bool
	Supported() bool
	Permission() alert.Permission
	RequestPermission(ctx context.Context) alert.Permission
	Arm()
	Disarm()
	SetLevel(on bool)
	Release()
}

// Channels groups the outputs driven by the controller.
type Channels struct {
	// Visual paints the overlay.
	Visual Visual
	// Audio plays the siren.
	Audio Audio
	// Torch strobes the light.
	Torch Torch
}
