package torch

import "context"

// FacingEnvironment selects the rear camera, where the flash LED sits.
const FacingEnvironment = "environment"

// Constraints select the stream to acquire.
type Constraints struct {
	// FacingMode is the camera direction, see FacingEnvironment.
	FacingMode string
}

// Capabilities describes what a track can do.
type Capabilities struct {
	// Torch reports whether the track controls a light.
	Torch bool
}

// Camera acquires hardware streams. Acquisition may block on the user or
// platform for an arbitrary time and should honour ctx.
type Camera interface {
	Open(ctx context.Context, constraints Constraints) (Stream, error)
}

// Stream is a live hardware connection.
type Stream interface {
	// Track returns the video track, or nil if the stream has none.
	Track() Track
	// Close stops every track of the stream.
	Close() error
}

// Track is a single video track.
type Track interface {
	Capabilities() Capabilities
	ApplyTorch(ctx context.Context, on bool) error
}
