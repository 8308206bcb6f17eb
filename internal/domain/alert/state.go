package alert

import "time"

// State is the alert activation state owned by the controller.
type State int

const (
	// Inactive means every output channel is off.
	Inactive State = iota
	// Active means the pattern is signalled and the siren plays.
	Active
)

// String returns a readable name of the state.
func (s State) String() string {
	if s == Active {
		return "active"
	}

	return "inactive"
}

// Permission tracks whether torch control has been authorized.
type Permission int

const (
	// PermissionPrompt means access has not been requested yet.
	PermissionPrompt Permission = iota
	// PermissionGranted means a torch-capable track is held.
	PermissionGranted
	// PermissionDenied is terminal for the lifetime of the torch channel.
	PermissionDenied
)

// String returns a readable name of the permission.
func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "prompt"
	}
}

// ParsePermission converts the String form back into a Permission.
// Unknown values map to PermissionPrompt.
func ParsePermission(s string) Permission {
	switch s {
	case "granted":
		return PermissionGranted
	case "denied":
		return PermissionDenied
	default:
		return PermissionPrompt
	}
}

// Actor identifies who toggled the alert.
type Actor struct {
	// Hostname is the machine name where the action was performed.
	Hostname string
	// Username is the system user who triggered the action.
	Username string
}

// Clone returns a deep copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// Snapshot is a point-in-time view of the beacon.
type Snapshot struct {
	// State is the current activation state.
	State State
	// Timestamp is when the state last changed.
	Timestamp time.Time
	// LastActor is who performed the last transition, if known.
	LastActor *Actor
	// SessionID identifies the current or last activation.
	SessionID string
	// TorchSupported reports whether the torch probe found a usable light.
	TorchSupported bool
	// Torch is the torch permission state.
	Torch Permission
	// AudioAvailable is false once the audio output failed to initialise.
	AudioAvailable bool
}

// IsActive reports whether the snapshot describes an active alert.
func (s *Snapshot) IsActive() bool {
	return s != nil && s.State == Active
}

// Clone returns a copy of the snapshot to avoid leaking internal references.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}

	cloned := *s
	cloned.LastActor = s.LastActor.Clone()

	return &cloned
}
