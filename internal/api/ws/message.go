package ws

import (
	"encoding/json"
	"time"

	"github.com/oshokin/sos-beacon/internal/domain/alert"
)

// Message types exchanged over the socket.
const (
	// MessageTypeState carries a StatePayload to the client.
	MessageTypeState = "alert.state"
	// MessageTypeToggle flips the alert; payload is TogglePayload.
	MessageTypeToggle = "alert.toggle"
	// MessageTypeSet sets the alert; payload is SetPayload.
	MessageTypeSet = "alert.set"
	// MessageTypeError reports a rejected client message; payload is ErrorPayload.
	MessageTypeError = "alert.error"
)

// Message is the envelope of every frame.
type Message struct {
	// Type selects the payload.
	Type string `json:"type"`
	// Payload is the type-specific body.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ActorPayload identifies who acted.
type ActorPayload struct {
	Hostname string `json:"hostname"`
	Username string `json:"username"`
}

// StatePayload mirrors alert.Snapshot.
type StatePayload struct {
	Active          bool          `json:"active"`
	Timestamp       time.Time     `json:"timestamp"`
	SessionID       string        `json:"session_id,omitempty"`
	Actor           *ActorPayload `json:"actor,omitempty"`
	TorchSupported  bool          `json:"torch_supported"`
	TorchPermission string        `json:"torch_permission"`
	AudioAvailable  bool          `json:"audio_available"`
}

// TogglePayload is sent with MessageTypeToggle.
type TogglePayload struct {
	Actor *ActorPayload `json:"actor,omitempty"`
}

// SetPayload is sent with MessageTypeSet.
type SetPayload struct {
	Active bool          `json:"active"`
	Actor  *ActorPayload `json:"actor,omitempty"`
}

// ErrorPayload explains a rejected message.
type ErrorPayload struct {
	Message string `json:"message"`
}

// NewStatePayload converts a snapshot.
func NewStatePayload(snapshot *alert.Snapshot) StatePayload {
	if snapshot == nil {
		return StatePayload{TorchPermission: alert.PermissionPrompt.String()}
	}

	var actor *ActorPayload
	if snapshot.LastActor != nil {
		actor = &ActorPayload{
			Hostname: snapshot.LastActor.Hostname,
			Username: snapshot.LastActor.Username,
		}
	}

	return StatePayload{
		Active:          snapshot.IsActive(),
		Timestamp:       snapshot.Timestamp,
		SessionID:       snapshot.SessionID,
		Actor:           actor,
		TorchSupported:  snapshot.TorchSupported,
		TorchPermission: snapshot.Torch.String(),
		AudioAvailable:  snapshot.AudioAvailable,
	}
}

// newMessage wraps a payload in an envelope.
func newMessage(messageType string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}

	return Message{
		Type:    messageType,
		Payload: data,
	}, nil
}

// toActor converts a payload actor, falling back when absent.
func toActor(actor *ActorPayload, fallback *alert.Actor) *alert.Actor {
	if actor == nil {
		return fallback
	}

	return &alert.Actor{
		Hostname: actor.Hostname,
		Username: actor.Username,
	}
}
