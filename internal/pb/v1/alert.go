package pb

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Field names used in the Struct payloads.
const (
	fieldActor           = "actor"
	fieldRequestingActor = "requesting_actor"
	fieldHostname        = "hostname"
	fieldUsername        = "username"
	fieldIsActive        = "is_active"
	fieldTimestamp       = "timestamp"
	fieldSessionID       = "session_id"
	fieldTorchSupported  = "torch_supported"
	fieldTorchPermission = "torch_permission"
	fieldAudioAvailable  = "audio_available"
)

var (
	// errWrongKind is returned when a field holds an unexpected value kind.
	errWrongKind = errors.New("unexpected value kind")
	// errNilPayload is returned when decoding a nil Struct.
	errNilPayload = errors.New("payload is nil")
)

// SystemActor identifies the host and user behind a request.
type SystemActor struct {
	// Hostname is the machine name.
	Hostname string
	// Username is the system user.
	Username string
}

// GetHostname returns the hostname or an empty string.
func (a *SystemActor) GetHostname() string {
	if a == nil {
		return ""
	}

	return a.Hostname
}

// GetUsername returns the username or an empty string.
func (a *SystemActor) GetUsername() string {
	if a == nil {
		return ""
	}

	return a.Username
}

// GetAlertStateRequest asks for the current state.
type GetAlertStateRequest struct {
	// RequestingActor is who asks; optional.
	RequestingActor *SystemActor
}

// GetRequestingActor returns the requesting actor or nil.
func (r *GetAlertStateRequest) GetRequestingActor() *SystemActor {
	if r == nil {
		return nil
	}

	return r.RequestingActor
}

// SetAlertStateRequest sets the alert to the desired state.
type SetAlertStateRequest struct {
	// Actor is who changes the state.
	Actor *SystemActor
	// IsActive is the desired state.
	IsActive bool
}

// GetActor returns the actor or nil.
func (r *SetAlertStateRequest) GetActor() *SystemActor {
	if r == nil {
		return nil
	}

	return r.Actor
}

// GetIsActive returns the desired state.
func (r *SetAlertStateRequest) GetIsActive() bool {
	return r != nil && r.IsActive
}

// ToggleAlertRequest flips the alert.
type ToggleAlertRequest struct {
	// Actor is who toggles.
	Actor *SystemActor
}

// GetActor returns the actor or nil.
func (r *ToggleAlertRequest) GetActor() *SystemActor {
	if r == nil {
		return nil
	}

	return r.Actor
}

// AlertState is the reply of every AlertService method.
type AlertState struct {
	// IsActive reports whether the alert is signalling.
	IsActive bool
	// Timestamp is when the state last changed; zero when unknown.
	Timestamp time.Time
	// LastActor is who performed the last transition.
	LastActor *SystemActor
	// SessionID identifies the current or last activation.
	SessionID string
	// TorchSupported reports whether the beacon found a torch.
	TorchSupported bool
	// TorchPermission is "prompt", "granted" or "denied".
	TorchPermission string
	// AudioAvailable reports whether the siren can play.
	AudioAvailable bool
}

// GetIsActive returns the activation flag.
func (s *AlertState) GetIsActive() bool {
	return s != nil && s.IsActive
}

// GetTimestamp returns the transition time.
func (s *AlertState) GetTimestamp() time.Time {
	if s == nil {
		return time.Time{}
	}

	return s.Timestamp
}

// GetLastActor returns the last actor or nil.
func (s *AlertState) GetLastActor() *SystemActor {
	if s == nil {
		return nil
	}

	return s.LastActor
}

// GetSessionID returns the session id.
func (s *AlertState) GetSessionID() string {
	if s == nil {
		return ""
	}

	return s.SessionID
}

// ToStruct encodes the request.
func (r *GetAlertStateRequest) ToStruct() (*structpb.Struct, error) {
	fields := map[string]any{}
	putActor(fields, fieldRequestingActor, r.GetRequestingActor())

	return newStruct(fields)
}

// GetAlertStateRequestFromStruct decodes a request.
func GetAlertStateRequestFromStruct(s *structpb.Struct) (*GetAlertStateRequest, error) {
	actor, err := getActor(s, fieldRequestingActor)
	if err != nil {
		return nil, err
	}

	return &GetAlertStateRequest{RequestingActor: actor}, nil
}

// ToStruct encodes the request.
func (r *SetAlertStateRequest) ToStruct() (*structpb.Struct, error) {
	fields := map[string]any{
		fieldIsActive: r.GetIsActive(),
	}
	putActor(fields, fieldActor, r.GetActor())

	return newStruct(fields)
}

// SetAlertStateRequestFromStruct decodes a request.
func SetAlertStateRequestFromStruct(s *structpb.Struct) (*SetAlertStateRequest, error) {
	actor, err := getActor(s, fieldActor)
	if err != nil {
		return nil, err
	}

	isActive, err := getBool(s, fieldIsActive)
	if err != nil {
		return nil, err
	}

	return &SetAlertStateRequest{
		Actor:    actor,
		IsActive: isActive,
	}, nil
}

// ToStruct encodes the request.
func (r *ToggleAlertRequest) ToStruct() (*structpb.Struct, error) {
	fields := map[string]any{}
	putActor(fields, fieldActor, r.GetActor())

	return newStruct(fields)
}

// ToggleAlertRequestFromStruct decodes a request.
func ToggleAlertRequestFromStruct(s *structpb.Struct) (*ToggleAlertRequest, error) {
	actor, err := getActor(s, fieldActor)
	if err != nil {
		return nil, err
	}

	return &ToggleAlertRequest{Actor: actor}, nil
}

// ToStruct encodes the state.
func (s *AlertState) ToStruct() (*structpb.Struct, error) {
	if s == nil {
		return newStruct(map[string]any{})
	}

	fields := map[string]any{
		fieldIsActive:        s.IsActive,
		fieldSessionID:       s.SessionID,
		fieldTorchSupported:  s.TorchSupported,
		fieldTorchPermission: s.TorchPermission,
		fieldAudioAvailable:  s.AudioAvailable,
	}

	if !s.Timestamp.IsZero() {
		fields[fieldTimestamp] = s.Timestamp.UTC().Format(time.RFC3339Nano)
	}

	putActor(fields, fieldActor, s.LastActor)

	return newStruct(fields)
}

// AlertStateFromStruct decodes a state.
func AlertStateFromStruct(s *structpb.Struct) (*AlertState, error) {
	if s == nil {
		return nil, errNilPayload
	}

	var (
		state = new(AlertState)
		err   error
	)

	if state.LastActor, err = getActor(s, fieldActor); err != nil {
		return nil, err
	}

	if state.IsActive, err = getBool(s, fieldIsActive); err != nil {
		return nil, err
	}

	if state.TorchSupported, err = getBool(s, fieldTorchSupported); err != nil {
		return nil, err
	}

	if state.AudioAvailable, err = getBool(s, fieldAudioAvailable); err != nil {
		return nil, err
	}

	if state.SessionID, err = getString(s, fieldSessionID); err != nil {
		return nil, err
	}

	if state.TorchPermission, err = getString(s, fieldTorchPermission); err != nil {
		return nil, err
	}

	timestamp, err := getString(s, fieldTimestamp)
	if err != nil {
		return nil, err
	}

	if timestamp != "" {
		if state.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp); err != nil {
			return nil, fmt.Errorf("parse %s: %w", fieldTimestamp, err)
		}
	}

	return state, nil
}

// newStruct wraps structpb.NewStruct with context.
func newStruct(fields map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	return s, nil
}

// putActor stores a non-nil actor under key.
func putActor(fields map[string]any, key string, actor *SystemActor) {
	if actor == nil {
		return
	}

	fields[key] = map[string]any{
		fieldHostname: actor.Hostname,
		fieldUsername: actor.Username,
	}
}

// getActor reads an optional nested actor.
func getActor(s *structpb.Struct, key string) (*SystemActor, error) {
	value, ok := s.GetFields()[key]
	if !ok {
		return nil, nil //nolint:nilnil // Absent actor is valid.
	}

	if _, isNull := value.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, nil //nolint:nilnil // Absent actor is valid.
	}

	nested := value.GetStructValue()
	if nested == nil {
		return nil, fmt.Errorf("%s: %w", key, errWrongKind)
	}

	hostname, err := getString(nested, fieldHostname)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}

	username, err := getString(nested, fieldUsername)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}

	return &SystemActor{
		Hostname: hostname,
		Username: username,
	}, nil
}

// getString reads an optional string field.
func getString(s *structpb.Struct, key string) (string, error) {
	value, ok := s.GetFields()[key]
	if !ok {
		return "", nil
	}

	kind, ok := value.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%s: %w", key, errWrongKind)
	}

	return kind.StringValue, nil
}

// getBool reads an optional bool field.
func getBool(s *structpb.Struct, key string) (bool, error) {
	value, ok := s.GetFields()[key]
	if !ok {
		return false, nil
	}

	kind, ok := value.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, fmt.Errorf("%s: %w", key, errWrongKind)
	}

	return kind.BoolValue, nil
}
