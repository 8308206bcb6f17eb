package alert

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/sos-beacon/internal/domain/alert"
	pb "github.com/oshokin/sos-beacon/internal/pb/v1"
	"github.com/oshokin/sos-beacon/internal/service/sos"
)

var errBroken = errors.New("broken")

// fakeService implements the Service interface for unit testing the transport.
type fakeService struct {
	// err, when set, fails every transition.
	err error
	// state holds the current snapshot.
	state *domain.Snapshot
}

// Snapshot returns the current snapshot.
func (f *fakeService) Snapshot() *domain.Snapshot {
	if f.state == nil {
		return new(domain.Snapshot)
	}

	return f.state.Clone()
}

// Toggle flips the state.
func (f *fakeService) Toggle(ctx context.Context, actor *domain.Actor) (*domain.Snapshot, error) {
	return f.SetDesired(ctx, actor, !f.Snapshot().IsActive())
}

// SetDesired records the desired state.
func (f *fakeService) SetDesired(_ context.Context, actor *domain.Actor, active bool) (*domain.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}

	state := domain.Inactive
	if active {
		state = domain.Active
	}

	f.state = &domain.Snapshot{
		State:     state,
		Timestamp: time.Now(),
		LastActor: actor,
		SessionID: "session-1",
		Torch:     domain.PermissionDenied,
	}

	return f.state.Clone(), nil
}

// structer is any request with a Struct encoding.
type structer interface {
	ToStruct() (*structpb.Struct, error)
}

// mustStruct encodes a request for a test.
func mustStruct(t *testing.T, request structer) *structpb.Struct {
	t.Helper()

	s, err := request.ToStruct()
	require.NoError(t, err)

	return s
}

//nolint:gochecknoglobals // Shared read-only fixture.
var actor = &pb.SystemActor{Hostname: "test-hostname", Username: "test-user"}

// TestServer_Validation ensures invalid requests return InvalidArgument errors.
func TestServer_Validation(t *testing.T) {
	t.Parallel()

	s := NewServer(new(fakeService))

	_, err := s.SetAlertState(context.Background(), nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.SetAlertState(context.Background(), mustStruct(t, &pb.SetAlertStateRequest{IsActive: true}))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.ToggleAlert(context.Background(), nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.ToggleAlert(context.Background(), mustStruct(t, new(pb.ToggleAlertRequest)))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	malformed, err := structpb.NewStruct(map[string]any{"is_active": "yes", "actor": map[string]any{}})
	require.NoError(t, err)

	_, err = s.SetAlertState(context.Background(), malformed)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestServer_Roundtrip exercises SetAlertState, ToggleAlert and GetAlertState on the server.
func TestServer_Roundtrip(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		s := NewServer(new(fakeService))

		_, err := s.SetAlertState(context.Background(), mustStruct(t, &pb.SetAlertStateRequest{
			Actor:    actor,
			IsActive: true,
		}))
		require.NoError(t, err)

		out, err := s.GetAlertState(context.Background(), mustStruct(t, &pb.GetAlertStateRequest{RequestingActor: actor}))
		require.NoError(t, err)

		response, err := pb.AlertStateFromStruct(out)
		require.NoError(t, err)
		require.True(t, response.GetIsActive())
		require.Equal(t, "test-hostname", response.GetLastActor().GetHostname())
		require.Equal(t, "test-user", response.GetLastActor().GetUsername())
		require.Equal(t, "session-1", response.GetSessionID())
		require.Equal(t, "denied", response.TorchPermission)
		require.True(t, time.Now().Equal(response.GetTimestamp()))

		out, err = s.ToggleAlert(context.Background(), mustStruct(t, &pb.ToggleAlertRequest{Actor: actor}))
		require.NoError(t, err)

		response, err = pb.AlertStateFromStruct(out)
		require.NoError(t, err)
		require.False(t, response.GetIsActive())
	})
}

// TestServer_ServiceErrors maps controller failures to status codes.
func TestServer_ServiceErrors(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeService{err: fmt.Errorf("toggle: %w", sos.ErrClosed)})

	_, err := s.ToggleAlert(context.Background(), mustStruct(t, &pb.ToggleAlertRequest{Actor: actor}))
	require.Equal(t, codes.Unavailable, status.Code(err))

	s = NewServer(&fakeService{err: errBroken})

	_, err = s.SetAlertState(context.Background(), mustStruct(t, &pb.SetAlertStateRequest{Actor: actor}))
	require.Equal(t, codes.Internal, status.Code(err))
}

// TestToProtoState covers empty and populated snapshots.
func TestToProtoState(t *testing.T) {
	t.Parallel()

	state := ToProtoState(nil)
	require.False(t, state.GetIsActive())
	require.Nil(t, state.GetLastActor())

	state = ToProtoState(&domain.Snapshot{State: domain.Active, Torch: domain.PermissionGranted})
	require.True(t, state.GetIsActive())
	require.Equal(t, "granted", state.TorchPermission)
}
