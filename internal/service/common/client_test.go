//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	pb "github.com/oshokin/sos-beacon/internal/pb/v1"
)

// TestDial_ValidatesAddress verifies that Dial rejects empty addresses.
func TestDial_ValidatesAddress(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), "")
	require.Error(t, err)
	require.Nil(t, c)
}

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := &Client{
		callTimeout: 0,
	}

	ctx, cancel := c.callContext(context.Background())
	cancel()

	require.NotNil(t, ctx)

	c.callTimeout = 10 * time.Millisecond

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}

// TestClient_NilActor asserts that a nil actor is rejected by the client.
func TestClient_NilActor(t *testing.T) {
	t.Parallel()

	c := new(Client)

	_, err := c.SetAlertState(context.Background(), nil, true)
	require.ErrorIs(t, err, errActorRequired)

	_, err = c.ToggleAlert(context.Background(), nil)
	require.ErrorIs(t, err, errActorRequired)
}

// stateServer answers GetAlertState and leaves the rest unimplemented.
type stateServer struct {
	pb.UnimplementedAlertServiceServer
}

// GetAlertState echoes the requesting actor as the last actor.
func (stateServer) GetAlertState(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	request, err := pb.GetAlertStateRequestFromStruct(in)
	if err != nil {
		return nil, err
	}

	state := &pb.AlertState{
		IsActive:        true,
		LastActor:       request.GetRequestingActor(),
		TorchPermission: "prompt",
	}

	return state.ToStruct()
}

// TestClient_Calls exercises the client against an in-process server.
func TestClient_Calls(t *testing.T) {
	t.Parallel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := grpc.NewServer()
	pb.RegisterAlertServiceServer(server, stateServer{})

	go func() {
		_ = server.Serve(listener)
	}()

	defer server.Stop()

	client, err := Dial(context.Background(), listener.Addr().String(), WithCallTimeout(5*time.Second))
	require.NoError(t, err)

	defer func() { require.NoError(t, client.Close()) }()

	actor := &pb.SystemActor{Hostname: "desk", Username: "ops"}

	state, err := client.GetAlertState(context.Background(), actor)
	require.NoError(t, err)
	require.True(t, state.GetIsActive())
	require.Equal(t, actor, state.GetLastActor())

	_, err = client.ToggleAlert(context.Background(), actor)
	require.Equal(t, codes.Unimplemented, status.Code(errors.Unwrap(err)))

	_, err = client.SetAlertState(context.Background(), actor, false)
	require.Equal(t, codes.Unimplemented, status.Code(errors.Unwrap(err)))
}
