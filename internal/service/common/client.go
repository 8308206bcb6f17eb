//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/sos-beacon/internal/config"
	pb "github.com/oshokin/sos-beacon/internal/pb/v1"
	"github.com/oshokin/sos-beacon/internal/version"
)

// Client wraps the gRPC AlertService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the beacon.
	conn *grpc.ClientConn
	// api is the AlertService client interface.
	api pb.AlertServiceClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errActorRequired is returned when an actor is not provided but is required for the operation.
	errActorRequired = errors.New("actor must be provided")
)

// Dial establishes a gRPC connection to the beacon.
// The control API is served on loopback, so the transport is insecure.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	// Use the non-context NewClient API recommended by grpc-go
	// (DialContext is deprecated as of grpc-go v1.60+).
	conn, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUserAgent(version.UserAgent()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial beacon: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         pb.NewAlertServiceClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// GetAlertState retrieves the current alert state.
func (c *Client) GetAlertState(ctx context.Context, actor *pb.SystemActor) (*pb.AlertState, error) {
	request := &pb.GetAlertStateRequest{RequestingActor: actor}

	response, err := c.call(ctx, request, c.api.GetAlertState)
	if err != nil {
		return nil, fmt.Errorf("get alert state: %w", err)
	}

	return response, nil
}

// SetAlertState sets the remote alert to the desired state.
func (c *Client) SetAlertState(
	ctx context.Context,
	actor *pb.SystemActor,
	isActive bool,
) (*pb.AlertState, error) {
	if actor == nil {
		return nil, errActorRequired
	}

	request := &pb.SetAlertStateRequest{
		Actor:    actor,
		IsActive: isActive,
	}

	response, err := c.call(ctx, request, c.api.SetAlertState)
	if err != nil {
		return nil, fmt.Errorf("set alert state: %w", err)
	}

	return response, nil
}

// ToggleAlert flips the remote alert.
func (c *Client) ToggleAlert(ctx context.Context, actor *pb.SystemActor) (*pb.AlertState, error) {
	if actor == nil {
		return nil, errActorRequired
	}

	response, err := c.call(ctx, &pb.ToggleAlertRequest{Actor: actor}, c.api.ToggleAlert)
	if err != nil {
		return nil, fmt.Errorf("toggle alert: %w", err)
	}

	return response, nil
}

// request is any message with a Struct encoding.
type request interface {
	ToStruct() (*structpb.Struct, error)
}

// method is a unary AlertService call.
type method func(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)

// call encodes the request, invokes the method under the call timeout and decodes the state.
func (c *Client) call(ctx context.Context, in request, invoke method) (*pb.AlertState, error) {
	payload, err := in.ToStruct()
	if err != nil {
		return nil, err
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	out, err := invoke(callCtx, payload)
	if err != nil {
		return nil, err
	}

	return pb.AlertStateFromStruct(out)
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
