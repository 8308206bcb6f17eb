package alert

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/sos-beacon/internal/domain/alert"
	"github.com/oshokin/sos-beacon/internal/logger"
	pb "github.com/oshokin/sos-beacon/internal/pb/v1"
	"github.com/oshokin/sos-beacon/internal/service/sos"
)

// Service abstracts the controller operations the transport layer depends on.
type Service interface {
	Snapshot() *domain.Snapshot
	Toggle(ctx context.Context, actor *domain.Actor) (*domain.Snapshot, error)
	SetDesired(ctx context.Context, actor *domain.Actor, active bool) (*domain.Snapshot, error)
}

// Server implements the AlertService gRPC API.
type Server struct {
	pb.UnimplementedAlertServiceServer

	// service drives the alert.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// GetAlertState returns the current alert state.
func (s *Server) GetAlertState(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	request, err := pb.GetAlertStateRequestFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if actor := request.GetRequestingActor(); actor != nil {
		logger.DebugKV(ctx, "Alert state requested",
			"hostname", actor.GetHostname(),
			"username", actor.GetUsername(),
		)
	}

	return encode(s.service.Snapshot())
}

// SetAlertState converges the alert towards the requested state.
func (s *Server) SetAlertState(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	request, err := pb.SetAlertStateRequestFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if request.GetActor() == nil {
		return nil, status.Error(codes.InvalidArgument, "actor is required")
	}

	snapshot, err := s.service.SetDesired(ctx, toDomainActor(request.GetActor()), request.GetIsActive())
	if err != nil {
		return nil, toStatus(err)
	}

	return encode(snapshot)
}

// ToggleAlert flips the alert.
func (s *Server) ToggleAlert(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	request, err := pb.ToggleAlertRequestFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if request.GetActor() == nil {
		return nil, status.Error(codes.InvalidArgument, "actor is required")
	}

	snapshot, err := s.service.Toggle(ctx, toDomainActor(request.GetActor()))
	if err != nil {
		return nil, toStatus(err)
	}

	return encode(snapshot)
}

// ToProtoState converts a snapshot into the wire representation.
func ToProtoState(snapshot *domain.Snapshot) *pb.AlertState {
	if snapshot == nil {
		return new(pb.AlertState)
	}

	var actor *pb.SystemActor
	if snapshot.LastActor != nil {
		actor = &pb.SystemActor{
			Hostname: snapshot.LastActor.Hostname,
			Username: snapshot.LastActor.Username,
		}
	}

	return &pb.AlertState{
		IsActive:        snapshot.IsActive(),
		Timestamp:       snapshot.Timestamp,
		LastActor:       actor,
		SessionID:       snapshot.SessionID,
		TorchSupported:  snapshot.TorchSupported,
		TorchPermission: snapshot.Torch.String(),
		AudioAvailable:  snapshot.AudioAvailable,
	}
}

// encode converts a snapshot into a reply.
func encode(snapshot *domain.Snapshot) (*structpb.Struct, error) {
	out, err := ToProtoState(snapshot).ToStruct()
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode state")
	}

	return out, nil
}

// toStatus maps controller errors to gRPC codes.
func toStatus(err error) error {
	if errors.Is(err, sos.ErrClosed) {
		return status.Error(codes.Unavailable, "beacon is shutting down")
	}

	return status.Error(codes.Internal, "unable to change alert state")
}

// toDomainActor converts a wire actor to a domain actor.
func toDomainActor(actor *pb.SystemActor) *domain.Actor {
	if actor == nil {
		return nil
	}

	return &domain.Actor{
		Hostname: actor.GetHostname(),
		Username: actor.GetUsername(),
	}
}
