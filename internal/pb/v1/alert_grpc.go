package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

//nolint:revive,stylecheck // Names follow the protoc-gen-go-grpc convention.
const (
	AlertService_GetAlertState_FullMethodName = "/sos.v1.AlertService/GetAlertState"
	AlertService_SetAlertState_FullMethodName = "/sos.v1.AlertService/SetAlertState"
	AlertService_ToggleAlert_FullMethodName   = "/sos.v1.AlertService/ToggleAlert"
)

// AlertServiceClient is the client API for AlertService.
type AlertServiceClient interface {
	GetAlertState(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	SetAlertState(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ToggleAlert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type alertServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAlertServiceClient creates an AlertService client on cc.
func NewAlertServiceClient(cc grpc.ClientConnInterface) AlertServiceClient {
	return &alertServiceClient{cc}
}

func (c *alertServiceClient) GetAlertState(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)

	err := c.cc.Invoke(ctx, AlertService_GetAlertState_FullMethodName, in, out, opts...)
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (c *alertServiceClient) SetAlertState(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)

	err := c.cc.Invoke(ctx, AlertService_SetAlertState_FullMethodName, in, out, opts...)
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (c *alertServiceClient) ToggleAlert(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)

	err := c.cc.Invoke(ctx, AlertService_ToggleAlert_FullMethodName, in, out, opts...)
	if err != nil {
		return nil, err
	}

	return out, nil
}

// AlertServiceServer is the server API for AlertService.
// Implementations must embed UnimplementedAlertServiceServer.
type AlertServiceServer interface {
	GetAlertState(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	SetAlertState(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ToggleAlert(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	mustEmbedUnimplementedAlertServiceServer()
}

// UnimplementedAlertServiceServer answers every method with codes.Unimplemented.
type UnimplementedAlertServiceServer struct{}

// GetAlertState is not implemented.
func (UnimplementedAlertServiceServer) GetAlertState(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAlertState not implemented")
}

// SetAlertState is not implemented.
func (UnimplementedAlertServiceServer) SetAlertState(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method SetAlertState not implemented")
}

// ToggleAlert is not implemented.
func (UnimplementedAlertServiceServer) ToggleAlert(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ToggleAlert not implemented")
}

func (UnimplementedAlertServiceServer) mustEmbedUnimplementedAlertServiceServer() {}

// RegisterAlertServiceServer registers srv on s.
func RegisterAlertServiceServer(s grpc.ServiceRegistrar, srv AlertServiceServer) {
	s.RegisterService(&AlertService_ServiceDesc, srv)
}

//nolint:revive,stylecheck // Name follows the protoc-gen-go-grpc convention.
func _AlertService_GetAlertState_Handler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(AlertServiceServer).GetAlertState(ctx, in) //nolint:forcetypeassert // Guaranteed by HandlerType.
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AlertService_GetAlertState_FullMethodName,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AlertServiceServer).GetAlertState(ctx, req.(*structpb.Struct)) //nolint:forcetypeassert // Guaranteed by dec.
	}

	return interceptor(ctx, in, info, handler)
}

//nolint:revive,stylecheck // Name follows the protoc-gen-go-grpc convention.
func _AlertService_SetAlertState_Handler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(AlertServiceServer).SetAlertState(ctx, in) //nolint:forcetypeassert // Guaranteed by HandlerType.
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AlertService_SetAlertState_FullMethodName,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AlertServiceServer).SetAlertState(ctx, req.(*structpb.Struct)) //nolint:forcetypeassert // Guaranteed by dec.
	}

	return interceptor(ctx, in, info, handler)
}

//nolint:revive,stylecheck // Name follows the protoc-gen-go-grpc convention.
func _AlertService_ToggleAlert_Handler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(AlertServiceServer).ToggleAlert(ctx, in) //nolint:forcetypeassert // Guaranteed by HandlerType.
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AlertService_ToggleAlert_FullMethodName,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AlertServiceServer).ToggleAlert(ctx, req.(*structpb.Struct)) //nolint:forcetypeassert // Guaranteed by dec.
	}

	return interceptor(ctx, in, info, handler)
}

// AlertService_ServiceDesc is the grpc.ServiceDesc for AlertService.
//
//nolint:gochecknoglobals,revive,stylecheck // Service descriptors are package-level by convention.
var AlertService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "sos.v1.AlertService",
	HandlerType: (*AlertServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetAlertState",
			Handler:    _AlertService_GetAlertState_Handler,
		},
		{
			MethodName: "SetAlertState",
			Handler:    _AlertService_SetAlertState_Handler,
		},
		{
			MethodName: "ToggleAlert",
			Handler:    _AlertService_ToggleAlert_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sos/v1/alert.proto",
}
