// Package drive exposes a wheel actuator over gRPC so that the control loop and the
// serial link can live on different hosts. Messages are protobuf well-known types;
// the service is declared by hand rather than generated.
package drive

import (
	"context"
	"fmt"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region service-desc
const (
	ServiceName       = "navctl.Drive"
	methodDriveDirect = "/" + ServiceName + "/DriveDirect"
	methodStop        = "/" + ServiceName + "/Stop"
)

// Actuator is anything that can set wheel speeds.
type Actuator interface {
	DriveDirect(ctx context.Context, left, right int16) error
	Stop(ctx context.Context) error
}

// Server is the RPC surface of the Drive service.
type Server interface {
	DriveDirect(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	Stop(ctx context.Context, req *emptypb.Empty) (*emptypb.Empty, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "DriveDirect", Handler: driveDirectHandler},
		{MethodName: "Stop", Handler: stopHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "navctl/drive",
}

// #endregion service-desc

// #region server
type actuatorServer struct {
	a Actuator
}

// Register serves a on s.
func Register(s grpc.ServiceRegistrar, a Actuator) {
	s.RegisterService(&serviceDesc, &actuatorServer{a: a})
}

func (s *actuatorServer) DriveDirect(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	left, err := wheelField(req, "left")
	if err != nil {
		return nil, err
	}
	right, err := wheelField(req, "right")
	if err != nil {
		return nil, err
	}
	if err := s.a.DriveDirect(ctx, left, right); err != nil {
		return nil, status.Errorf(codes.Unavailable, "drive direct: %v", err)
	}
	return &emptypb.Empty{}, nil
}

func (s *actuatorServer) Stop(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.a.Stop(ctx); err != nil {
		return nil, status.Errorf(codes.Unavailable, "stop: %v", err)
	}
	return &emptypb.Empty{}, nil
}

func wheelField(req *structpb.Struct, name string) (int16, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "missing %q", name)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%q is not a number", name)
	}
	f := n.NumberValue
	if f != math.Trunc(f) || f < math.MinInt16 || f > math.MaxInt16 {
		return 0, status.Errorf(codes.InvalidArgument, "%q out of range: %v", name, f)
	}
	return int16(f), nil
}

func driveDirectHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).DriveDirect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodDriveDirect}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(Server).DriveDirect(ctx, req.(*structpb.Struct))
	})
}

func stopHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).Stop(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodStop}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(Server).Stop(ctx, req.(*emptypb.Empty))
	})
}

// #endregion server

func wheelRequest(left, right int16) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(map[string]any{
		"left":  float64(left),
		"right": float64(right),
	})
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return req, nil
}
