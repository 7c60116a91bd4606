package dashboardpb

import (
	"context"

	"google.golang.org/grpc"
)

const (
	ServiceName = "dashboard.DashboardService"

	StreamTrainingFullMethodName = "/dashboard.DashboardService/StreamTraining"
	PingFullMethodName           = "/dashboard.DashboardService/Ping"

	// RunIDMetadataKey carries the producer's run identifier on StreamTraining calls.
	RunIDMetadataKey = "x-run-id"
)

// DashboardServer is the server API for the dashboard service.
type DashboardServer interface {
	// StreamTraining consumes training batches until the client closes the
	// stream, then answers once.
	StreamTraining(grpc.ClientStreamingServer[TrainingBatch, Ack]) error
	// Ping is a reachability probe.
	Ping(context.Context, *Heartbeat) (*Ack, error)
}

// RegisterDashboardServer registers srv on s.
func RegisterDashboardServer(s grpc.ServiceRegistrar, srv DashboardServer) {
	s.RegisterService(&DashboardService_ServiceDesc, srv)
}

func _DashboardService_StreamTraining_Handler(srv any, stream grpc.ServerStream) error {
	return srv.(DashboardServer).StreamTraining(&grpc.GenericServerStream[TrainingBatch, Ack]{ServerStream: stream})
}

func _DashboardService_Ping_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Heartbeat)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DashboardServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: PingFullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DashboardServer).Ping(ctx, req.(*Heartbeat))
	}
	return interceptor(ctx, in, info, handler)
}

// DashboardService_ServiceDesc describes the dashboard service for grpc.Server.
var DashboardService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DashboardServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Ping",
			Handler:    _DashboardService_Ping_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamTraining",
			Handler:       _DashboardService_StreamTraining_Handler,
			ClientStreams: true,
		},
	},
	Metadata: "dashboard.proto",
}

// DashboardClient is the client API for the dashboard service.
type DashboardClient interface {
	StreamTraining(ctx context.Context, opts ...grpc.CallOption) (grpc.ClientStreamingClient[TrainingBatch, Ack], error)
	Ping(ctx context.Context, in *Heartbeat, opts ...grpc.CallOption) (*Ack, error)
}

type dashboardClient struct {
	cc grpc.ClientConnInterface
}

// NewDashboardClient returns a client bound to cc. Calls are encoded with Codec.
func NewDashboardClient(cc grpc.ClientConnInterface) DashboardClient {
	return &dashboardClient{cc}
}

func (c *dashboardClient) StreamTraining(ctx context.Context, opts ...grpc.CallOption) (grpc.ClientStreamingClient[TrainingBatch, Ack], error) {
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	stream, err := c.cc.NewStream(ctx, &DashboardService_ServiceDesc.Streams[0], StreamTrainingFullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[TrainingBatch, Ack]{ClientStream: stream}, nil
}

func (c *dashboardClient) Ping(ctx context.Context, in *Heartbeat, opts ...grpc.CallOption) (*Ack, error) {
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	out := new(Ack)
	if err := c.cc.Invoke(ctx, PingFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
