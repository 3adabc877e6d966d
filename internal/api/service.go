package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "mirador.slo.v1.SLOOrchestrator"

const (
	askMethod          = "/" + ServiceName + "/Ask"
	resolveTimeMethod  = "/" + ServiceName + "/ResolveTime"
	matchServiceMethod = "/" + ServiceName + "/MatchService"
)

// SLOOrchestratorServer answers SLO questions. Requests and responses are
// free-form JSON objects carried as google.protobuf.Struct.
type SLOOrchestratorServer interface {
	Ask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ResolveTime(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	MatchService(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedSLOOrchestratorServer returns Unimplemented for every method.
type UnimplementedSLOOrchestratorServer struct{}

func (UnimplementedSLOOrchestratorServer) Ask(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Ask not implemented")
}

func (UnimplementedSLOOrchestratorServer) ResolveTime(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ResolveTime not implemented")
}

func (UnimplementedSLOOrchestratorServer) MatchService(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method MatchService not implemented")
}

// RegisterSLOOrchestratorServer attaches srv to a gRPC server.
func RegisterSLOOrchestratorServer(s grpc.ServiceRegistrar, srv SLOOrchestratorServer) {
	s.RegisterService(&sloOrchestratorServiceDesc, srv)
}

func unaryHandler(method string, call func(SLOOrchestratorServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		impl := srv.(SLOOrchestratorServer)
		if interceptor == nil {
			return call(impl, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(impl, ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var sloOrchestratorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SLOOrchestratorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Ask",
			Handler:    unaryHandler(askMethod, SLOOrchestratorServer.Ask),
		},
		{
			MethodName: "ResolveTime",
			Handler:    unaryHandler(resolveTimeMethod, SLOOrchestratorServer.ResolveTime),
		},
		{
			MethodName: "MatchService",
			Handler:    unaryHandler(matchServiceMethod, SLOOrchestratorServer.MatchService),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mirador/slo/v1/orchestrator.proto",
}

// SLOOrchestratorClient calls the orchestrator over a gRPC connection.
type SLOOrchestratorClient struct {
	cc grpc.ClientConnInterface
}

// NewSLOOrchestratorClient wraps an established connection.
func NewSLOOrchestratorClient(cc grpc.ClientConnInterface) *SLOOrchestratorClient {
	return &SLOOrchestratorClient{cc: cc}
}

func (c *SLOOrchestratorClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Ask sends a question.
func (c *SLOOrchestratorClient) Ask(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, askMethod, in, opts...)
}

// ResolveTime resolves a time expression.
func (c *SLOOrchestratorClient) ResolveTime(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, resolveTimeMethod, in, opts...)
}

// MatchService ranks catalog entries against a name.
func (c *SLOOrchestratorClient) MatchService(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, matchServiceMethod, in, opts...)
}
