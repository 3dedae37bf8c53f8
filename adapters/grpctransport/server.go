// Package grpctransport carries remoting invocations over a single gRPC unary method,
// /myremoting.v1.Remoting/Invoke. The payload travels as wrapperspb.BytesValue; the routing fields of
// domain.InvocationRequest travel as metadata and an application error comes back in response headers.
package grpctransport

import (
	"context"
	"strconv"

	"myremoting/domain"
	"myremoting/helpers"
	"myremoting/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	serviceName  = "myremoting.v1.Remoting"
	invokeMethod = "/" + serviceName + "/Invoke"

	mdService       = "x-myremoting-service"
	mdMethod        = "x-myremoting-method"
	mdCorrelationID = "x-myremoting-correlation-id"
	mdPartition     = "x-myremoting-partition"
	mdErrorCode     = "x-myremoting-error-code"
	mdErrorMessage  = "x-myremoting-error-message-bin"
)

// remotingServer is the handler type of the manual service descriptor.
type remotingServer interface {
	Invoke(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

var remotingServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*remotingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Invoke", Handler: invokeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "myremoting/v1/remoting.proto",
}

func invokeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(remotingServer).Invoke(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: invokeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(remotingServer).Invoke(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Server adapts an interfaces.InvocationHandler (normally service.ServiceExporter) to gRPC.
type Server struct {
	handler interfaces.InvocationHandler
	logger  log.Logger
}

var _ remotingServer = (*Server)(nil)

// NewServer creates a Server. Panics on nil handler or logger.
//
// Called from application wiring next to grpc.NewServer; Register attaches it.
func NewServer(handler interfaces.InvocationHandler, logger log.Logger) *Server {
	return &Server{
		handler: helpers.NilPanic(handler, "grpctransport.server.go: handler is required"),
		logger:  log.With(helpers.NilPanic(logger, "grpctransport.server.go: logger is required"), "component", "grpc_remoting_server"),
	}
}

// Register attaches s to gs.
func (s *Server) Register(gs grpc.ServiceRegistrar) {
	gs.RegisterService(&remotingServiceDesc, s)
}

// Invoke decodes the routing metadata, runs the handler and answers its payload. An error indicator
// of the handler response is sent as headers with an OK status.
func (s *Server) Invoke(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	req, err := requestFromMetadata(ctx, in)
	if err != nil {
		return nil, err
	}
	resp := s.handler.Handle(ctx, req)
	header := metadata.Pairs(mdCorrelationID, resp.CorrelationID)
	if resp.Failed() {
		header.Append(mdErrorCode, resp.ErrorCode)
		header.Append(mdErrorMessage, resp.ErrorMessage)
		level.Debug(s.logger).Log("msg", "invocation failed", "service", req.Service, "method", req.Method, "code", resp.ErrorCode)
	}
	if err := grpc.SetHeader(ctx, header); err != nil {
		return nil, status.Errorf(codes.Internal, "set response header: %v", err)
	}
	return &wrapperspb.BytesValue{Value: resp.Payload}, nil
}

func requestFromMetadata(ctx context.Context, in *wrapperspb.BytesValue) (domain.InvocationRequest, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	first := func(key string) string {
		if v := md.Get(key); len(v) > 0 {
			return v[0]
		}
		return ""
	}
	req := domain.InvocationRequest{
		Service:       first(mdService),
		Method:        first(mdMethod),
		Payload:       in.GetValue(),
		CorrelationID: first(mdCorrelationID),
	}
	if req.Service == "" || req.Method == "" {
		return domain.InvocationRequest{}, status.Error(codes.InvalidArgument, "service and method metadata are required")
	}
	if p := first(mdPartition); p != "" {
		partition, err := strconv.Atoi(p)
		if err != nil {
			return domain.InvocationRequest{}, status.Errorf(codes.InvalidArgument, "invalid partition %q", p)
		}
		req.Partition = partition
	}
	return req, nil
}
