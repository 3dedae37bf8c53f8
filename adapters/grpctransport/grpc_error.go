package grpctransport

import (
	"context"
	"errors"

	"myremoting/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorToGRPCUnaryInterceptor returns a unary server interceptor: runs the handler and maps a returned
// error via errorToGRPC, logging it for diagnostics.
//
// Called from application wiring when creating the gRPC server (grpc.ChainUnaryInterceptor).
func ErrorToGRPCUnaryInterceptor(logger log.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			level.Info(logger).Log(
				"msg", "unary handler error",
				"method", info.FullMethod,
				"err", err,
			)
			err = errorToGRPC(err)
		}
		return resp, err
	}
}

// errorToGRPC maps handler errors to a gRPC status: existing statuses other than Unknown are kept,
// typed errors map by code, everything else becomes Internal.
func errorToGRPC(err error) error {
	if err == nil {
		return nil
	}
	if s, ok := status.FromError(err); ok && s.Code() != codes.Unknown {
		return s.Err()
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	myErr := service.ToMyError(err)
	if myErr == nil {
		return status.Error(codes.Internal, "internal error")
	}
	switch myErr.Code {
	case service.ErrBadParameter:
		return status.Error(codes.InvalidArgument, myErr.Message)
	case service.ErrEntityNotFound:
		return status.Error(codes.NotFound, myErr.Message)
	case service.ErrServiceUnavailable, service.ErrCircuitOpen:
		return status.Error(codes.Unavailable, myErr.Message)
	case service.ErrRejected:
		return status.Error(codes.ResourceExhausted, myErr.Message)
	case service.ErrTimeout:
		return status.Error(codes.DeadlineExceeded, myErr.Message)
	default:
		return status.Error(codes.Internal, myErr.Message)
	}
}

// grpcToError maps a client side call error to a typed error. Unreachable peers become
// service_unavailable so the consuming bean is rebound; context errors are returned as is.
func grpcToError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	s, ok := status.FromError(err)
	if !ok {
		return service.NewRemoteFailureError("grpc call failed", err)
	}
	switch s.Code() {
	case codes.Unavailable:
		return service.NewServiceUnavailableError(s.Message(), err)
	case codes.InvalidArgument:
		return service.NewBadParameterError(s.Message(), err)
	case codes.NotFound, codes.Unimplemented:
		return service.NewServiceUnavailableError(s.Message(), err)
	case codes.DeadlineExceeded:
		return service.NewMyError(service.ErrTimeout, s.Message(), err)
	case codes.Canceled:
		return context.Canceled
	default:
		return service.NewRemoteFailureError(s.Message(), err)
	}
}
