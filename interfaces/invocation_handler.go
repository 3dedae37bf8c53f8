package interfaces

import (
	"context"

	"myremoting/domain"
)

// MethodHandler executes one exported method on a serialized argument payload.
type MethodHandler func(ctx context.Context, payload []byte) ([]byte, error)

// MethodTable maps method identifiers of one exported service to their handlers.
type MethodTable map[string]MethodHandler

// InvocationHandler is the server side of remoting: it turns a request into a response and never fails
// at the transport level, errors travel inside the response.
//
// Implemented by service.ServiceExporter. Called from adapters.LocalTaskDispatcher and grpctransport.Server.
//
//go:generate moq -stub -out mock/invocation_handler.go -pkg mock . InvocationHandler
type InvocationHandler interface {
	Handle(ctx context.Context, req domain.InvocationRequest) domain.InvocationResponse
}
