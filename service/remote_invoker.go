package service

import (
	"fmt"

	"myremoting/domain"
	"myremoting/helpers"
	"myremoting/interfaces"
	"myremoting/stream"

	"github.com/google/uuid"
)

// RemoteServiceInvoker is the client half of a remote service stub: it serializes calls into
// InvocationRequests for one exported service and turns responses back into values or typed errors.
// Stubs registered with RegisterRemoteProxy receive one per bind.
type RemoteServiceInvoker struct {
	service   string
	transport interfaces.RemotingTransport
	codec     interfaces.Codec
}

// NewRemoteServiceInvoker creates an invoker for service over transport. Panics on nil dependencies or
// empty service.
func NewRemoteServiceInvoker(service string, transport interfaces.RemotingTransport, codec interfaces.Codec) *RemoteServiceInvoker {
	return &RemoteServiceInvoker{
		service:   helpers.StrPanic(service, "service.remote_invoker.go: service is required"),
		transport: helpers.NilPanic(transport, "service.remote_invoker.go: transport is required"),
		codec:     helpers.NilPanic(codec, "service.remote_invoker.go: codec is required"),
	}
}

// Service returns the exported service name the invoker calls.
func (i *RemoteServiceInvoker) Service() string {
	return i.service
}

// PartitionCount returns the partition count of the transport.
func (i *RemoteServiceInvoker) PartitionCount() int {
	return i.transport.PartitionCount()
}

func (i *RemoteServiceInvoker) request(method string, arg any) (domain.InvocationRequest, error) {
	payload, err := i.codec.Marshal(arg)
	if err != nil {
		return domain.InvocationRequest{}, NewBadParameterError(fmt.Sprintf("encode argument of %s.%s", i.service, method), err)
	}
	return domain.InvocationRequest{
		Service:       i.service,
		Method:        method,
		Payload:       payload,
		CorrelationID: uuid.NewString(),
	}, nil
}

func decodeResponse[R any](codec interfaces.Codec, resp domain.InvocationResponse) (R, error) {
	var out R
	if resp.Failed() {
		return out, NewMyError(resp.ErrorCode, resp.ErrorMessage, nil)
	}
	if len(resp.Payload) == 0 {
		return out, nil
	}
	if err := codec.Unmarshal(resp.Payload, &out); err != nil {
		return out, NewRemoteFailureError("decode response", err)
	}
	return out, nil
}

func decodeResponses[R any](codec interfaces.Codec, resps []domain.InvocationResponse) ([]R, error) {
	out := make([]R, 0, len(resps))
	for _, resp := range resps {
		v, err := decodeResponse[R](codec, resp)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// RoutedArg is one argument of a multi-routed call together with the key selecting its partition.
type RoutedArg[A any] struct {
	Key domain.RoutingKey
	Arg A
}

// InvokeRouted calls method on the partition owning key.
func InvokeRouted[A, R any](i *RemoteServiceInvoker, method string, key domain.RoutingKey, arg A) *stream.Stream[R] {
	req, err := i.request(method, arg)
	if err != nil {
		return stream.Fail[R](err)
	}
	return stream.Map(i.transport.SubmitRoutedRequest(req, key), func(resp domain.InvocationResponse) (R, error) {
		return decodeResponse[R](i.codec, resp)
	})
}

// InvokeRoutedMany calls method once per argument, each on its own partition, and yields the results in
// completion order. One failed call fails the whole batch.
func InvokeRoutedMany[A, R any](i *RemoteServiceInvoker, method string, args []RoutedArg[A]) *stream.Stream[[]R] {
	reqs := make([]domain.RoutedRequest, 0, len(args))
	for _, a := range args {
		req, err := i.request(method, a.Arg)
		if err != nil {
			return stream.Fail[[]R](err)
		}
		reqs = append(reqs, domain.RoutedRequest{Request: req, RoutingKey: a.Key})
	}
	return stream.Map(i.transport.SubmitRoutedRequests(reqs), func(resps []domain.InvocationResponse) ([]R, error) {
		return decodeResponses[R](i.codec, resps)
	})
}

// InvokeBroadcast calls method on every partition and yields one result per partition.
func InvokeBroadcast[A, R any](i *RemoteServiceInvoker, method string, arg A) *stream.Stream[[]R] {
	req, err := i.request(method, arg)
	if err != nil {
		return stream.Fail[[]R](err)
	}
	return stream.Map(i.transport.SubmitBroadcastRequest(req), func(resps []domain.InvocationResponse) ([]R, error) {
		return decodeResponses[R](i.codec, resps)
	})
}
