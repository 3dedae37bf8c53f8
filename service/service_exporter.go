package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"myremoting/domain"
	"myremoting/helpers"
	"myremoting/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// ServiceExporter implements interfaces.InvocationHandler: the server side of remoting. It dispatches
// incoming requests to the method tables of exported services. Errors are returned inside the response,
// never as transport failures.
type ServiceExporter struct {
	logger log.Logger

	mu       sync.RWMutex
	services map[string]interfaces.MethodTable
}

var _ interfaces.InvocationHandler = (*ServiceExporter)(nil)

// NewServiceExporter creates an exporter with no services. Panics on nil logger.
func NewServiceExporter(logger log.Logger) *ServiceExporter {
	return &ServiceExporter{
		logger:   log.With(helpers.NilPanic(logger, "service.service_exporter.go: logger is required"), "component", "service_exporter"),
		services: make(map[string]interfaces.MethodTable),
	}
}

// Export makes methods callable as service.
//
// Returns: bad_parameter on empty name or table; configuration_error when service is already exported.
func (e *ServiceExporter) Export(service string, methods interfaces.MethodTable) error {
	if service == "" || len(methods) == 0 {
		return NewBadParameterError("service name and methods are required", nil)
	}
	table := make(interfaces.MethodTable, len(methods))
	for name, h := range methods {
		if h == nil {
			return NewBadParameterError(fmt.Sprintf("method %s.%s has no handler", service, name), nil)
		}
		table[name] = h
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.services[service]; ok {
		return NewConfigurationError(fmt.Sprintf("service %s is already exported", service), nil)
	}
	e.services[service] = table
	level.Info(e.logger).Log("msg", "service exported", "service", service, "methods", len(table))
	return nil
}

// Unexport removes service. Later requests answer service_unavailable.
func (e *ServiceExporter) Unexport(service string) {
	e.mu.Lock()
	delete(e.services, service)
	e.mu.Unlock()
}

// Services lists exported service names in ascending order.
func (e *ServiceExporter) Services() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.services))
	for s := range e.services {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Handle runs the requested method and echoes the correlation id.
func (e *ServiceExporter) Handle(ctx context.Context, req domain.InvocationRequest) (resp domain.InvocationResponse) {
	resp.CorrelationID = req.CorrelationID
	e.mu.RLock()
	table, ok := e.services[req.Service]
	e.mu.RUnlock()
	if !ok {
		return failed(resp, NewServiceUnavailableError(fmt.Sprintf("service %s is not exported here", req.Service), nil))
	}
	handler, ok := table[req.Method]
	if !ok {
		return failed(resp, NewBadParameterError(fmt.Sprintf("service %s has no method %s", req.Service, req.Method), nil))
	}

	defer func() {
		if r := recover(); r != nil {
			level.Error(e.logger).Log("msg", "method panicked", "service", req.Service, "method", req.Method, "err", fmt.Errorf("%v", r))
			resp = failed(domain.InvocationResponse{CorrelationID: req.CorrelationID}, NewInternalServerError("method panicked", nil))
		}
	}()
	payload, err := handler(context.WithValue(ctx, partitionKey{}, req.Partition), req.Payload)
	if err != nil {
		level.Debug(e.logger).Log("msg", "method failed", "service", req.Service, "method", req.Method, "partition", req.Partition, "err", err)
		return failed(resp, err)
	}
	resp.Payload = payload
	return resp
}

type partitionKey struct{}

// PartitionFromContext returns the partition a method invocation was dispatched to. It is only set
// inside handlers run by ServiceExporter.Handle.
func PartitionFromContext(ctx context.Context) (int, bool) {
	p, ok := ctx.Value(partitionKey{}).(int)
	return p, ok
}

func failed(resp domain.InvocationResponse, err error) domain.InvocationResponse {
	if me := ToMyError(err); me != nil {
		resp.ErrorCode = me.Code
		resp.ErrorMessage = me.Message
		return resp
	}
	resp.ErrorCode = ErrInternalServerError
	resp.ErrorMessage = err.Error()
	return resp
}

// Method adapts a typed function to a MethodHandler using codec for the argument and the result.
func Method[A, R any](codec interfaces.Codec, fn func(ctx context.Context, arg A) (R, error)) interfaces.MethodHandler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		var arg A
		if len(payload) > 0 {
			if err := codec.Unmarshal(payload, &arg); err != nil {
				return nil, NewBadParameterError("decode argument", err)
			}
		}
		out, err := fn(ctx, arg)
		if err != nil {
			return nil, err
		}
		return codec.Marshal(out)
	}
}
