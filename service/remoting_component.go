package service

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"myremoting/domain"
	"myremoting/helpers"
	"myremoting/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/go-metrics"
)

// DispatcherFactory dials the partitioned transport a provider advertised in its properties.
//
// Implemented by adapters.LocalNetwork.Dialer and grpctransport.Dialer.
type DispatcherFactory func(ctx context.Context, properties domain.ServiceProperties) (interfaces.TaskDispatcher, error)

// RemotingComponent implements interfaces.ServiceComponent over a partitioned transport. Export puts the
// method table into the ServiceExporter served by the transport and advertises the transport address;
// Bind dials the advertised transport and wraps it into a typed stub registered with RegisterRemoteProxy.
type RemotingComponent struct {
	name       string
	exporter   *ServiceExporter
	advertised domain.ServiceProperties
	dial       DispatcherFactory
	codec      interfaces.Codec
	ft         interfaces.FaultTolerance
	logger     log.Logger
	sink       metrics.MetricSink

	mu    sync.RWMutex
	stubs map[reflect.Type]func(*RemoteServiceInvoker) any
}

var _ interfaces.ServiceComponent = (*RemotingComponent)(nil)

// NewRemotingComponent creates a component named name. Panics on nil dependencies or empty name.
//
// Parameters: exporter: handler served by this instance's transport; advertised: properties that
// let consumers dial it (e.g. the local endpoint or gRPC addresses), may be empty for consume-only
// instances; dial: opens the transport described by a provider's properties.
//
// Called from NewRuntime for every WithRemoting option.
func NewRemotingComponent(
	name string,
	exporter *ServiceExporter,
	advertised domain.ServiceProperties,
	dial DispatcherFactory,
	codec interfaces.Codec,
	ft interfaces.FaultTolerance,
	logger log.Logger,
	sink metrics.MetricSink,
) *RemotingComponent {
	name = helpers.StrPanic(name, "service.remoting_component.go: name is required")
	return &RemotingComponent{
		name:       name,
		exporter:   helpers.NilPanic(exporter, "service.remoting_component.go: exporter is required"),
		advertised: advertised.Clone(),
		dial:       helpers.NilPanic(dial, "service.remoting_component.go: dial is required"),
		codec:      helpers.NilPanic(codec, "service.remoting_component.go: codec is required"),
		ft:         helpers.NilPanic(ft, "service.remoting_component.go: fault tolerance is required"),
		logger:     log.With(helpers.NilPanic(logger, "service.remoting_component.go: logger is required"), "component", name),
		sink:       sinkOrBlackhole(sink),
		stubs:      make(map[reflect.Type]func(*RemoteServiceInvoker) any),
	}
}

// RegisterRemoteProxy teaches c how to build the client stub of T. Registering T again replaces the stub.
func RegisterRemoteProxy[T any](c *RemotingComponent, stub func(*RemoteServiceInvoker) T) {
	stub = helpers.NilPanic(stub, "service.remoting_component.go: stub is required")
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stubs[reflect.TypeFor[T]()] = func(inv *RemoteServiceInvoker) any { return stub(inv) }
}

func (c *RemotingComponent) Name() string {
	return c.name
}

// Export serves methods under the key's name.
func (c *RemotingComponent) Export(_ context.Context, key domain.BeanKey, impl any, methods interfaces.MethodTable, _ string) (domain.ServiceProperties, error) {
	if err := checkImplements(key, impl); err != nil {
		return nil, err
	}
	if len(methods) == 0 {
		return nil, NewBadParameterError(fmt.Sprintf("%s needs a method table to be exported over %s", key, c.name), nil)
	}
	if err := c.exporter.Export(key.String(), methods); err != nil {
		return nil, err
	}
	return c.advertised.With(domain.PropertyComponent, c.name), nil
}

// Bind dials the provider's transport and returns the registered stub of key's type.
func (c *RemotingComponent) Bind(ctx context.Context, key domain.BeanKey, properties domain.ServiceProperties) (any, error) {
	c.mu.RLock()
	stub, ok := c.stubs[key.Type()]
	c.mu.RUnlock()
	if !ok {
		return nil, NewConfigurationError(fmt.Sprintf("no remote proxy registered for %s on %s", key, c.name), nil)
	}
	tasks, err := c.dial(ctx, properties)
	if err != nil {
		level.Warn(c.logger).Log("msg", "dial failed", "bean", key.String(), "err", err)
		return nil, NewServiceUnavailableError(fmt.Sprintf("dial %s provider of %s", c.name, key), err)
	}
	d := NewRemotingDispatcher(tasks, c.ft, key.String(), c.logger, c.sink)
	return stub(NewRemoteServiceInvoker(key.String(), d, c.codec)), nil
}
