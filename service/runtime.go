package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"myremoting/domain"
	"myremoting/helpers"
	"myremoting/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/go-metrics"
	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"
)

// ErrRuntimeClosed is returned by bean requests after Close.
var ErrRuntimeClosed = errors.New("runtime closed")

// waitPollInterval is how often WaitForBean re-checks and nudges an unbound bean.
const waitPollInterval = 20 * time.Millisecond

// RemotingSpec describes one remoting component of a Runtime.
type RemotingSpec struct {
	// Name is the component name advertised in domain.PropertyComponent.
	Name string
	// Exporter is the handler the transport serves; created when nil.
	Exporter *ServiceExporter
	// Advertised are the properties consumers need to dial this instance.
	Advertised domain.ServiceProperties
	// Dial opens a provider's transport.
	Dial DispatcherFactory
}

type runtimeOptions struct {
	logger     log.Logger
	sink       metrics.MetricSink
	directs    *DirectRegistry
	components []interfaces.ServiceComponent
	remoting   []RemotingSpec
	ft         interfaces.FaultTolerance
	codec      interfaces.Codec
}

// Option configures NewRuntime.
type Option func(*runtimeOptions)

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger log.Logger) Option {
	return func(o *runtimeOptions) { o.logger = logger }
}

// WithMetricSink sets the go-metrics sink; the default is a blackhole.
func WithMetricSink(sink metrics.MetricSink) Option {
	return func(o *runtimeOptions) { o.sink = sink }
}

// WithDirectRegistry shares in-process providers with other Runtimes of the same process.
func WithDirectRegistry(directs *DirectRegistry) Option {
	return func(o *runtimeOptions) { o.directs = directs }
}

// WithComponent adds a custom service component.
func WithComponent(c interfaces.ServiceComponent) Option {
	return func(o *runtimeOptions) { o.components = append(o.components, c) }
}

// WithRemoting adds a remoting component built on the Runtime's codec and fault tolerance.
func WithRemoting(spec RemotingSpec) Option {
	return func(o *runtimeOptions) { o.remoting = append(o.remoting, spec) }
}

// WithFaultTolerance replaces the fault tolerance derived from Config.FaultTolerance.
func WithFaultTolerance(ft interfaces.FaultTolerance) Option {
	return func(o *runtimeOptions) { o.ft = ft }
}

// WithCodec replaces the JSON codec used by remoting.
func WithCodec(codec interfaces.Codec) Option {
	return func(o *runtimeOptions) { o.codec = codec }
}

type cachedBean struct {
	instance any
	managed  managedBean
}

// statefulCreator is implemented by StatefulFactoryBean so the Runtime can keep the bean next to its proxy.
type statefulCreator interface {
	createManaged(ctx context.Context) (any, managedBean)
}

func (f *StatefulFactoryBean[T]) createManaged(ctx context.Context) (any, managedBean) {
	bean, proxy := f.CreateBean(ctx)
	return proxy, bean
}

// Runtime is the context of one application instance: it owns the bean factories, the registry client,
// the bean state worker, fault tolerance and service components. Nothing is global; several Runtimes can
// live in one process and reach each other through a shared DirectRegistry.
type Runtime struct {
	cfg        domain.Config
	logger     log.Logger
	sink       metrics.MetricSink
	codec      interfaces.Codec
	ft         interfaces.FaultTolerance
	client     *ServiceRegistryClient
	factories  *beanFactoryRegistry
	worker     *BeanStateWorker
	directs    *DirectRegistry
	components map[string]interfaces.ServiceComponent
	remoting   []*RemotingComponent

	mu        sync.Mutex
	beans     map[domain.BeanKey]cachedBean
	directIDs []string
	creating  singleflight.Group
	closed    *atomic.Bool
	started   *atomic.Bool
}

// NewRuntime assembles a Runtime for cfg over registry. Panics on nil registry.
//
// Returns: configuration_error when cfg is invalid or names an unknown service component.
func NewRuntime(cfg domain.Config, registry interfaces.ServiceRegistry, opts ...Option) (*Runtime, error) {
	registry = helpers.NilPanic(registry, "service.runtime.go: registry is required")
	if err := domain.ValidateConfig(cfg); err != nil {
		return nil, NewConfigurationError("invalid runtime configuration", err)
	}
	o := runtimeOptions{logger: log.NewNopLogger(), codec: JSONCodec{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.directs == nil {
		o.directs = NewDirectRegistry()
	}
	logger := log.With(o.logger, "instance", cfg.ApplicationInstanceID, "zone", cfg.Zone().String())
	sink := sinkOrBlackhole(o.sink)
	ft := o.ft
	if ft == nil {
		ft = NoFaultTolerance{}
		if cfg.FaultTolerance.Enabled {
			ft = NewBeanFaultTolerance(cfg.FaultTolerance, logger, sink)
		}
	}

	rt := &Runtime{
		cfg:        cfg,
		logger:     log.With(logger, "component", "runtime"),
		sink:       sink,
		codec:      o.codec,
		ft:         ft,
		client:     NewServiceRegistryClient(registry, o.directs, cfg, logger, sink),
		factories:  NewBeanFactoryRegistry(),
		worker:     NewBeanStateWorker(cfg.BindInterval, cfg.BindTimeout, logger),
		directs:    o.directs,
		components: make(map[string]interfaces.ServiceComponent),
		beans:      make(map[domain.BeanKey]cachedBean),
		closed:     atomic.NewBool(false),
		started:    atomic.NewBool(false),
	}
	rt.components[domain.ComponentDirect] = NewDirectComponent(o.directs)
	for _, spec := range o.remoting {
		exporter := spec.Exporter
		if exporter == nil {
			exporter = NewServiceExporter(logger)
		}
		c := NewRemotingComponent(spec.Name, exporter, spec.Advertised, spec.Dial, rt.codec, ft, logger, sink)
		RegisterRemoteProxy(c, func(inv *RemoteServiceInvoker) interfaces.ServiceAdministrator {
			return administratorStub{inv: inv}
		})
		rt.remoting = append(rt.remoting, c)
		o.components = append(o.components, c)
	}
	for _, c := range o.components {
		c = helpers.NilPanic(c, "service.runtime.go: component is required")
		if _, dup := rt.components[c.Name()]; dup {
			return nil, NewConfigurationError(fmt.Sprintf("service component %s registered twice", c.Name()), nil)
		}
		rt.components[c.Name()] = c
	}
	if _, ok := rt.components[cfg.ServiceComponent]; !ok {
		return nil, NewConfigurationError(fmt.Sprintf("unknown service component %q", cfg.ServiceComponent), nil)
	}
	return rt, nil
}

// Config returns the configuration the Runtime was built with.
func (rt *Runtime) Config() domain.Config {
	return rt.cfg
}

// RegistryClient returns the client publishing this instance's services.
func (rt *Runtime) RegistryClient() *ServiceRegistryClient {
	return rt.client
}

func (rt *Runtime) component(name string) (interfaces.ServiceComponent, bool) {
	c, ok := rt.components[name]
	return c, ok
}

// Start exports the ServiceAdministrator of this instance and starts lease renewal and the bean state
// worker. Calling Start again has no effect.
func (rt *Runtime) Start(ctx context.Context) error {
	if rt.closed.Load() {
		return ErrRuntimeClosed
	}
	if !rt.started.CompareAndSwap(false, true) {
		return nil
	}
	admin := &serviceAdministrator{client: rt.client}
	key := domain.KeyOf[interfaces.ServiceAdministrator](rt.cfg.ApplicationInstanceID)
	if err := rt.export(ctx, key, admin, administratorMethods(admin, rt.codec), exportOptions{alwaysPublished: true, publicAPI: true}); err != nil {
		level.Warn(rt.logger).Log("msg", "administrator export failed", "err", err)
		if IsConfigurationError(err) || IsBadParameterError(err) {
			return err
		}
	}
	rt.client.Start()
	rt.worker.Start()
	level.Info(rt.logger).Log("msg", "runtime started", "publish_services", rt.client.PublishServices())
	return nil
}

// Close stops background work, unpublishes every service and drops in-process providers. Idempotent.
func (rt *Runtime) Close(ctx context.Context) error {
	if !rt.closed.CompareAndSwap(false, true) {
		return nil
	}
	rt.worker.Stop()
	err := rt.client.Close(ctx)
	rt.mu.Lock()
	for _, id := range rt.directIDs {
		rt.directs.Unregister(id)
	}
	rt.directIDs = nil
	rt.mu.Unlock()
	level.Info(rt.logger).Log("msg", "runtime closed")
	return err
}

type exportOptions struct {
	component       string
	publicAPI       bool
	alwaysPublished bool
}

// ExportOption configures ExportService.
type ExportOption func(*exportOptions)

// AsPublicAPI lets consumers of other subsystems bind to the service.
func AsPublicAPI() ExportOption {
	return func(o *exportOptions) { o.publicAPI = true }
}

// ViaComponent exports through the named component instead of Config.ServiceComponent.
func ViaComponent(name string) ExportOption {
	return func(o *exportOptions) { o.component = name }
}

// ExportService publishes impl as provider of T qualified by qualifier. methods is the remote method table
// and may be nil when the service is only exported in process.
//
// Returns: configuration_error or bad_parameter when the service cannot be exported; a registry error when
// the first publish failed, in which case the renewal loop keeps retrying.
func ExportService[T any](ctx context.Context, rt *Runtime, qualifier string, impl T, methods interfaces.MethodTable, opts ...ExportOption) error {
	var o exportOptions
	for _, opt := range opts {
		opt(&o)
	}
	return rt.export(ctx, domain.KeyOf[T](qualifier), impl, methods, o)
}

func (rt *Runtime) export(ctx context.Context, key domain.BeanKey, impl any, methods interfaces.MethodTable, o exportOptions) error {
	if rt.closed.Load() {
		return ErrRuntimeClosed
	}
	name := o.component
	if name == "" {
		name = rt.cfg.ServiceComponent
	}
	c, ok := rt.component(name)
	if !ok {
		return NewConfigurationError(fmt.Sprintf("unknown service component %q", name), nil)
	}
	props, err := c.Export(ctx, key, impl, methods, rt.cfg.Subsystem)
	if err != nil {
		return err
	}
	if id := props[PropertyDirectID]; id != "" {
		rt.mu.Lock()
		rt.directIDs = append(rt.directIDs, id)
		rt.mu.Unlock()
	}
	props[domain.PropertyAPIVersion] = rt.cfg.APIVersion
	if o.publicAPI {
		props[domain.PropertyPublicAPI] = "true"
	}
	level.Info(rt.logger).Log("msg", "exporting service", "bean", key.String(), "component", name, "public_api", o.publicAPI)
	return rt.client.Register(ctx, key, props, o.alwaysPublished)
}

// RegisterServiceBean declares T qualified by qualifier as a registry-bound stateful bean. proxy builds the
// caller-facing T over the bean.
//
// Returns: configuration_error when T is not an interface or the key is taken.
func RegisterServiceBean[T any](rt *Runtime, qualifier string, proxy ProxyFactory[T]) error {
	key := domain.KeyOf[T](qualifier)
	binder := &serviceBinder[T]{key: key, lookup: rt.client, components: rt.component}
	f, err := NewStatefulFactoryBean[T](key, binder, proxy, rt.worker, rt.cfg.BindTimeout, rt.logger, rt.sink)
	if err != nil {
		return err
	}
	return rt.factories.Register(f)
}

// RegisterRemoteStub registers the client stub of T with every remoting component.
func RegisterRemoteStub[T any](rt *Runtime, stub func(*RemoteServiceInvoker) T) {
	for _, c := range rt.remoting {
		RegisterRemoteProxy(c, stub)
	}
}

// libraryFactoryBean implements interfaces.FactoryBean for plain values created in process.
type libraryFactoryBean[T any] struct {
	key    domain.BeanKey
	create func(ctx context.Context) (T, error)
}

func (f *libraryFactoryBean[T]) BeanKey() domain.BeanKey { return f.key }

func (f *libraryFactoryBean[T]) BeanType() reflect.Type { return reflect.TypeFor[T]() }

func (f *libraryFactoryBean[T]) Create(ctx context.Context) (any, error) {
	return f.create(ctx)
}

// RegisterLibrary declares a plain bean built by create on first request.
func RegisterLibrary[T any](rt *Runtime, qualifier string, create func(ctx context.Context) (T, error)) error {
	create = helpers.NilPanic(create, "service.runtime.go: create is required")
	return rt.factories.Register(&libraryFactoryBean[T]{key: domain.KeyOf[T](qualifier), create: create})
}

// RegisterAlias makes requests for from resolve to to.
func (rt *Runtime) RegisterAlias(from, to domain.BeanKey) error {
	return rt.factories.RegisterAlias(from, to)
}

// BeansOfType lists the registered keys whose beans are assignable to T.
func BeansOfType[T any](rt *Runtime) []domain.BeanKey {
	return rt.factories.GetBeansOfType(reflect.TypeFor[T]())
}

// bean returns the cached bean of resolved key, creating it once.
func (rt *Runtime) bean(ctx context.Context, key domain.BeanKey) (cachedBean, error) {
	if rt.closed.Load() {
		return cachedBean{}, ErrRuntimeClosed
	}
	rt.mu.Lock()
	b, ok := rt.beans[key]
	rt.mu.Unlock()
	if ok {
		return b, nil
	}
	v, err, _ := rt.creating.Do(key.String(), func() (any, error) {
		rt.mu.Lock()
		b, ok := rt.beans[key]
		rt.mu.Unlock()
		if ok {
			return b, nil
		}
		f, err := rt.factories.GetFactoryBean(key)
		if err != nil {
			return nil, err
		}
		if sc, ok := f.(statefulCreator); ok {
			b.instance, b.managed = sc.createManaged(ctx)
		} else if b.instance, err = f.Create(ctx); err != nil {
			return nil, err
		}
		rt.mu.Lock()
		rt.beans[key] = b
		rt.mu.Unlock()
		return b, nil
	})
	if err != nil {
		return cachedBean{}, err
	}
	return v.(cachedBean), nil
}

func getBean[T any](ctx context.Context, rt *Runtime, qualifier string) (T, cachedBean, error) {
	var zero T
	requested := domain.KeyOf[T](qualifier)
	key := rt.factories.ResolveBean(requested)
	b, err := rt.bean(ctx, key)
	if err != nil {
		return zero, cachedBean{}, err
	}
	typed, ok := b.instance.(T)
	if !ok {
		return zero, cachedBean{}, NewConfigurationError(fmt.Sprintf("bean %s resolved to %s which is %T", requested, key, b.instance), nil)
	}
	return typed, b, nil
}

// GetBean returns the bean of T qualified by qualifier. Stateful beans are returned immediately, bound
// or not; their calls fail with service_unavailable until the bean is bound.
//
// Returns: missing_bean_provider when nothing provides T.
func GetBean[T any](ctx context.Context, rt *Runtime, qualifier string) (T, error) {
	t, _, err := getBean[T](ctx, rt, qualifier)
	return t, err
}

// WaitForBean is GetBean that waits until a stateful bean is bound or ctx ends.
//
// Returns: the isolation error as soon as the bean is refused by subsystem isolation; service_unavailable
// carrying the last bind error when ctx ends first.
func WaitForBean[T any](ctx context.Context, rt *Runtime, qualifier string) (T, error) {
	t, b, err := getBean[T](ctx, rt, qualifier)
	if err != nil || b.managed == nil {
		return t, err
	}
	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()
	for {
		if b.managed.State() == domain.BeanStateBound {
			return t, nil
		}
		if b.managed.isolated() {
			var zero T
			return zero, b.managed.LastBindError()
		}
		_ = b.managed.Bind(ctx)
		if b.managed.State() == domain.BeanStateBound {
			return t, nil
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, NewMyError(ErrServiceUnavailable, fmt.Sprintf("bean %s was not bound in time", b.managed.Key()), b.managed.LastBindError())
		case <-ticker.C:
		}
	}
}

// ServiceAdministrator returns the administrator of the application instance instanceID, binding to it
// through the registry like any other service.
func (rt *Runtime) ServiceAdministrator(ctx context.Context, instanceID string) (interfaces.ServiceAdministrator, error) {
	key := domain.KeyOf[interfaces.ServiceAdministrator](instanceID)
	if _, err := rt.factories.GetFactoryBean(key); err != nil {
		if err := RegisterServiceBean[interfaces.ServiceAdministrator](rt, instanceID, newAdministratorProxy); err != nil && !IsConfigurationError(err) {
			return nil, err
		}
	}
	return GetBean[interfaces.ServiceAdministrator](ctx, rt, instanceID)
}
