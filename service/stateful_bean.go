package service

import (
	"context"
	"fmt"
	"reflect"
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

// Binding is the result of one successful bind: the backing instance and the registry entry it came from.
type Binding[T any] struct {
	Instance T
	EntryID  string
	// Fingerprint identifies the provider properties the instance was built from.
	Fingerprint string
}

// Binder locates a provider for a stateful bean and creates the backing instance.
//
// Implemented by serviceBinder (registry lookup + service component). Tests supply their own.
type Binder[T any] interface {
	// Bind looks up the provider and binds to it.
	// Returns: service_unavailable when no live provider exists; illegal_subsystem when the only
	// providers live in a foreign subsystem; any component error otherwise.
	Bind(ctx context.Context) (Binding[T], error)

	// Verify reports whether entryID, published with properties of the given fingerprint, is still the
	// provider Bind would select.
	// Returns: (false, nil) when the binding is stale; (_, err) when the check itself failed, in which case
	// the binding is kept.
	Verify(ctx context.Context, entryID, fingerprint string) (bool, error)
}

// ProxyFactory builds the caller-facing T that forwards every method through the bean, typically with
// Call or Invoke.
type ProxyFactory[T any] func(bean *StatefulBean[T]) T

type beanSnapshot[T any] struct {
	state       domain.BeanState
	instance    T
	entryID     string
	fingerprint string
	err         error
}

// managedBean is what the BeanStateWorker drives. StatefulBean of any T satisfies it.
type managedBean interface {
	Key() domain.BeanKey
	State() domain.BeanState
	Bind(ctx context.Context) error
	Verify(ctx context.Context) error
	LastBindError() error
	isolated() bool
}

// StatefulBean keeps one registry-backed service bound. Its state is replaced as a whole through an
// atomic pointer, so invocations never take a lock. At most one bind runs at a time; concurrent callers
// share its result.
type StatefulBean[T any] struct {
	key    domain.BeanKey
	binder Binder[T]
	logger log.Logger
	sink   metrics.MetricSink

	current      *atomic.Pointer[beanSnapshot[T]]
	binds        singleflight.Group
	bindTimeout  time.Duration
	bindFailures *atomic.Int64
}

// defaultBindTimeout bounds a shared bind attempt of beans built outside a StatefulFactoryBean.
const defaultBindTimeout = 5 * time.Second

var _ managedBean = (*StatefulBean[any])(nil)

func newStatefulBean[T any](key domain.BeanKey, binder Binder[T], logger log.Logger, sink metrics.MetricSink) *StatefulBean[T] {
	return &StatefulBean[T]{
		key:          key,
		binder:       binder,
		logger:       log.With(logger, "bean", key.String()),
		sink:         sinkOrBlackhole(sink),
		current:      atomic.NewPointer(&beanSnapshot[T]{state: domain.BeanStateUnbound}),
		bindTimeout:  defaultBindTimeout,
		bindFailures: atomic.NewInt64(0),
	}
}

// Key returns the key of the bean.
func (b *StatefulBean[T]) Key() domain.BeanKey {
	return b.key
}

// State returns the current binding state.
func (b *StatefulBean[T]) State() domain.BeanState {
	return b.current.Load().state
}

// BoundEntryID returns the registry entry the bean is bound to, empty unless BOUND.
func (b *StatefulBean[T]) BoundEntryID() string {
	return b.current.Load().entryID
}

// BindFailures counts failed bind attempts since creation.
func (b *StatefulBean[T]) BindFailures() int64 {
	return b.bindFailures.Load()
}

// LastBindError returns the error of the latest failed bind or break, nil once bound again.
func (b *StatefulBean[T]) LastBindError() error {
	return b.current.Load().err
}

func (b *StatefulBean[T]) isolated() bool {
	s := b.current.Load()
	return s.state != domain.BeanStateBound && IsIllegalSubsystemError(s.err)
}

// Bind runs one bind attempt, or joins the one already in flight. The attempt is bounded by the bean's
// bind timeout only: a caller whose ctx ends stops waiting but does not cut the attempt short for the
// others.
//
// Returns: nil when the bean is BOUND afterwards; the bind error otherwise (state unchanged, except that
// the error is remembered); ctx.Err() when ctx ends before the shared attempt completes.
func (b *StatefulBean[T]) Bind(ctx context.Context) error {
	ch := b.binds.DoChan("bind", func() (any, error) {
		attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.bindTimeout)
		defer cancel()
		return nil, b.bind(attemptCtx)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *StatefulBean[T]) bind(ctx context.Context) error {
	prev := b.current.Load()
	binding, err := b.binder.Bind(ctx)
	if err != nil {
		b.bindFailures.Inc()
		b.sink.IncrCounterWithLabels(MetricBeanBindErrorCount, 1, []metrics.Label{LabelBean.M(b.key.String()), LabelError.M(errorCode(err))})
		next := &beanSnapshot[T]{state: prev.state, err: err}
		if prev.state == domain.BeanStateBound {
			next.state = domain.BeanStateBroken
		}
		b.current.Store(next)
		level.Debug(b.logger).Log("msg", "bind failed", "state", next.state, "err", err)
		return err
	}
	b.current.Store(&beanSnapshot[T]{state: domain.BeanStateBound, instance: binding.Instance, entryID: binding.EntryID, fingerprint: binding.Fingerprint})
	b.sink.IncrCounterWithLabels(MetricBeanBindCount, 1, []metrics.Label{LabelBean.M(b.key.String())})
	level.Info(b.logger).Log("msg", "bean bound", "entry_id", binding.EntryID, "previous_state", prev.state)
	return nil
}

// Verify checks that a BOUND bean still points at the provider a fresh lookup would select and breaks it
// otherwise. No-op for beans that are not BOUND.
func (b *StatefulBean[T]) Verify(ctx context.Context) error {
	s := b.current.Load()
	if s.state != domain.BeanStateBound {
		return nil
	}
	ok, err := b.binder.Verify(ctx, s.entryID, s.fingerprint)
	if err != nil {
		level.Warn(b.logger).Log("msg", "verification failed, keeping binding", "entry_id", s.entryID, "err", err)
		return err
	}
	if !ok {
		b.markBroken(s, NewMyError(ErrServiceUnavailable, fmt.Sprintf("provider %s of %s is no longer selected", s.entryID, b.key), nil))
	}
	return nil
}

// markBroken moves from to BROKEN unless the state was replaced meanwhile.
func (b *StatefulBean[T]) markBroken(from *beanSnapshot[T], cause error) {
	if from.state != domain.BeanStateBound {
		return
	}
	if b.current.CompareAndSwap(from, &beanSnapshot[T]{state: domain.BeanStateBroken, err: cause}) {
		b.sink.IncrCounterWithLabels(MetricBeanBrokenCount, 1, []metrics.Label{LabelBean.M(b.key.String())})
		level.Info(b.logger).Log("msg", "bean broken", "entry_id", from.entryID, "err", cause)
	}
}

// target returns the snapshot to invoke through, or the error an invocation must fail with.
func (b *StatefulBean[T]) target() (*beanSnapshot[T], error) {
	s := b.current.Load()
	if s.state == domain.BeanStateBound {
		return s, nil
	}
	if IsIllegalSubsystemError(s.err) {
		return nil, s.err
	}
	return nil, NewMyError(ErrServiceUnavailable, fmt.Sprintf("service unbound: %s", b.key), s.err)
}

// Target returns the backing instance of a BOUND bean.
// Returns: service_unavailable when not bound; the isolation error when the last bind was refused by
// subsystem isolation.
func (b *StatefulBean[T]) Target() (T, error) {
	s, err := b.target()
	if err != nil {
		var zero T
		return zero, err
	}
	return s.instance, nil
}

// Invoke runs fn against the backing instance. A service_unavailable failure from fn breaks the bean so
// the worker rebinds it.
func (b *StatefulBean[T]) Invoke(fn func(T) error) error {
	s, err := b.target()
	if err != nil {
		return err
	}
	err = fn(s.instance)
	if err != nil && IsServiceUnavailableError(err) {
		b.markBroken(s, err)
	}
	return err
}

// Call is Invoke for methods that return a value.
func Call[T, R any](b *StatefulBean[T], fn func(T) (R, error)) (R, error) {
	var out R
	err := b.Invoke(func(t T) error {
		var err error
		out, err = fn(t)
		return err
	})
	return out, err
}

func errorCode(err error) string {
	if code := ToMyErrorCode(err); code != "" {
		return code
	}
	return ErrInternalServerError
}

// StatefulFactoryBean implements interfaces.FactoryBean for registry-bound services. Create never fails
// because the provider is missing: it returns a proxy and leaves binding to the BeanStateWorker.
type StatefulFactoryBean[T any] struct {
	key         domain.BeanKey
	binder      Binder[T]
	proxy       ProxyFactory[T]
	worker      *BeanStateWorker
	bindTimeout time.Duration
	logger      log.Logger
	sink        metrics.MetricSink
}

var _ interfaces.FactoryBean = (*StatefulFactoryBean[any])(nil)

// NewStatefulFactoryBean creates the factory of key. Panics on nil dependencies.
//
// Returns: configuration_error when key is not an interface type or does not name T.
//
// Called from RegisterServiceBean.
func NewStatefulFactoryBean[T any](
	key domain.BeanKey,
	binder Binder[T],
	proxy ProxyFactory[T],
	worker *BeanStateWorker,
	bindTimeout time.Duration,
	logger log.Logger,
	sink metrics.MetricSink,
) (*StatefulFactoryBean[T], error) {
	if key.Type() == nil || key.Type().Kind() != reflect.Interface {
		return nil, NewConfigurationError(fmt.Sprintf("stateful bean %s must be an interface type", key), nil)
	}
	if key.Type() != reflect.TypeFor[T]() {
		return nil, NewConfigurationError(fmt.Sprintf("stateful bean %s does not match %s", key, domain.TypeName(reflect.TypeFor[T]())), nil)
	}
	return &StatefulFactoryBean[T]{
		key:         key,
		binder:      helpers.NilPanic(binder, "service.stateful_bean.go: binder is required"),
		proxy:       helpers.NilPanic(proxy, "service.stateful_bean.go: proxy is required"),
		worker:      helpers.NilPanic(worker, "service.stateful_bean.go: worker is required"),
		bindTimeout: helpers.DurationPanic(bindTimeout, "service.stateful_bean.go: bind timeout must be positive"),
		logger:      helpers.NilPanic(logger, "service.stateful_bean.go: logger is required"),
		sink:        sinkOrBlackhole(sink),
	}, nil
}

func (f *StatefulFactoryBean[T]) BeanKey() domain.BeanKey {
	return f.key
}

func (f *StatefulFactoryBean[T]) BeanType() reflect.Type {
	return f.key.Type()
}

// Create binds inline once, hands the bean to the worker and returns its proxy.
func (f *StatefulFactoryBean[T]) Create(ctx context.Context) (any, error) {
	_, proxy := f.CreateBean(ctx)
	return proxy, nil
}

// CreateBean is Create with access to the bean itself. The first bind failure is logged and counted,
// never returned.
func (f *StatefulFactoryBean[T]) CreateBean(ctx context.Context) (*StatefulBean[T], T) {
	bean := newStatefulBean(f.key, f.binder, f.logger, f.sink)
	bean.bindTimeout = f.bindTimeout
	bindCtx, cancel := context.WithTimeout(ctx, f.bindTimeout)
	if err := bean.Bind(bindCtx); err != nil {
		level.Warn(f.logger).Log("msg", "initial bind failed, worker will retry", "bean", f.key.String(), "err", err)
	}
	cancel()
	f.worker.Add(bean)
	return bean, f.proxy(bean)
}
