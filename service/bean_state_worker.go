package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"myremoting/domain"
	"myremoting/helpers"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// BeanStateWorker periodically verifies bound beans and rebinds the rest. One per Runtime.
//
// Each cycle works on a snapshot of the bean set: BOUND beans are verified first, then every bean that
// is not BOUND gets exactly one bind attempt. Beans added during a cycle are picked up by the next one.
// Beans refused by subsystem isolation are left alone; that failure is a deployment error, not churn.
type BeanStateWorker struct {
	beans       mapset.Set[managedBean]
	interval    time.Duration
	bindTimeout time.Duration
	logger      log.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewBeanStateWorker creates a stopped worker. Panics on non-positive durations or nil logger.
//
// Called from NewRuntime with Config.BindInterval and Config.BindTimeout.
func NewBeanStateWorker(interval, bindTimeout time.Duration, logger log.Logger) *BeanStateWorker {
	return &BeanStateWorker{
		beans:       mapset.NewSet[managedBean](),
		interval:    helpers.DurationPanic(interval, "service.bean_state_worker.go: interval must be positive"),
		bindTimeout: helpers.DurationPanic(bindTimeout, "service.bean_state_worker.go: bind timeout must be positive"),
		logger:      log.With(helpers.NilPanic(logger, "service.bean_state_worker.go: logger is required"), "component", "bean_state_worker"),
	}
}

// Add starts managing bean. Safe to call while a cycle runs.
func (w *BeanStateWorker) Add(bean managedBean) {
	w.beans.Add(bean)
}

// Remove stops managing bean.
func (w *BeanStateWorker) Remove(bean managedBean) {
	w.beans.Remove(bean)
}

// Len returns the number of managed beans.
func (w *BeanStateWorker) Len() int {
	return w.beans.Cardinality()
}

// Start launches the cycle loop. No-op when already running.
func (w *BeanStateWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	go w.loop(w.stop, w.done)
}

// Stop ends the loop and waits for the running cycle. No-op when not running.
func (w *BeanStateWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stop)
	done := w.done
	w.mu.Unlock()
	<-done
}

func (w *BeanStateWorker) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w.RunCycle(ctx)
		}
	}
}

// RunCycle runs one verify-then-bind pass over the current bean set.
func (w *BeanStateWorker) RunCycle(ctx context.Context) {
	beans := w.beans.ToSlice()
	for _, b := range beans {
		if b.State() == domain.BeanStateBound {
			w.attempt(ctx, b, "verify", b.Verify)
		}
	}
	for _, b := range beans {
		if ctx.Err() != nil {
			return
		}
		if b.State() == domain.BeanStateBound || b.isolated() {
			continue
		}
		w.attempt(ctx, b, "bind", b.Bind)
	}
}

// attempt runs op for one bean under the bind timeout; errors and panics stay with that bean.
func (w *BeanStateWorker) attempt(ctx context.Context, b managedBean, op string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, w.bindTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			level.Error(w.logger).Log("msg", "bean "+op+" panicked", "bean", b.Key().String(), "err", fmt.Errorf("%v", r))
		}
	}()
	if err := fn(ctx); err != nil {
		level.Debug(w.logger).Log("msg", "bean "+op+" failed", "bean", b.Key().String(), "err", err)
	}
}
