package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"myremoting/domain"
	"myremoting/helpers"
	"myremoting/interfaces"
	"myremoting/stream"

	"github.com/afex/hystrix-go/hystrix"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/go-metrics"
)

// BeanFaultTolerance implements interfaces.FaultTolerance on hystrix. Every command gets its own circuit
// breaker and bulkhead configured from FaultToleranceConfig on first use.
//
// hystrix keeps circuits in process-wide state, so command names must be unique per process; Runtime
// uses the bean key of the remote service.
type BeanFaultTolerance struct {
	cfg    domain.FaultToleranceConfig
	logger log.Logger
	sink   metrics.MetricSink

	mu         sync.Mutex
	configured map[string]domain.FaultTolerancePolicy
}

var _ interfaces.FaultTolerance = (*BeanFaultTolerance)(nil)

// NewBeanFaultTolerance creates the hystrix-backed wrapper. Panics on nil logger.
//
// Called from NewRuntime when cfg.Enabled is set.
func NewBeanFaultTolerance(cfg domain.FaultToleranceConfig, logger log.Logger, sink metrics.MetricSink) *BeanFaultTolerance {
	return &BeanFaultTolerance{
		cfg:        cfg,
		logger:     log.With(helpers.NilPanic(logger, "service.fault_tolerance.go: logger is required"), "component", "fault_tolerance"),
		sink:       sinkOrBlackhole(sink),
		configured: make(map[string]domain.FaultTolerancePolicy),
	}
}

// policy configures command in hystrix once and returns its policy.
func (f *BeanFaultTolerance) policy(command string) domain.FaultTolerancePolicy {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.configured[command]; ok {
		return p
	}
	p := f.cfg.PolicyFor(command)
	hystrix.ConfigureCommand(command, hystrix.CommandConfig{
		Timeout:                int(p.Timeout.Milliseconds()),
		MaxConcurrentRequests:  p.MaxConcurrent,
		RequestVolumeThreshold: p.RequestVolumeThreshold,
		SleepWindow:            int(p.SleepWindow.Milliseconds()),
		ErrorPercentThreshold:  p.ErrorPercentThreshold,
	})
	f.configured[command] = p
	level.Debug(f.logger).Log("msg", "command configured", "command", command, "timeout", p.Timeout, "max_concurrent", p.MaxConcurrent)
	return p
}

// Execute runs run as hystrix command. run's context is cancelled once the command timeout fires.
func (f *BeanFaultTolerance) Execute(ctx context.Context, command string, run func(ctx context.Context) error) error {
	p := f.policy(command)
	runCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	err := hystrix.DoC(runCtx, command, run, nil)
	if err == nil {
		return nil
	}
	mapped := f.classify(ctx, command, err)
	if code := ToMyErrorCode(mapped); code != "" {
		f.sink.IncrCounterWithLabels(MetricRemotingFailureCount, 1, []metrics.Label{LabelCommand.M(command), LabelError.M(code)})
	}
	return mapped
}

func (f *BeanFaultTolerance) classify(ctx context.Context, command string, err error) error {
	switch {
	case errors.Is(err, hystrix.ErrCircuitOpen):
		return NewMyError(ErrCircuitOpen, fmt.Sprintf("circuit of %s is open", command), err)
	case errors.Is(err, hystrix.ErrMaxConcurrency):
		return NewMyError(ErrRejected, fmt.Sprintf("bulkhead of %s is full", command), err)
	case errors.Is(err, hystrix.ErrTimeout):
		return NewMyError(ErrTimeout, fmt.Sprintf("%s timed out", command), err)
	case ctx.Err() != nil:
		// the caller gave up; not a failure of the remote side
		return ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		return NewMyError(ErrTimeout, fmt.Sprintf("%s timed out", command), err)
	default:
		return NewRemoteFailureError(fmt.Sprintf("%s failed", command), err)
	}
}

// NoFaultTolerance runs operations directly. Used when fault tolerance is disabled.
type NoFaultTolerance struct{}

var _ interfaces.FaultTolerance = NoFaultTolerance{}

func (NoFaultTolerance) Execute(ctx context.Context, _ string, run func(ctx context.Context) error) error {
	return run(ctx)
}

// Observe wraps the stream built by op in fault tolerance. op is called on subscription, so the whole
// composed operation, not each part of it, is what the timeout and circuit see.
func Observe[T any](ft interfaces.FaultTolerance, command string, op func() *stream.Stream[T]) *stream.Stream[T] {
	return stream.New(func(ctx context.Context) (T, error) {
		var out T
		err := ft.Execute(ctx, command, func(ctx context.Context) error {
			v, err := op().Await(ctx)
			if err != nil {
				return err
			}
			out = v
			return nil
		})
		if err != nil {
			var zero T
			return zero, err
		}
		return out, nil
	})
}
