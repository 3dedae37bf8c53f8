package service

import (
	"context"
	"strconv"

	"myremoting/domain"
	"myremoting/helpers"
	"myremoting/interfaces"
	"myremoting/stream"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/go-metrics"
)

// remotingDispatcher implements interfaces.RemotingTransport over a partitioned TaskDispatcher.
// Routed calls go to one partition, multi-routed calls fan out to one partition per request and broadcast
// calls to every partition. The composed unit runs inside fault tolerance as one command, so a
// broadcast over N partitions is one timeout and one circuit sample.
type remotingDispatcher struct {
	tasks   interfaces.TaskDispatcher
	ft      interfaces.FaultTolerance
	command string
	logger  log.Logger
	sink    metrics.MetricSink
}

var _ interfaces.RemotingTransport = (*remotingDispatcher)(nil)

// NewRemotingDispatcher creates the transport of one remote service. Panics on nil dependencies or empty
// command.
//
// Parameters: command: fault-tolerance command, normally the bean key of the service.
//
// Called from RemotingComponent.Bind.
func NewRemotingDispatcher(
	tasks interfaces.TaskDispatcher,
	ft interfaces.FaultTolerance,
	command string,
	logger log.Logger,
	sink metrics.MetricSink,
) *remotingDispatcher {
	command = helpers.StrPanic(command, "service.remoting_dispatcher.go: command is required")
	return &remotingDispatcher{
		tasks:   helpers.NilPanic(tasks, "service.remoting_dispatcher.go: tasks is required"),
		ft:      helpers.NilPanic(ft, "service.remoting_dispatcher.go: fault tolerance is required"),
		command: command,
		logger:  log.With(helpers.NilPanic(logger, "service.remoting_dispatcher.go: logger is required"), "command", command),
		sink:    sinkOrBlackhole(sink),
	}
}

// call is one lazy partition call.
func (d *remotingDispatcher) call(partition int, req domain.InvocationRequest) *stream.Stream[domain.InvocationResponse] {
	return stream.New(func(ctx context.Context) (domain.InvocationResponse, error) {
		req.Partition = partition
		d.sink.IncrCounterWithLabels(MetricRemotingPartitionCallsOut, 1, []metrics.Label{
			LabelCommand.M(d.command),
			{Name: "partition", Value: strconv.Itoa(partition)},
		})
		resp, err := d.tasks.Dispatch(ctx, partition, req)
		if err != nil {
			level.Debug(d.logger).Log("msg", "partition call failed", "partition", partition, "method", req.Method, "err", err)
			return domain.InvocationResponse{}, err
		}
		return resp, nil
	})
}

// SubmitRoutedRequest sends req to the partition owning key.
func (d *remotingDispatcher) SubmitRoutedRequest(req domain.InvocationRequest, key domain.RoutingKey) *stream.Stream[domain.InvocationResponse] {
	return Observe(d.ft, d.command, func() *stream.Stream[domain.InvocationResponse] {
		return d.call(key.Partition(d.tasks.PartitionCount()), req)
	})
}

// SubmitRoutedRequests sends every request to its own partition concurrently. An empty batch completes
// at once without touching the transport or the circuit.
func (d *remotingDispatcher) SubmitRoutedRequests(reqs []domain.RoutedRequest) *stream.Stream[[]domain.InvocationResponse] {
	if len(reqs) == 0 {
		return stream.Just([]domain.InvocationResponse{})
	}
	return Observe(d.ft, d.command, func() *stream.Stream[[]domain.InvocationResponse] {
		count := d.tasks.PartitionCount()
		calls := make([]*stream.Stream[domain.InvocationResponse], 0, len(reqs))
		for _, r := range reqs {
			calls = append(calls, d.call(r.RoutingKey.Partition(count), r.Request))
		}
		return stream.Merge(calls)
	})
}

// SubmitBroadcastRequest sends req to each partition known at subscription time.
func (d *remotingDispatcher) SubmitBroadcastRequest(req domain.InvocationRequest) *stream.Stream[[]domain.InvocationResponse] {
	return Observe(d.ft, d.command, func() *stream.Stream[[]domain.InvocationResponse] {
		count := d.tasks.PartitionCount()
		calls := make([]*stream.Stream[domain.InvocationResponse], 0, count)
		for p := 0; p < count; p++ {
			calls = append(calls, d.call(p, req))
		}
		return stream.Merge(calls)
	})
}

// PartitionCount asks the task dispatcher every time; partitions may be added at runtime.
func (d *remotingDispatcher) PartitionCount() int {
	return d.tasks.PartitionCount()
}
