package adapters

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"myremoting/domain"
	"myremoting/helpers"
	"myremoting/interfaces"
	"myremoting/service"

	"go.uber.org/atomic"
)

// PropertyLocalEndpoint advertises the LocalNetwork endpoint a provider is served on.
const PropertyLocalEndpoint = "local.endpoint"

type localEndpoint struct {
	handler    interfaces.InvocationHandler
	partitions *atomic.Int32
}

// LocalNetwork is an in-process partitioned transport. Each endpoint serves one InvocationHandler
// behind a resizable number of partitions, which lets a single process host several runtimes that talk
// to each other the way they would over the network.
type LocalNetwork struct {
	mu        sync.RWMutex
	endpoints map[string]*localEndpoint
}

// NewLocalNetwork creates a network without endpoints.
func NewLocalNetwork() *LocalNetwork {
	return &LocalNetwork{endpoints: make(map[string]*localEndpoint)}
}

// Serve exposes handler as endpoint name with partitions partitions and returns the properties a
// provider advertises so consumers can dial it.
// Returns bad_parameter on empty name or non-positive partitions; configuration_error when the name is
// already served.
func (n *LocalNetwork) Serve(name string, handler interfaces.InvocationHandler, partitions int) (domain.ServiceProperties, error) {
	handler = helpers.NilPanic(handler, "adapters.local.go: handler is required")
	if name == "" {
		return nil, service.NewBadParameterError("endpoint name is required", nil)
	}
	if partitions <= 0 {
		return nil, service.NewBadParameterError(fmt.Sprintf("endpoint %s: partitions must be positive", name), nil)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.endpoints[name]; ok {
		return nil, service.NewConfigurationError("endpoint "+name+" is already served", nil)
	}
	n.endpoints[name] = &localEndpoint{handler: handler, partitions: atomic.NewInt32(int32(partitions))}
	return domain.ServiceProperties{PropertyLocalEndpoint: name}, nil
}

// Resize changes the partition count of a served endpoint. Consumers observe the new count on their
// next PartitionCount call.
func (n *LocalNetwork) Resize(name string, partitions int) error {
	if partitions <= 0 {
		return service.NewBadParameterError(fmt.Sprintf("endpoint %s: partitions must be positive", name), nil)
	}
	ep, ok := n.endpoint(name)
	if !ok {
		return service.NewEntityNotFoundError("endpoint "+name+" not found", nil)
	}
	ep.partitions.Store(int32(partitions))
	return nil
}

// Shutdown stops serving name. In-flight calls complete; later calls fail with service_unavailable.
func (n *LocalNetwork) Shutdown(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.endpoints, name)
}

// Endpoints lists served endpoint names in order.
func (n *LocalNetwork) Endpoints() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, 0, len(n.endpoints))
	for name := range n.endpoints {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (n *LocalNetwork) endpoint(name string) (*localEndpoint, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	ep, ok := n.endpoints[name]
	return ep, ok
}

// Dispatcher returns the TaskDispatcher of endpoint name. The endpoint does not have to be served yet.
func (n *LocalNetwork) Dispatcher(name string) *LocalTaskDispatcher {
	return &LocalTaskDispatcher{network: n, name: helpers.StrPanic(name, "adapters.local.go: endpoint name is required")}
}

// Dialer is the service.DispatcherFactory of this network; it reads PropertyLocalEndpoint.
func (n *LocalNetwork) Dialer() service.DispatcherFactory {
	return func(_ context.Context, properties domain.ServiceProperties) (interfaces.TaskDispatcher, error) {
		name := properties[PropertyLocalEndpoint]
		if name == "" {
			return nil, service.NewBadParameterError("property "+PropertyLocalEndpoint+" is required", nil)
		}
		if _, ok := n.endpoint(name); !ok {
			return nil, service.NewServiceUnavailableError("endpoint "+name+" is not served", nil)
		}
		return n.Dispatcher(name), nil
	}
}

// LocalTaskDispatcher implements interfaces.TaskDispatcher over one LocalNetwork endpoint.
type LocalTaskDispatcher struct {
	network *LocalNetwork
	name    string
}

var _ interfaces.TaskDispatcher = (*LocalTaskDispatcher)(nil)

// Dispatch runs the handler of the endpoint on its own goroutine and waits for it or ctx.
func (d *LocalTaskDispatcher) Dispatch(ctx context.Context, partition int, req domain.InvocationRequest) (domain.InvocationResponse, error) {
	ep, ok := d.network.endpoint(d.name)
	if !ok {
		return domain.InvocationResponse{}, service.NewServiceUnavailableError("endpoint "+d.name+" is not served", nil)
	}
	if count := int(ep.partitions.Load()); partition < 0 || partition >= count {
		return domain.InvocationResponse{}, service.NewBadParameterError(fmt.Sprintf("endpoint %s: partition %d out of range [0,%d)", d.name, partition, count), nil)
	}
	if err := ctx.Err(); err != nil {
		return domain.InvocationResponse{}, err
	}

	req.Partition = partition
	done := make(chan domain.InvocationResponse, 1)
	go func() {
		done <- ep.handler.Handle(ctx, req)
	}()
	select {
	case resp := <-done:
		return resp, nil
	case <-ctx.Done():
		return domain.InvocationResponse{}, ctx.Err()
	}
}

// PartitionCount returns the current partition count, 0 once the endpoint is gone.
func (d *LocalTaskDispatcher) PartitionCount() int {
	ep, ok := d.network.endpoint(d.name)
	if !ok {
		return 0
	}
	return int(ep.partitions.Load())
}
