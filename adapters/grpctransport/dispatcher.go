package grpctransport

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"myremoting/domain"
	"myremoting/helpers"
	"myremoting/interfaces"
	"myremoting/service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// PropertyAddresses advertises the comma separated gRPC addresses of a provider.
	PropertyAddresses = "grpc.addresses"
	// PropertyPartitions advertises the partition count; defaults to the number of addresses.
	PropertyPartitions = "grpc.partitions"
)

// AdvertisedProperties builds the properties a provider publishes so consumers can dial it.
// Partition p is served by addresses[p % len(addresses)].
func AdvertisedProperties(addresses []string, partitions int) domain.ServiceProperties {
	props := domain.ServiceProperties{PropertyAddresses: strings.Join(addresses, ",")}
	if partitions > 0 {
		props[PropertyPartitions] = strconv.Itoa(partitions)
	}
	return props
}

// TaskDispatcher implements interfaces.TaskDispatcher over gRPC connections from a ConnectionPool.
type TaskDispatcher struct {
	pool       *ConnectionPool
	addresses  []string
	partitions int
}

var _ interfaces.TaskDispatcher = (*TaskDispatcher)(nil)

// NewTaskDispatcher creates a dispatcher for addresses. Panics on nil pool.
// Returns bad_parameter on empty addresses or a negative partition count; 0 partitions means one per address.
func NewTaskDispatcher(pool *ConnectionPool, addresses []string, partitions int) (*TaskDispatcher, error) {
	pool = helpers.NilPanic(pool, "grpctransport.dispatcher.go: pool is required")
	clean := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if a = strings.TrimSpace(a); a != "" {
			clean = append(clean, a)
		}
	}
	if len(clean) == 0 {
		return nil, service.NewBadParameterError("at least one grpc address is required", nil)
	}
	if partitions < 0 {
		return nil, service.NewBadParameterError(fmt.Sprintf("invalid partition count %d", partitions), nil)
	}
	if partitions == 0 {
		partitions = len(clean)
	}
	return &TaskDispatcher{pool: pool, addresses: clean, partitions: partitions}, nil
}

// Dialer is the service.DispatcherFactory of gRPC providers; it reads PropertyAddresses and
// PropertyPartitions.
func Dialer(pool *ConnectionPool) service.DispatcherFactory {
	pool = helpers.NilPanic(pool, "grpctransport.dispatcher.go: pool is required")
	return func(_ context.Context, properties domain.ServiceProperties) (interfaces.TaskDispatcher, error) {
		partitions := 0
		if p := properties[PropertyPartitions]; p != "" {
			n, err := strconv.Atoi(p)
			if err != nil {
				return nil, service.NewBadParameterError("invalid property "+PropertyPartitions, err)
			}
			partitions = n
		}
		return NewTaskDispatcher(pool, strings.Split(properties[PropertyAddresses], ","), partitions)
	}
}

// PartitionCount returns the advertised partition count.
func (d *TaskDispatcher) PartitionCount() int {
	return d.partitions
}

// Dispatch sends req to the address serving partition.
func (d *TaskDispatcher) Dispatch(ctx context.Context, partition int, req domain.InvocationRequest) (domain.InvocationResponse, error) {
	if partition < 0 || partition >= d.partitions {
		return domain.InvocationResponse{}, service.NewBadParameterError(fmt.Sprintf("partition %d out of range [0,%d)", partition, d.partitions), nil)
	}
	address := d.addresses[partition%len(d.addresses)]
	conn, err := d.pool.Get(ctx, address)
	if err != nil {
		return domain.InvocationResponse{}, service.NewServiceUnavailableError("no connection to "+address, err)
	}

	ctx = metadata.AppendToOutgoingContext(ctx,
		mdService, req.Service,
		mdMethod, req.Method,
		mdCorrelationID, req.CorrelationID,
		mdPartition, strconv.Itoa(partition),
	)
	var header metadata.MD
	out := new(wrapperspb.BytesValue)
	if err := conn.Invoke(ctx, invokeMethod, wrapperspb.Bytes(req.Payload), out, grpc.Header(&header)); err != nil {
		if status.Code(err) == codes.Unavailable {
			d.pool.OnFailure(address)
		}
		return domain.InvocationResponse{}, grpcToError(err)
	}

	resp := domain.InvocationResponse{CorrelationID: req.CorrelationID, Payload: out.GetValue()}
	if v := header.Get(mdCorrelationID); len(v) > 0 && v[0] != "" {
		resp.CorrelationID = v[0]
	}
	if v := header.Get(mdErrorCode); len(v) > 0 && v[0] != "" {
		resp.ErrorCode = v[0]
		if m := header.Get(mdErrorMessage); len(m) > 0 {
			resp.ErrorMessage = m[0]
		}
	}
	return resp, nil
}
