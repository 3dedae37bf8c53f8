package interfaces

import (
	"context"

	"myremoting/domain"
)

// TaskDispatcher executes one serialized invocation against one partition of a remote service.
// It is the concrete network underneath the remoting dispatcher.
//
// Implemented by adapters.LocalTaskDispatcher (in process) and grpctransport.TaskDispatcher (gRPC).
// Called from service.remotingDispatcher for every partition call.
//
//go:generate moq -stub -out mock/task_dispatcher.go -pkg mock . TaskDispatcher
type TaskDispatcher interface {
	// Dispatch sends req to partition and waits for the response or ctx.
	// Returns: (response, nil) when the partition answered, the response may carry an error indicator;
	// (zero, err) on transport failure or when ctx ended.
	Dispatch(ctx context.Context, partition int, req domain.InvocationRequest) (domain.InvocationResponse, error)

	// PartitionCount returns the current number of partitions. The value may change between calls.
	PartitionCount() int
}
