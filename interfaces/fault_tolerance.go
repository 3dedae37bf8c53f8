package interfaces

import "context"

// FaultTolerance runs operations under a circuit breaker, bulkhead and timeout selected by command name.
//
// Implemented by service.BeanFaultTolerance (hystrix) and service.NoFaultTolerance (pass-through).
// Called from service.Observe, which wraps every composed remoting operation.
//
//go:generate moq -stub -out mock/fault_tolerance.go -pkg mock . FaultTolerance
type FaultTolerance interface {
	// Execute runs run under the policy of command. run receives a context that is cancelled when the
	// timeout fires.
	// Returns: nil on success; circuit_open without calling run when the circuit is open; rejected when
	// the bulkhead is full; timeout when run did not finish in time; otherwise the failure of run, typed
	// as remote_failure unless it already carries a code.
	Execute(ctx context.Context, command string, run func(ctx context.Context) error) error
}
