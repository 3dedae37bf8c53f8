package interfaces

import (
	"context"

	"myremoting/domain"
)

// ServiceLookup selects the live provider a consumer should bind to.
//
// Implemented by service.ServiceRegistryClient (zone isolation, published filter, deterministic pick).
// Called from the service binder when a stateful bean binds or verifies its binding.
//
//go:generate moq -stub -out mock/service_lookup.go -pkg mock . ServiceLookup
type ServiceLookup interface {
	// Lookup returns the selected entry for key.
	// Returns: (entry, true, nil) when a live published provider is visible from this zone;
	// (zero, false, nil) when none is; (zero, false, illegal_subsystem) when the only provider lives in a
	// subsystem this instance may not consume from; (zero, false, err) when the registry is unreachable.
	Lookup(ctx context.Context, key domain.BeanKey) (domain.RegistryEntry, bool, error)
}
