package interfaces

import (
	"context"

	"myremoting/domain"
)

// ServiceComponent knows how to export a service implementation and how to bind a consumer to a
// provider published with its name in domain.PropertyComponent.
//
// Implemented by service.DirectComponent and service.RemotingComponent. Called from service.Runtime
// (Export) and from the service binder (Bind).
//
//go:generate moq -stub -out mock/service_component.go -pkg mock . ServiceComponent
type ServiceComponent interface {
	// Name is the value advertised in domain.PropertyComponent.
	Name() string

	// Export makes impl reachable through this component.
	// Parameters: impl: the implementation of key.Type(); methods: remote method table, may be nil for
	// components that bind in process; subsystem: subsystem of the exporting instance.
	// Returns: component-specific properties to publish; bad_parameter when impl cannot be exported.
	Export(ctx context.Context, key domain.BeanKey, impl any, methods MethodTable, subsystem string) (domain.ServiceProperties, error)

	// Bind creates the consumer-side instance for the provider described by properties.
	// Returns: (instance, nil) on success; service_unavailable when the provider is gone.
	Bind(ctx context.Context, key domain.BeanKey, properties domain.ServiceProperties) (any, error)
}
