package interfaces

import "context"

// ServiceAdministrator is exported by every application instance, qualified by its application
// instance id, so that operators and other instances can switch which copy of a blue/green deployment
// takes live traffic.
//
// Implemented by service.serviceAdministrator. Consumed through service.GetBean / service.WaitForBean.
type ServiceAdministrator interface {
	// SetPublishServices marks every service of the instance as published or unpublished. The change
	// reaches the registry with the next lease renewal.
	SetPublishServices(ctx context.Context, publish bool) error

	// PublishServices returns the current value of the flag.
	PublishServices(ctx context.Context) (bool, error)
}
