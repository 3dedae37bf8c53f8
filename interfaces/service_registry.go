package interfaces

import (
	"context"
	"time"

	"myremoting/domain"
)

// ServiceRegistry is the lease-based authority of published providers.
//
// Publish upserts an entry keyed by (serviceType, qualifier, publisher identity) and returns its id;
// the entry stays visible while it is renewed within its lease. Renew extends the lease of an existing
// entry and never creates one. Unpublish removes an entry immediately. List returns live entries only:
// expiry is evaluated at read time, so a reader never observes an entry whose lease ran out.
//
// Implemented by service.serviceRegistry (in memory), myredis.serviceRegistry (Redis) and
// adapters.ServiceRegistryHTTP (remote registry). Called from service.ServiceRegistryClient and from
// handlers.HTTPServer.
//
//go:generate moq -stub -out mock/service_registry.go -pkg mock . ServiceRegistry
type ServiceRegistry interface {
	// Publish creates or refreshes the entry of one provider.
	// Parameters: serviceType: wire type name (domain.BeanKey.TypeName); qualifier: may be empty;
	// properties: must carry the publisher identity (domain.PropertyApplicationInstanceID); lease: positive.
	// Returns: (entryID, nil) on success, the same id when an entry of the same publisher already exists;
	// ("", bad_parameter) on invalid input; ("", internal_server_error) on storage failure.
	Publish(ctx context.Context, serviceType, qualifier string, properties domain.ServiceProperties, lease time.Duration) (string, error)

	// Renew extends the lease of entryID by its lease duration counted from now.
	// Returns: nil on success; entity_not_found when the entry is unknown or already expired;
	// internal_server_error on storage failure.
	Renew(ctx context.Context, entryID string) error

	// Unpublish removes entryID. Removing an unknown entry is not an error.
	Unpublish(ctx context.Context, entryID string) error

	// List returns non-expired entries of (serviceType, qualifier) ordered by entry id.
	// Returns: (entries, nil), possibly empty; (nil, internal_server_error) on storage failure.
	List(ctx context.Context, serviceType, qualifier string) ([]domain.RegistryEntry, error)
}
