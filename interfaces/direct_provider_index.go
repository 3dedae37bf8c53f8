package interfaces

import "myremoting/domain"

// DirectProviderIndex answers which subsystem provides a key outside the registry.
//
// Implemented by service.DirectRegistry. Called from service.ServiceRegistryClient.Lookup to tell an
// isolation violation apart from a provider that is simply not there.
//
//go:generate moq -stub -out mock/direct_provider_index.go -pkg mock . DirectProviderIndex
type DirectProviderIndex interface {
	// ProviderSubsystems returns the subsystems of every direct provider of key; empty when there is none.
	ProviderSubsystems(key domain.BeanKey) []string
}
