package interfaces

import (
	"reflect"

	"myremoting/domain"
)

// BeanFactoryRegistry maps bean keys to factories.
//
// Implemented by service.beanFactoryRegistry. Called from service.Runtime on every bean request:
// ResolveBean first, then GetFactoryBean on the resolved key.
type BeanFactoryRegistry interface {
	// Register adds a factory. Returns configuration_error when the key is already taken.
	Register(factory FactoryBean) error

	// RegisterAlias makes lookups of from resolve to to.
	RegisterAlias(from, to domain.BeanKey) error

	// GetFactoryBean returns the factory registered for key.
	// Returns: missing_bean_provider when none is registered.
	GetFactoryBean(key domain.BeanKey) (FactoryBean, error)

	// ResolveBean maps a requested key onto the key that actually has a factory. It has no side effects
	// and resolving a resolved key returns it unchanged.
	ResolveBean(key domain.BeanKey) domain.BeanKey

	// GetBeansOfType returns every registered key whose bean type is assignable to t.
	GetBeansOfType(t reflect.Type) []domain.BeanKey
}
