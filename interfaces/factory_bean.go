package interfaces

import (
	"context"
	"reflect"

	"myremoting/domain"
)

// FactoryBean creates the instance of one bean key. Construction is lazy: nothing is created until
// Create is called.
//
// Implemented by service.StatefulFactoryBean (registry-bound services) and service.libraryFactoryBean
// (plain values). Called from service.Runtime when a bean is requested for the first time.
//
//go:generate moq -stub -out mock/factory_bean.go -pkg mock . FactoryBean
type FactoryBean interface {
	// BeanKey returns the key this factory provides.
	BeanKey() domain.BeanKey

	// BeanType returns the concrete type produced by Create; used for type-based enumeration.
	BeanType() reflect.Type

	// Create builds the bean.
	// Returns: (instance, nil) on success; (nil, err) when construction failed. Stateful factories always
	// return a proxy, even when the first bind failed.
	Create(ctx context.Context) (any, error)
}
