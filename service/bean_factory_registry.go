package service

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"myremoting/domain"
	"myremoting/helpers"
	"myremoting/interfaces"
)

// beanFactoryRegistry implements interfaces.BeanFactoryRegistry. A key maps to exactly one factory;
// aliases and interface keys are resolved onto registered keys before the factory lookup.
// Built by NewRuntime; one per Runtime.
type beanFactoryRegistry struct {
	mu        sync.RWMutex
	factories map[domain.BeanKey]interfaces.FactoryBean
	aliases   map[domain.BeanKey]domain.BeanKey
}

var _ interfaces.BeanFactoryRegistry = (*beanFactoryRegistry)(nil)

// NewBeanFactoryRegistry creates an empty registry.
func NewBeanFactoryRegistry() *beanFactoryRegistry {
	return &beanFactoryRegistry{
		factories: make(map[domain.BeanKey]interfaces.FactoryBean),
		aliases:   make(map[domain.BeanKey]domain.BeanKey),
	}
}

// Register adds factory under its own key.
//
// Returns: configuration_error when the key is zero or already registered.
func (r *beanFactoryRegistry) Register(factory interfaces.FactoryBean) error {
	factory = helpers.NilPanic(factory, "service.bean_factory_registry.go: factory is required")
	key := factory.BeanKey()
	if key.IsZero() {
		return NewConfigurationError("factory has no bean key", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[key]; ok {
		return NewConfigurationError(fmt.Sprintf("bean %s is already registered", key), nil)
	}
	r.factories[key] = factory
	return nil
}

// RegisterAlias makes requests for from resolve to to. The target does not have to be registered yet.
//
// Returns: configuration_error on zero keys, self aliases or when from already has a factory or alias.
func (r *beanFactoryRegistry) RegisterAlias(from, to domain.BeanKey) error {
	if from.IsZero() || to.IsZero() {
		return NewConfigurationError("alias keys must not be empty", nil)
	}
	if from == to {
		return NewConfigurationError(fmt.Sprintf("bean %s cannot alias itself", from), nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[from]; ok {
		return NewConfigurationError(fmt.Sprintf("bean %s has a factory and cannot be an alias", from), nil)
	}
	if existing, ok := r.aliases[from]; ok {
		return NewConfigurationError(fmt.Sprintf("bean %s is already an alias of %s", from, existing), nil)
	}
	r.aliases[from] = to
	return nil
}

// GetFactoryBean returns the factory registered exactly for key. Callers resolve the key first.
func (r *beanFactoryRegistry) GetFactoryBean(key domain.BeanKey) (interfaces.FactoryBean, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[key]
	if !ok {
		return nil, NewMissingBeanProviderError(fmt.Sprintf("no bean provider for %s", key), nil)
	}
	return f, nil
}

// ResolveBean maps key onto the key that owns a factory:
//   - a registered key resolves to itself;
//   - an alias resolves to its target;
//   - an interface key matches the single registered key with the same qualifier whose bean type
//     implements it.
//
// Anything else comes back unchanged, so GetFactoryBean reports the miss.
func (r *beanFactoryRegistry) ResolveBean(key domain.BeanKey) domain.BeanKey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.factories[key]; ok {
		return key
	}
	if to, ok := r.aliases[key]; ok {
		return to
	}
	t := key.Type()
	if t == nil || t.Kind() != reflect.Interface {
		return key
	}
	var (
		match domain.BeanKey
		n     int
	)
	for k, f := range r.factories {
		if k.Qualifier() != key.Qualifier() {
			continue
		}
		if bt := f.BeanType(); bt != nil && bt.Implements(t) {
			match = k
			n++
		}
	}
	if n == 1 {
		return match
	}
	return key
}

// GetBeansOfType returns the keys whose bean type is assignable to t, ordered by key string.
func (r *beanFactoryRegistry) GetBeansOfType(t reflect.Type) []domain.BeanKey {
	r.mu.RLock()
	out := make([]domain.BeanKey, 0)
	for k, f := range r.factories {
		if bt := f.BeanType(); bt != nil && bt.AssignableTo(t) {
			out = append(out, k)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
