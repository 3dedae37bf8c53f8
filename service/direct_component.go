package service

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"myremoting/domain"
	"myremoting/helpers"
	"myremoting/interfaces"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
)

// PropertyDirectID carries the DirectRegistry id of an in-process provider.
const PropertyDirectID = "directId"

type directProvider struct {
	key       domain.BeanKey
	impl      any
	subsystem string
}

// DirectRegistry holds in-process service implementations. Several Runtimes in one process share one
// registry, which is how they reach each other without a network. It also implements
// interfaces.DirectProviderIndex: the subsystems of known providers explain an empty registry lookup.
type DirectRegistry struct {
	mu        sync.RWMutex
	providers map[string]directProvider
}

var _ interfaces.DirectProviderIndex = (*DirectRegistry)(nil)

// NewDirectRegistry creates an empty registry.
func NewDirectRegistry() *DirectRegistry {
	return &DirectRegistry{providers: make(map[string]directProvider)}
}

// Register stores impl as provider of key exported from subsystem and returns its id.
func (r *DirectRegistry) Register(key domain.BeanKey, impl any, subsystem string) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.providers[id] = directProvider{key: key, impl: impl, subsystem: subsystem}
	r.mu.Unlock()
	return id
}

// Unregister drops the provider with id. Bound consumers keep their instance until they rebind.
func (r *DirectRegistry) Unregister(id string) {
	r.mu.Lock()
	delete(r.providers, id)
	r.mu.Unlock()
}

// Get returns the implementation registered under id.
func (r *DirectRegistry) Get(id string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p.impl, ok
}

// ProviderSubsystems returns the distinct subsystems providing key, sorted.
func (r *DirectRegistry) ProviderSubsystems(key domain.BeanKey) []string {
	subsystems := mapset.NewThreadUnsafeSet[string]()
	r.mu.RLock()
	for _, p := range r.providers {
		if p.key == key {
			subsystems.Add(p.subsystem)
		}
	}
	r.mu.RUnlock()
	out := subsystems.ToSlice()
	sort.Strings(out)
	return out
}

// DirectComponent implements interfaces.ServiceComponent for in-process providers. Bind hands out the
// exported instance itself.
type DirectComponent struct {
	registry *DirectRegistry
}

var _ interfaces.ServiceComponent = (*DirectComponent)(nil)

// NewDirectComponent creates the component over registry. Panics on nil registry.
func NewDirectComponent(registry *DirectRegistry) *DirectComponent {
	return &DirectComponent{registry: helpers.NilPanic(registry, "service.direct_component.go: registry is required")}
}

func (c *DirectComponent) Name() string {
	return domain.ComponentDirect
}

// Export registers impl. The method table is not needed in process and is ignored.
func (c *DirectComponent) Export(_ context.Context, key domain.BeanKey, impl any, _ interfaces.MethodTable, subsystem string) (domain.ServiceProperties, error) {
	if err := checkImplements(key, impl); err != nil {
		return nil, err
	}
	id := c.registry.Register(key, impl, subsystem)
	return domain.ServiceProperties{
		domain.PropertyComponent: domain.ComponentDirect,
		PropertyDirectID:         id,
	}, nil
}

// Bind returns the instance registered under the id in properties.
func (c *DirectComponent) Bind(_ context.Context, key domain.BeanKey, properties domain.ServiceProperties) (any, error) {
	id := properties[PropertyDirectID]
	impl, ok := c.registry.Get(id)
	if !ok {
		return nil, NewServiceUnavailableError(fmt.Sprintf("direct provider %q of %s is gone", id, key), nil)
	}
	if err := checkImplements(key, impl); err != nil {
		return nil, err
	}
	return impl, nil
}

func checkImplements(key domain.BeanKey, impl any) error {
	if impl == nil {
		return NewBadParameterError(fmt.Sprintf("no implementation for %s", key), nil)
	}
	if t := key.Type(); t != nil && !reflect.TypeOf(impl).AssignableTo(t) {
		return NewBadParameterError(fmt.Sprintf("%T does not implement %s", impl, key), nil)
	}
	return nil
}
