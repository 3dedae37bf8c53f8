package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"myremoting/domain"
	"myremoting/helpers"
	"myremoting/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/hashicorp/go-metrics"
	"go.uber.org/atomic"
)

// ownerKey is the upsert identity of an entry.
type ownerKey struct {
	serviceType string
	qualifier   string
	publisher   string
}

// registrySnapshot is immutable once stored; writers copy it, modify the copy and swap the pointer.
type registrySnapshot struct {
	entries map[string]domain.RegistryEntry
	owners  map[ownerKey]string
}

func (s *registrySnapshot) clone() *registrySnapshot {
	next := &registrySnapshot{
		entries: make(map[string]domain.RegistryEntry, len(s.entries)+1),
		owners:  make(map[ownerKey]string, len(s.owners)+1),
	}
	for id, e := range s.entries {
		next.entries[id] = e
	}
	for k, id := range s.owners {
		next.owners[k] = id
	}
	return next
}

func (s *registrySnapshot) remove(id string) {
	e, ok := s.entries[id]
	if !ok {
		return
	}
	delete(s.entries, id)
	k := ownerKey{serviceType: e.ServiceType, qualifier: e.Qualifier, publisher: e.Properties.PublisherID()}
	if s.owners[k] == id {
		delete(s.owners, k)
	}
}

// MemoryServiceRegistry is the in-process registry authority. Readers load the current snapshot
// without locking and therefore never wait for writers; writers serialise on mu.
type MemoryServiceRegistry struct {
	now    interfaces.TimeProvider
	logger log.Logger
	sink   metrics.MetricSink
	newID  func() string

	mu       sync.Mutex
	snapshot *atomic.Pointer[registrySnapshot]

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

var _ interfaces.ServiceRegistry = (*MemoryServiceRegistry)(nil)

// NewMemoryServiceRegistry creates an empty registry. Panics on nil now or logger.
//
// Called from cmd/myregistry when no Redis address is configured and from tests that need a shared
// registry between several runtimes.
func NewMemoryServiceRegistry(now interfaces.TimeProvider, logger log.Logger, sink metrics.MetricSink) *MemoryServiceRegistry {
	return &MemoryServiceRegistry{
		now:    helpers.NilPanic(now, "service.service_registry.go: time provider is required"),
		logger: log.With(helpers.NilPanic(logger, "service.service_registry.go: logger is required"), "component", "service_registry"),
		sink:   sinkOrBlackhole(sink),
		newID:  uuid.NewString,
		snapshot: atomic.NewPointer(&registrySnapshot{
			entries: map[string]domain.RegistryEntry{},
			owners:  map[ownerKey]string{},
		}),
		stop: make(chan struct{}),
	}
}

// Publish creates the entry of a provider or refreshes the one it already owns.
func (r *MemoryServiceRegistry) Publish(_ context.Context, serviceType, qualifier string, properties domain.ServiceProperties, lease time.Duration) (string, error) {
	if err := ValidatePublish(serviceType, properties, lease); err != nil {
		return "", err
	}
	now := r.now.Now()
	key := ownerKey{serviceType: serviceType, qualifier: qualifier, publisher: properties.PublisherID()}

	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.snapshot.Load().clone()
	id, ok := next.owners[key]
	if _, live := next.entries[id]; !ok || !live {
		id = r.newID()
	}
	next.entries[id] = domain.RegistryEntry{
		ID:            id,
		ServiceType:   serviceType,
		Qualifier:     qualifier,
		Properties:    properties.Clone(),
		LeaseDuration: lease,
		ExpiresAt:     now.Add(lease),
	}
	next.owners[key] = id
	r.snapshot.Store(next)

	r.sink.IncrCounterWithLabels(MetricRegistryPublishCount, 1, []metrics.Label{LabelService.M(serviceType)})
	return id, nil
}

// Renew extends the lease of a live entry. An expired entry is dropped and reported as not found.
func (r *MemoryServiceRegistry) Renew(_ context.Context, entryID string) error {
	now := r.now.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	cur := r.snapshot.Load()
	e, ok := cur.entries[entryID]
	if !ok {
		return NewEntityNotFoundError("registry entry "+entryID+" not found", nil)
	}
	next := cur.clone()
	if e.IsExpired(now) {
		next.remove(entryID)
		r.snapshot.Store(next)
		return NewEntityNotFoundError("registry entry "+entryID+" expired", nil)
	}
	e.ExpiresAt = now.Add(e.LeaseDuration)
	next.entries[entryID] = e
	r.snapshot.Store(next)
	return nil
}

// Unpublish removes the entry immediately.
func (r *MemoryServiceRegistry) Unpublish(_ context.Context, entryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := r.snapshot.Load()
	if _, ok := cur.entries[entryID]; !ok {
		return nil
	}
	next := cur.clone()
	next.remove(entryID)
	r.snapshot.Store(next)
	return nil
}

// List returns live entries of (serviceType, qualifier) ordered by id. It never takes the write lock.
func (r *MemoryServiceRegistry) List(_ context.Context, serviceType, qualifier string) ([]domain.RegistryEntry, error) {
	now := r.now.Now()
	snap := r.snapshot.Load()
	out := make([]domain.RegistryEntry, 0)
	for _, e := range snap.entries {
		if e.ServiceType != serviceType || e.Qualifier != qualifier || e.IsExpired(now) {
			continue
		}
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Reap drops every expired entry and returns how many were dropped. Expired entries are already
// invisible to List; reaping only bounds memory.
func (r *MemoryServiceRegistry) Reap() int {
	now := r.now.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	cur := r.snapshot.Load()
	var expired []string
	for id, e := range cur.entries {
		if e.IsExpired(now) {
			expired = append(expired, id)
		}
	}
	if len(expired) == 0 {
		return 0
	}
	next := cur.clone()
	for _, id := range expired {
		next.remove(id)
	}
	r.snapshot.Store(next)
	r.sink.IncrCounter(MetricRegistryEntriesReaped, float32(len(expired)))
	return len(expired)
}

// StartReaper runs Reap every interval until Close. Panics on a non-positive interval.
func (r *MemoryServiceRegistry) StartReaper(interval time.Duration) {
	interval = helpers.DurationPanic(interval, "service.service_registry.go: reaper interval must be positive")
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				if n := r.Reap(); n > 0 {
					level.Debug(r.logger).Log("msg", "reaped expired entries", "count", n)
				}
			}
		}
	}()
}

// Close stops the reaper. Idempotent.
func (r *MemoryServiceRegistry) Close() error {
	r.stopOnce.Do(func() { close(r.stop) })
	r.wg.Wait()
	return nil
}

// ValidatePublish checks publish arguments; shared by every registry implementation.
func ValidatePublish(serviceType string, properties domain.ServiceProperties, lease time.Duration) error {
	if serviceType == "" {
		return NewBadParameterError("service type is required", nil)
	}
	if properties.PublisherID() == "" {
		return NewBadParameterError("property "+domain.PropertyApplicationInstanceID+" is required", nil)
	}
	if lease <= 0 {
		return NewBadParameterError("lease must be positive", nil)
	}
	return nil
}
