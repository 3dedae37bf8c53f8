package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"myremoting/domain"
	"myremoting/helpers"
	"myremoting/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/go-metrics"
	"go.uber.org/atomic"
)

// registration is one service this instance keeps published.
type registration struct {
	key             domain.BeanKey
	properties      domain.ServiceProperties
	alwaysPublished bool

	entryID       string
	sentPublished bool
}

// ServiceRegistryClient publishes the services of one application instance, keeps their leases alive
// and answers lookups filtered by subsystem isolation.
//
// A background loop renews every lease each RenewInterval. A renewal answered with entity_not_found
// (the lease ran out or the registry restarted) re-publishes at once. Registrations whose publish flag
// changed since the last round are re-published instead of renewed, which is how a blue/green switch
// reaches consumers.
type ServiceRegistryClient struct {
	registry      interfaces.ServiceRegistry
	directs       interfaces.DirectProviderIndex
	zone          domain.Zone
	instanceID    string
	lease         time.Duration
	renewInterval time.Duration
	logger        log.Logger
	sink          metrics.MetricSink

	publish *atomic.Bool

	mu            sync.Mutex
	registrations map[domain.BeanKey]*registration
	// opMu serialises publish and renew calls so one registration never has two in flight.
	opMu sync.Mutex

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	wg        sync.WaitGroup
}

var _ interfaces.ServiceLookup = (*ServiceRegistryClient)(nil)

// NewServiceRegistryClient creates a client for the instance described by cfg. directs may be nil when
// no in-process providers exist. Panics on nil registry or logger and on invalid intervals.
//
// Called from NewRuntime.
func NewServiceRegistryClient(
	registry interfaces.ServiceRegistry,
	directs interfaces.DirectProviderIndex,
	cfg domain.Config,
	logger log.Logger,
	sink metrics.MetricSink,
) *ServiceRegistryClient {
	lease := helpers.DurationPanic(cfg.LeaseDuration, "service.service_registry_client.go: lease duration must be positive")
	renew := helpers.DurationPanic(cfg.RenewInterval, "service.service_registry_client.go: renew interval must be positive")
	if renew >= lease {
		panic("service.service_registry_client.go: renew interval must be shorter than the lease")
	}
	return &ServiceRegistryClient{
		registry:      helpers.NilPanic(registry, "service.service_registry_client.go: registry is required"),
		directs:       directs,
		zone:          cfg.Zone(),
		instanceID:    cfg.ApplicationInstanceID,
		lease:         lease,
		renewInterval: renew,
		logger:        log.With(helpers.NilPanic(logger, "service.service_registry_client.go: logger is required"), "component", "service_registry_client"),
		sink:          sinkOrBlackhole(sink),
		publish:       atomic.NewBool(cfg.PublishServices),
		registrations: make(map[domain.BeanKey]*registration),
		stop:          make(chan struct{}),
	}
}

// Register publishes key with properties and keeps it published until Close. Identity properties
// (service type, qualifier, zone, application instance id) are filled in here. alwaysPublished
// registrations ignore SetPublishServices.
//
// Returns: the publish error, in which case the registration is kept and retried by the renewal loop.
func (c *ServiceRegistryClient) Register(ctx context.Context, key domain.BeanKey, properties domain.ServiceProperties, alwaysPublished bool) error {
	props := properties.Clone()
	props[domain.PropertyServiceType] = key.TypeName()
	props[domain.PropertyQualifier] = key.Qualifier()
	props[domain.PropertyZone] = c.zone.String()
	props[domain.PropertyApplicationInstanceID] = c.instanceID
	reg := &registration{key: key, properties: props, alwaysPublished: alwaysPublished}

	c.mu.Lock()
	c.registrations[key] = reg
	c.mu.Unlock()

	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.publishLocked(ctx, reg)
}

// SetPublishServices flips the blue/green flag. The registry sees it on the next renewal round.
func (c *ServiceRegistryClient) SetPublishServices(publish bool) {
	if c.publish.Swap(publish) != publish {
		level.Info(c.logger).Log("msg", "publish flag changed", "publish", publish)
	}
}

// PublishServices returns the current blue/green flag.
func (c *ServiceRegistryClient) PublishServices() bool {
	return c.publish.Load()
}

func (c *ServiceRegistryClient) wantPublished(reg *registration) bool {
	return reg.alwaysPublished || c.publish.Load()
}

// publishLocked publishes reg; caller must hold c.opMu.
func (c *ServiceRegistryClient) publishLocked(ctx context.Context, reg *registration) error {
	published := c.wantPublished(reg)
	props := reg.properties.With(domain.PropertyPublished, strconv.FormatBool(published))
	id, err := c.registry.Publish(ctx, reg.key.TypeName(), reg.key.Qualifier(), props, c.lease)
	if err != nil {
		level.Warn(c.logger).Log("msg", "publish failed", "bean", reg.key.String(), "err", err)
		return fmt.Errorf("publish %s: %w", reg.key, err)
	}
	reg.entryID = id
	reg.sentPublished = published
	level.Debug(c.logger).Log("msg", "published", "bean", reg.key.String(), "entry_id", id, "published", published)
	return nil
}

func (c *ServiceRegistryClient) snapshot() []*registration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*registration, 0, len(c.registrations))
	for _, reg := range c.registrations {
		out = append(out, reg)
	}
	return out
}

// Refresh runs one renewal round: renew, re-publish lost entries and push changed publish flags.
func (c *ServiceRegistryClient) Refresh(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	for _, reg := range c.snapshot() {
		c.refreshLocked(ctx, reg)
	}
}

func (c *ServiceRegistryClient) refreshLocked(ctx context.Context, reg *registration) {
	if reg.entryID == "" || reg.sentPublished != c.wantPublished(reg) {
		_ = c.publishLocked(ctx, reg)
		return
	}
	err := c.registry.Renew(ctx, reg.entryID)
	switch {
	case err == nil:
	case IsEntityNotFoundError(err):
		level.Info(c.logger).Log("msg", "lease lost, re-publishing", "bean", reg.key.String(), "entry_id", reg.entryID)
		c.sink.IncrCounterWithLabels(MetricRegistryRepublishCount, 1, []metrics.Label{LabelBean.M(reg.key.String())})
		_ = c.publishLocked(ctx, reg)
	default:
		level.Warn(c.logger).Log("msg", "lease renewal failed", "bean", reg.key.String(), "entry_id", reg.entryID, "err", err)
		c.sink.IncrCounterWithLabels(MetricRegistryRenewErrorCount, 1, []metrics.Label{LabelBean.M(reg.key.String())})
	}
}

// Start launches the renewal loop. Calling Start more than once has no effect.
func (c *ServiceRegistryClient) Start() {
	c.startOnce.Do(func() {
		c.wg.Add(1)
		go c.renewLoop()
	})
}

func (c *ServiceRegistryClient) renewLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.renewInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), c.renewInterval)
			c.Refresh(ctx)
			cancel()
		}
	}
}

// Close stops the renewal loop and unpublishes every registration. Idempotent.
func (c *ServiceRegistryClient) Close(ctx context.Context) error {
	c.stopOnce.Do(func() {
		close(c.stop)
		c.wg.Wait()

		c.opMu.Lock()
		defer c.opMu.Unlock()
		for _, reg := range c.snapshot() {
			if reg.entryID == "" {
				continue
			}
			if err := c.registry.Unpublish(ctx, reg.entryID); err != nil {
				level.Warn(c.logger).Log("msg", "unpublish failed", "bean", reg.key.String(), "err", err)
			}
			reg.entryID = ""
		}
	})
	return nil
}

// visible reports whether an entry may be consumed from this instance's subsystem.
func (c *ServiceRegistryClient) visible(e domain.RegistryEntry) bool {
	return e.Properties.Zone().Subsystem == c.zone.Subsystem || e.Properties.IsPublicAPI()
}

// List returns the entries of key visible from this subsystem, published or not.
func (c *ServiceRegistryClient) List(ctx context.Context, key domain.BeanKey) ([]domain.RegistryEntry, error) {
	entries, err := c.registry.List(ctx, key.TypeName(), key.Qualifier())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", key, err)
	}
	out := make([]domain.RegistryEntry, 0, len(entries))
	for _, e := range entries {
		if c.visible(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Lookup selects the provider to bind key to: visible, published, own zone first when this instance
// is tagged, then lowest entry id.
func (c *ServiceRegistryClient) Lookup(ctx context.Context, key domain.BeanKey) (domain.RegistryEntry, bool, error) {
	visible, err := c.List(ctx, key)
	if err != nil {
		return domain.RegistryEntry{}, false, err
	}
	if len(visible) == 0 {
		if err := c.checkDirectProviders(key); err != nil {
			return domain.RegistryEntry{}, false, err
		}
		return domain.RegistryEntry{}, false, nil
	}

	live := visible[:0]
	for _, e := range visible {
		if e.Properties.IsPublished() {
			live = append(live, e)
		}
	}
	if len(live) == 0 {
		return domain.RegistryEntry{}, false, nil
	}
	sort.SliceStable(live, func(i, j int) bool {
		if c.zone.IsTagged() {
			si := live[i].Properties.Zone() == c.zone
			sj := live[j].Properties.Zone() == c.zone
			if si != sj {
				return si
			}
		}
		return live[i].ID < live[j].ID
	})
	return live[0], true, nil
}

// checkDirectProviders turns "nothing visible" into an isolation error when the key is provided
// outside the registry, but only by other subsystems.
func (c *ServiceRegistryClient) checkDirectProviders(key domain.BeanKey) error {
	if c.directs == nil {
		return nil
	}
	subsystems := c.directs.ProviderSubsystems(key)
	if len(subsystems) == 0 {
		return nil
	}
	for _, s := range subsystems {
		if s == c.zone.Subsystem {
			return nil
		}
	}
	return NewIllegalSubsystemError(
		fmt.Sprintf("%s is provided by subsystem %v and cannot be consumed from subsystem %s", key, subsystems, c.zone.Subsystem),
		nil,
	)
}
