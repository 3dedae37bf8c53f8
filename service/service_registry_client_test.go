package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"myremoting/domain"
	"myremoting/interfaces/mock"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type AccountPerformance interface {
	Performance(ctx context.Context, account string) (string, error)
}

func clientConfig(subsystem, tag, instance string) domain.Config {
	cfg := domain.DefaultConfig()
	cfg.Subsystem = subsystem
	cfg.Tag = tag
	cfg.ApplicationInstanceID = instance
	cfg.LeaseDuration = time.Minute
	cfg.RenewInterval = 20 * time.Millisecond
	return cfg
}

func TestNewServiceRegistryClient_Panics(t *testing.T) {
	reg := &mock.ServiceRegistryMock{}
	cfg := clientConfig("account", "", "server-1")

	assert.PanicsWithValue(t, "service.service_registry_client.go: registry is required", func() {
		NewServiceRegistryClient(nil, nil, cfg, log.NewNopLogger(), nil)
	})
	assert.PanicsWithValue(t, "service.service_registry_client.go: logger is required", func() {
		NewServiceRegistryClient(reg, nil, cfg, nil, nil)
	})
	bad := cfg
	bad.RenewInterval = bad.LeaseDuration
	assert.PanicsWithValue(t, "service.service_registry_client.go: renew interval must be shorter than the lease", func() {
		NewServiceRegistryClient(reg, nil, bad, log.NewNopLogger(), nil)
	})
}

func TestServiceRegistryClient_RegisterFillsIdentity(t *testing.T) {
	ctx := context.Background()
	registry, _ := newTestRegistry(t)
	c := NewServiceRegistryClient(registry, nil, clientConfig("account", "1", "server-1"), log.NewNopLogger(), nil)

	key := domain.KeyOf[AccountPerformance]("")
	require.NoError(t, c.Register(ctx, key, domain.ServiceProperties{domain.PropertyComponent: domain.ComponentDirect}, false))

	entries, err := registry.List(ctx, key.TypeName(), "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	p := entries[0].Properties
	assert.Equal(t, "account#1", p[domain.PropertyZone])
	assert.Equal(t, "server-1", p.PublisherID())
	assert.Equal(t, key.TypeName(), p[domain.PropertyServiceType])
	assert.Equal(t, "true", p[domain.PropertyPublished])
	assert.Equal(t, time.Minute, entries[0].LeaseDuration)
}

func TestServiceRegistryClient_RefreshRepublishesLostLease(t *testing.T) {
	ctx := context.Background()
	var (
		mu        sync.Mutex
		publishes int
	)
	reg := &mock.ServiceRegistryMock{
		PublishFunc: func(ctx context.Context, serviceType, qualifier string, properties domain.ServiceProperties, lease time.Duration) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			publishes++
			return "entry-" + string(rune('0'+publishes)), nil
		},
		RenewFunc: func(ctx context.Context, entryID string) error {
			return NewEntityNotFoundError("gone", nil)
		},
	}
	c := NewServiceRegistryClient(reg, nil, clientConfig("account", "", "server-1"), log.NewNopLogger(), nil)
	require.NoError(t, c.Register(ctx, domain.KeyOf[AccountPerformance](""), nil, false))

	c.Refresh(ctx)

	require.Len(t, reg.RenewCalls(), 1)
	assert.Equal(t, "entry-1", reg.RenewCalls()[0].EntryID)
	assert.Len(t, reg.PublishCalls(), 2)
}

func TestServiceRegistryClient_RefreshRenewsLiveLease(t *testing.T) {
	ctx := context.Background()
	reg := &mock.ServiceRegistryMock{
		PublishFunc: func(ctx context.Context, serviceType, qualifier string, properties domain.ServiceProperties, lease time.Duration) (string, error) {
			return "entry-1", nil
		},
	}
	c := NewServiceRegistryClient(reg, nil, clientConfig("account", "", "server-1"), log.NewNopLogger(), nil)
	require.NoError(t, c.Register(ctx, domain.KeyOf[AccountPerformance](""), nil, false))

	c.Refresh(ctx)
	c.Refresh(ctx)

	assert.Len(t, reg.PublishCalls(), 1)
	assert.Len(t, reg.RenewCalls(), 2)
}

func TestServiceRegistryClient_RegisterFailureIsRetried(t *testing.T) {
	ctx := context.Background()
	fail := true
	reg := &mock.ServiceRegistryMock{
		PublishFunc: func(ctx context.Context, serviceType, qualifier string, properties domain.ServiceProperties, lease time.Duration) (string, error) {
			if fail {
				return "", assert.AnError
			}
			return "entry-1", nil
		},
	}
	c := NewServiceRegistryClient(reg, nil, clientConfig("account", "", "server-1"), log.NewNopLogger(), nil)
	err := c.Register(ctx, domain.KeyOf[AccountPerformance](""), nil, false)
	require.ErrorIs(t, err, assert.AnError)

	fail = false
	c.Refresh(ctx)
	assert.Len(t, reg.PublishCalls(), 2)
	assert.Empty(t, reg.RenewCalls())
}

func TestServiceRegistryClient_SetPublishServicesRepublishes(t *testing.T) {
	ctx := context.Background()
	registry, _ := newTestRegistry(t)
	c := NewServiceRegistryClient(registry, nil, clientConfig("account", "2", "server-2"), log.NewNopLogger(), nil)
	key := domain.KeyOf[AccountPerformance]("")
	adminKey := domain.KeyOf[AccountPerformance]("admin")
	require.NoError(t, c.Register(ctx, key, nil, false))
	require.NoError(t, c.Register(ctx, adminKey, nil, true))

	c.SetPublishServices(false)
	assert.False(t, c.PublishServices())
	c.Refresh(ctx)

	entries, err := c.List(ctx, key)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Properties.IsPublished())

	admin, err := c.List(ctx, adminKey)
	require.NoError(t, err)
	require.Len(t, admin, 1)
	assert.True(t, admin[0].Properties.IsPublished(), "always published registrations ignore the flag")
}

func TestServiceRegistryClient_StartRenewsInBackground(t *testing.T) {
	ctx := context.Background()
	reg := &mock.ServiceRegistryMock{
		PublishFunc: func(ctx context.Context, serviceType, qualifier string, properties domain.ServiceProperties, lease time.Duration) (string, error) {
			return "entry-1", nil
		},
	}
	c := NewServiceRegistryClient(reg, nil, clientConfig("account", "", "server-1"), log.NewNopLogger(), nil)
	require.NoError(t, c.Register(ctx, domain.KeyOf[AccountPerformance](""), nil, false))
	c.Start()
	c.Start()

	require.Eventually(t, func() bool { return len(reg.RenewCalls()) >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close(ctx))
	require.NoError(t, c.Close(ctx))
	require.Len(t, reg.UnpublishCalls(), 1)
	assert.Equal(t, "entry-1", reg.UnpublishCalls()[0].EntryID)
}

func publishAs(t *testing.T, registry *MemoryServiceRegistry, key domain.BeanKey, instance, zone string, published bool, extra domain.ServiceProperties) string {
	t.Helper()
	props := extra.Clone()
	props[domain.PropertyApplicationInstanceID] = instance
	props[domain.PropertyZone] = zone
	props[domain.PropertyPublished] = map[bool]string{true: "true", false: "false"}[published]
	id, err := registry.Publish(context.Background(), key.TypeName(), key.Qualifier(), props, time.Minute)
	require.NoError(t, err)
	return id
}

func TestServiceRegistryClient_Lookup(t *testing.T) {
	ctx := context.Background()
	key := domain.KeyOf[AccountPerformance]("")

	t.Run("foreign_subsystem_is_invisible", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		publishAs(t, registry, key, "server-1", "lunch", true, nil)
		c := NewServiceRegistryClient(registry, nil, clientConfig("account", "", "client"), log.NewNopLogger(), nil)

		_, found, err := c.Lookup(ctx, key)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("public_api_is_visible_everywhere", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		id := publishAs(t, registry, key, "server-1", "lunch", true, domain.ServiceProperties{domain.PropertyPublicAPI: "true"})
		c := NewServiceRegistryClient(registry, nil, clientConfig("account", "", "client"), log.NewNopLogger(), nil)

		e, found, err := c.Lookup(ctx, key)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, id, e.ID)
	})

	t.Run("unpublished_only_is_no_live_provider", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		publishAs(t, registry, key, "server-1", "account#1", false, nil)
		c := NewServiceRegistryClient(registry, nil, clientConfig("account", "", "client"), log.NewNopLogger(), nil)

		_, found, err := c.Lookup(ctx, key)
		require.NoError(t, err)
		assert.False(t, found)

		all, err := c.List(ctx, key)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("published_copy_wins_any_tag", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		publishAs(t, registry, key, "server-1", "account#1", false, nil)
		id2 := publishAs(t, registry, key, "server-2", "account#2", true, nil)
		c := NewServiceRegistryClient(registry, nil, clientConfig("account", "", "client"), log.NewNopLogger(), nil)

		e, found, err := c.Lookup(ctx, key)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, id2, e.ID)
	})

	t.Run("tagged_consumer_prefers_own_zone", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		ids := []string{"a", "b"}
		n := 0
		registry.newID = func() string { n++; return ids[n-1] }
		publishAs(t, registry, key, "server-1", "account#1", true, nil)
		publishAs(t, registry, key, "server-2", "account#2", true, nil)

		c := NewServiceRegistryClient(registry, nil, clientConfig("account", "2", "feeder-2"), log.NewNopLogger(), nil)
		e, found, err := c.Lookup(ctx, key)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "b", e.ID)

		untagged := NewServiceRegistryClient(registry, nil, clientConfig("account", "", "feeder"), log.NewNopLogger(), nil)
		e, found, err = untagged.Lookup(ctx, key)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "a", e.ID, "lowest entry id breaks ties")
	})

	t.Run("foreign_direct_provider_is_illegal_subsystem", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		directs := &mock.DirectProviderIndexMock{
			ProviderSubsystemsFunc: func(k domain.BeanKey) []string {
				assert.Equal(t, key, k)
				return []string{"lunch"}
			},
		}
		c := NewServiceRegistryClient(registry, directs, clientConfig("account", "", "client"), log.NewNopLogger(), nil)
		_, found, err := c.Lookup(ctx, key)
		assert.False(t, found)
		assert.True(t, IsIllegalSubsystemError(err))
	})

	t.Run("own_direct_provider_not_yet_registered", func(t *testing.T) {
		registry, _ := newTestRegistry(t)
		directs := &mock.DirectProviderIndexMock{
			ProviderSubsystemsFunc: func(domain.BeanKey) []string { return []string{"lunch", "account"} },
		}
		c := NewServiceRegistryClient(registry, directs, clientConfig("account", "", "client"), log.NewNopLogger(), nil)
		_, found, err := c.Lookup(ctx, key)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("registry_failure", func(t *testing.T) {
		reg := &mock.ServiceRegistryMock{
			ListFunc: func(ctx context.Context, serviceType, qualifier string) ([]domain.RegistryEntry, error) {
				return nil, assert.AnError
			},
		}
		c := NewServiceRegistryClient(reg, nil, clientConfig("account", "", "client"), log.NewNopLogger(), nil)
		_, found, err := c.Lookup(ctx, key)
		assert.False(t, found)
		assert.ErrorIs(t, err, assert.AnError)
	})
}
