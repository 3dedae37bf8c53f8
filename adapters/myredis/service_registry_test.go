package myredis

import (
	"context"
	"testing"
	"time"

	"myremoting/domain"
	"myremoting/helpers"
	"myremoting/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/benbjohnson/clock"
	"github.com/go-kit/log"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServiceType = "myremoting/service.AccountPerformance"

func setupTestRegistry(t *testing.T) (*serviceRegistry, *miniredis.Miniredis, *clock.Mock) {
	t.Helper()
	server := miniredis.RunT(t)
	client, err := NewRedisUniversalClient("redis://" + server.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	mock := clock.NewMock()
	mock.Set(helpers.TestNow())
	return NewServiceRegistry(client, "test", mock, log.NewNopLogger()), server, mock
}

func publisherProps(instance string) domain.ServiceProperties {
	return domain.ServiceProperties{
		domain.PropertyApplicationInstanceID: instance,
		domain.PropertyZone:                  "account",
		domain.PropertyPublished:             "true",
		domain.PropertyComponent:             domain.ComponentDirect,
	}
}

func TestNewRedisUniversalClient(t *testing.T) {
	_, err := NewRedisUniversalClient("://bad")
	require.Error(t, err)

	client, err := NewRedisUniversalClient("redis://localhost:6379/2", WithPoolSize(3), WithTimeouts(time.Second, time.Second, time.Second))
	require.NoError(t, err)
	defer client.Close()
}

func TestNewServiceRegistry_Panics(t *testing.T) {
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{"localhost:6379"}})
	defer client.Close()

	assert.PanicsWithValue(t, "myredis.service_registry.go: redis client is required", func() {
		NewServiceRegistry(nil, "", clock.NewMock(), log.NewNopLogger())
	})
	assert.PanicsWithValue(t, "myredis.service_registry.go: time provider is required", func() {
		NewServiceRegistry(client, "", nil, log.NewNopLogger())
	})
	assert.PanicsWithValue(t, "myredis.service_registry.go: logger is required", func() {
		NewServiceRegistry(client, "", clock.NewMock(), nil)
	})
	assert.Equal(t, DefaultPrefix, NewServiceRegistry(client, "", clock.NewMock(), log.NewNopLogger()).prefix)
}

func TestServiceRegistry_Publish(t *testing.T) {
	ctx := context.Background()
	r, server, _ := setupTestRegistry(t)

	t.Run("invalid arguments", func(t *testing.T) {
		_, err := r.Publish(ctx, "", "", publisherProps("a"), time.Second)
		assert.True(t, service.IsBadParameterError(err))
		_, err = r.Publish(ctx, testServiceType, "", publisherProps("a"), 0)
		assert.True(t, service.IsBadParameterError(err))
	})

	t.Run("upsert by publisher", func(t *testing.T) {
		id1, err := r.Publish(ctx, testServiceType, "q", publisherProps("server-1"), 10*time.Second)
		require.NoError(t, err)
		require.NotEmpty(t, id1)

		id2, err := r.Publish(ctx, testServiceType, "q", publisherProps("server-1").With(domain.PropertyPublished, "false"), 10*time.Second)
		require.NoError(t, err)
		assert.Equal(t, id1, id2)

		id3, err := r.Publish(ctx, testServiceType, "q", publisherProps("server-2"), 10*time.Second)
		require.NoError(t, err)
		assert.NotEqual(t, id1, id3)

		entries, err := r.List(ctx, testServiceType, "q")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		byID := map[string]domain.RegistryEntry{entries[0].ID: entries[0], entries[1].ID: entries[1]}
		assert.False(t, byID[id1].Properties.IsPublished())
		assert.True(t, byID[id3].Properties.IsPublished())
		assert.Less(t, entries[0].ID, entries[1].ID)
	})

	t.Run("entry key carries the lease as ttl", func(t *testing.T) {
		id, err := r.Publish(ctx, testServiceType, "ttl", publisherProps("server-1"), 10*time.Second)
		require.NoError(t, err)
		assert.Equal(t, 10*time.Second, server.TTL("test:entry:"+id))
	})

	t.Run("qualifiers are separate", func(t *testing.T) {
		entries, err := r.List(ctx, testServiceType, "other")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestServiceRegistry_ExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	r, _, mock := setupTestRegistry(t)

	id, err := r.Publish(ctx, testServiceType, "", publisherProps("server-1"), 10*time.Second)
	require.NoError(t, err)

	mock.Add(10 * time.Second)
	entries, err := r.List(ctx, testServiceType, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)

	mock.Add(time.Millisecond)
	entries, err = r.List(ctx, testServiceType, "")
	require.NoError(t, err)
	assert.Empty(t, entries)

	err = r.Renew(ctx, id)
	assert.True(t, service.IsEntityNotFoundError(err))
}

func TestServiceRegistry_Renew(t *testing.T) {
	ctx := context.Background()
	r, _, mock := setupTestRegistry(t)

	t.Run("extends the lease from now", func(t *testing.T) {
		id, err := r.Publish(ctx, testServiceType, "", publisherProps("server-1"), 10*time.Second)
		require.NoError(t, err)

		mock.Add(8 * time.Second)
		require.NoError(t, r.Renew(ctx, id))

		mock.Add(8 * time.Second)
		entries, err := r.List(ctx, testServiceType, "")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, mock.Now().Add(2*time.Second), entries[0].ExpiresAt.UTC())
	})

	t.Run("never creates", func(t *testing.T) {
		err := r.Renew(ctx, "unknown")
		assert.True(t, service.IsEntityNotFoundError(err))
	})
}

// afterGetHook runs fn once, right after the first GET of key returns.
type afterGetHook struct {
	key  string
	fn   func()
	done bool
}

func (h *afterGetHook) BeforeProcess(ctx context.Context, _ redis.Cmder) (context.Context, error) {
	return ctx, nil
}

func (h *afterGetHook) AfterProcess(_ context.Context, cmd redis.Cmder) error {
	args := cmd.Args()
	if !h.done && cmd.Name() == "get" && len(args) == 2 && args[1] == h.key {
		h.done = true
		h.fn()
	}
	return nil
}

func (h *afterGetHook) BeforeProcessPipeline(ctx context.Context, _ []redis.Cmder) (context.Context, error) {
	return ctx, nil
}

func (h *afterGetHook) AfterProcessPipeline(context.Context, []redis.Cmder) error {
	return nil
}

func TestServiceRegistry_RenewRacingUnpublish(t *testing.T) {
	ctx := context.Background()
	r, server, _ := setupTestRegistry(t)

	id, err := r.Publish(ctx, testServiceType, "", publisherProps("server-1"), 10*time.Second)
	require.NoError(t, err)
	entryKey := r.entries.generateKey(id)

	// The entry disappears between the read and the write of the renewal.
	r.client.AddHook(&afterGetHook{key: entryKey, fn: func() {
		server.Del(entryKey)
		_, _ = server.SRem(r.indexKey(testServiceType, ""), id)
	}})

	err = r.Renew(ctx, id)
	assert.True(t, service.IsEntityNotFoundError(err))
	assert.False(t, server.Exists(entryKey), "renewal must not recreate the entry")

	err = r.Renew(ctx, id)
	assert.True(t, service.IsEntityNotFoundError(err))
	entries, err := r.List(ctx, testServiceType, "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRedisCache_ReplaceValue(t *testing.T) {
	ctx := context.Background()
	r, server, _ := setupTestRegistry(t)
	entry := domain.RegistryEntry{ID: "entry-1", ServiceType: testServiceType}

	replaced, err := r.entries.ReplaceValue(ctx, "entry-1", entry, time.Minute)
	require.NoError(t, err)
	assert.False(t, replaced)
	assert.False(t, server.Exists(r.entries.generateKey("entry-1")))

	require.NoError(t, r.entries.writeTo(ctx, r.client, "entry-1", entry, time.Minute))
	entry.Qualifier = "q"
	replaced, err = r.entries.ReplaceValue(ctx, "entry-1", entry, 2*time.Minute)
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, 2*time.Minute, server.TTL(r.entries.generateKey("entry-1")))

	got, found, err := r.entries.ReadValue(ctx, "entry-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "q", got.Qualifier)
}

func TestServiceRegistry_Unpublish(t *testing.T) {
	ctx := context.Background()
	r, server, _ := setupTestRegistry(t)

	id, err := r.Publish(ctx, testServiceType, "", publisherProps("server-1"), 10*time.Second)
	require.NoError(t, err)

	require.NoError(t, r.Unpublish(ctx, id))
	require.NoError(t, r.Unpublish(ctx, id))
	assert.False(t, server.Exists("test:entry:"+id))

	entries, err := r.List(ctx, testServiceType, "")
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.True(t, service.IsEntityNotFoundError(r.Renew(ctx, id)))

	again, err := r.Publish(ctx, testServiceType, "", publisherProps("server-1"), 10*time.Second)
	require.NoError(t, err)
	assert.NotEqual(t, id, again)
}

func TestServiceRegistry_RedisEvictionPrunesIndex(t *testing.T) {
	ctx := context.Background()
	r, server, _ := setupTestRegistry(t)

	_, err := r.Publish(ctx, testServiceType, "", publisherProps("server-1"), 10*time.Second)
	require.NoError(t, err)
	server.FastForward(11 * time.Second)

	entries, err := r.List(ctx, testServiceType, "")
	require.NoError(t, err)
	assert.Empty(t, entries)

	members, err := server.Members(r.indexKey(testServiceType, ""))
	if err == nil {
		assert.Empty(t, members)
	}
}

func TestServiceRegistry_StorageFailure(t *testing.T) {
	ctx := context.Background()
	r, server, _ := setupTestRegistry(t)
	server.Close()

	_, err := r.Publish(ctx, testServiceType, "", publisherProps("server-1"), 10*time.Second)
	assert.True(t, service.IsInternalServerError(err))

	_, err = r.List(ctx, testServiceType, "")
	assert.True(t, service.IsInternalServerError(err))

	err = r.Renew(ctx, "any")
	assert.True(t, service.IsInternalServerError(err))
}
