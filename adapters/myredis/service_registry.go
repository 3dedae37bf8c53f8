package myredis

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"myremoting/domain"
	"myremoting/helpers"
	"myremoting/interfaces"
	"myremoting/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"
)

// DefaultPrefix is the key namespace used when RedisConfig.Prefix is empty.
const DefaultPrefix = "myregistry"

// serviceRegistry keeps registry entries in Redis:
//
//	<prefix>:entry:<id>                      JSON domain.RegistryEntry, TTL = lease
//	<prefix>:owner:<hash(type|qualifier|publisher)>  entry id, TTL = lease
//	<prefix>:type:<type>[<qualifier>]        set of entry ids
//
// Redis TTLs only bound memory. Visibility is decided by ExpiresAt against the injected clock, so an
// entry at its boundary instant is still listed.
type serviceRegistry struct {
	client  redis.UniversalClient
	prefix  string
	now     interfaces.TimeProvider
	logger  log.Logger
	entries *redisCache[domain.RegistryEntry]
	newID   func() string
}

var _ interfaces.ServiceRegistry = (*serviceRegistry)(nil)

// NewServiceRegistry creates a Redis backed interfaces.ServiceRegistry. Panics on nil client, time
// provider or logger. An empty prefix falls back to DefaultPrefix.
//
// Called from cmd/myregistry when REDIS_ADDR is set.
func NewServiceRegistry(client redis.UniversalClient, prefix string, now interfaces.TimeProvider, logger log.Logger) *serviceRegistry {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	client = helpers.NilPanic(client, "myredis.service_registry.go: redis client is required")
	return &serviceRegistry{
		client:  client,
		prefix:  prefix,
		now:     helpers.NilPanic(now, "myredis.service_registry.go: time provider is required"),
		logger:  log.With(helpers.NilPanic(logger, "myredis.service_registry.go: logger is required"), "component", "redis_service_registry"),
		entries: newCache[domain.RegistryEntry](client, prefix+":entry", marshalEntry, unmarshalEntry),
		newID:   uuid.NewString,
	}
}

func marshalEntry(e domain.RegistryEntry) ([]byte, error) { return json.Marshal(e) }

func unmarshalEntry(b []byte) (domain.RegistryEntry, error) {
	var e domain.RegistryEntry
	err := json.Unmarshal(b, &e)
	return e, err
}

func (r *serviceRegistry) ownerKey(serviceType, qualifier, publisher string) string {
	h1, h2 := murmur3.Sum128([]byte(serviceType + "|" + qualifier + "|" + publisher))
	var b [16]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(h1 >> (56 - 8*i))
		b[8+i] = byte(h2 >> (56 - 8*i))
	}
	return r.prefix + ":owner:" + hex.EncodeToString(b[:])
}

func (r *serviceRegistry) indexKey(serviceType, qualifier string) string {
	return r.prefix + ":type:" + serviceType + "[" + qualifier + "]"
}

// Publish creates the entry of a provider or refreshes the one it already owns.
func (r *serviceRegistry) Publish(ctx context.Context, serviceType, qualifier string, properties domain.ServiceProperties, lease time.Duration) (string, error) {
	if err := service.ValidatePublish(serviceType, properties, lease); err != nil {
		return "", err
	}
	owner := r.ownerKey(serviceType, qualifier, properties.PublisherID())
	id, err := r.client.Get(ctx, owner).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", service.NewInternalServerError("Redis read owner error", fmt.Errorf("can't read owner of %s[%s], err: %w", serviceType, qualifier, err))
	}
	if id != "" {
		if _, found, err := r.entries.ReadValue(ctx, id); err != nil {
			return "", err
		} else if !found {
			id = ""
		}
	}
	if id == "" {
		id = r.newID()
	}

	entry := domain.RegistryEntry{
		ID:            id,
		ServiceType:   serviceType,
		Qualifier:     qualifier,
		Properties:    properties.Clone(),
		LeaseDuration: lease,
		ExpiresAt:     r.now.Now().Add(lease),
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if err := r.entries.writeTo(ctx, pipe, id, entry, lease); err != nil {
			return err
		}
		pipe.Set(ctx, owner, id, lease)
		pipe.SAdd(ctx, r.indexKey(serviceType, qualifier), id)
		return nil
	})
	if err != nil {
		return "", toInternal("Redis publish error", err)
	}
	return id, nil
}

// Renew extends the lease of a live entry. An entry whose lease already ran out is removed and
// reported as not found.
func (r *serviceRegistry) Renew(ctx context.Context, entryID string) error {
	entry, found, err := r.entries.ReadValue(ctx, entryID)
	if err != nil {
		return err
	}
	if !found {
		return service.NewEntityNotFoundError("registry entry "+entryID+" not found", nil)
	}
	now := r.now.Now()
	if entry.IsExpired(now) {
		if err := r.remove(ctx, entry); err != nil {
			level.Warn(r.logger).Log("msg", "failed to drop expired entry", "entry_id", entryID, "err", err)
		}
		return service.NewEntityNotFoundError("registry entry "+entryID+" expired", nil)
	}

	// An Unpublish may land after the read; the entry must then stay deleted.
	entry.ExpiresAt = now.Add(entry.LeaseDuration)
	replaced, err := r.entries.ReplaceValue(ctx, entryID, entry, entry.LeaseDuration)
	if err != nil {
		return err
	}
	if !replaced {
		return service.NewEntityNotFoundError("registry entry "+entryID+" not found", nil)
	}
	owner := r.ownerKey(entry.ServiceType, entry.Qualifier, entry.Properties.PublisherID())
	if err := r.client.PExpire(ctx, owner, entry.LeaseDuration).Err(); err != nil {
		return toInternal("Redis renew error", err)
	}
	return nil
}

// Unpublish removes the entry immediately. Unknown entries are ignored.
func (r *serviceRegistry) Unpublish(ctx context.Context, entryID string) error {
	entry, found, err := r.entries.ReadValue(ctx, entryID)
	if err != nil || !found {
		return err
	}
	return r.remove(ctx, entry)
}

func (r *serviceRegistry) remove(ctx context.Context, entry domain.RegistryEntry) error {
	owner := r.ownerKey(entry.ServiceType, entry.Qualifier, entry.Properties.PublisherID())
	current, err := r.client.Get(ctx, owner).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return service.NewInternalServerError("Redis read owner error", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if err := r.entries.deleteFrom(ctx, pipe, entry.ID); err != nil {
			return err
		}
		pipe.SRem(ctx, r.indexKey(entry.ServiceType, entry.Qualifier), entry.ID)
		if current == entry.ID {
			pipe.Del(ctx, owner)
		}
		return nil
	})
	if err != nil {
		return toInternal("Redis unpublish error", err)
	}
	return nil
}

// List returns live entries of (serviceType, qualifier) ordered by id. Ids whose entry key is gone
// are pruned from the index.
func (r *serviceRegistry) List(ctx context.Context, serviceType, qualifier string) ([]domain.RegistryEntry, error) {
	index := r.indexKey(serviceType, qualifier)
	ids, err := r.client.SMembers(ctx, index).Result()
	if err != nil {
		return nil, service.NewInternalServerError("Redis get index error", fmt.Errorf("can't read index %s, err: %w", index, err))
	}
	entries, missing, err := r.entries.ReadValues(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		members := make([]any, 0, len(missing))
		for _, id := range missing {
			members = append(members, id)
		}
		if err := r.client.SRem(ctx, index, members...).Err(); err != nil {
			level.Warn(r.logger).Log("msg", "failed to prune registry index", "index", index, "err", err)
		}
	}

	now := r.now.Now()
	out := make([]domain.RegistryEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsExpired(now) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func toInternal(message string, err error) error {
	if myErr := service.ToMyError(err); myErr != nil {
		return myErr
	}
	return service.NewInternalServerError(message, err)
}
