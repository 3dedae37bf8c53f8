package myredis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myremoting/service"

	"github.com/go-redis/redis/v8"
)

// redisCache stores values of one type as serialized blobs under prefix:key.
type redisCache[T any] struct {
	client    redis.UniversalClient
	prefix    string
	marshal   func(T) ([]byte, error)
	unmarshal func([]byte) (T, error)
	zero      T
}

// newCache creates a typed view over client for keys under prefix.
func newCache[T any](client redis.UniversalClient, prefix string, marshal func(T) ([]byte, error), unmarshal func([]byte) (T, error)) *redisCache[T] {
	var zero T
	return &redisCache[T]{
		client:    client,
		prefix:    prefix,
		zero:      zero,
		marshal:   marshal,
		unmarshal: unmarshal,
	}
}

// ReplaceValue overwrites key with item and ttl only while key exists (SET XX).
// Returns: (true, nil) when replaced; (false, nil) when key is gone, in which case nothing is written.
func (r *redisCache[T]) ReplaceValue(ctx context.Context, key string, item T, ttl time.Duration) (bool, error) {
	bytes, err := r.marshal(item)
	if err != nil {
		return false, service.NewInternalServerError("Redis marshal item error", fmt.Errorf("can't marshal item of type %T, err: %w", item, err))
	}
	replaced, err := r.client.SetXX(ctx, r.generateKey(key), bytes, ttl).Result()
	if err != nil {
		return false, service.NewInternalServerError("Redis write key error", fmt.Errorf("can't replace item of type %T in redis (key='%s'), err: %w", item, key, err))
	}
	return replaced, nil
}

// writeTo queues the write on cmd, which may be a transaction pipeline.
func (r *redisCache[T]) writeTo(ctx context.Context, cmd redis.Cmdable, key string, item T, ttl time.Duration) error {
	bytes, err := r.marshal(item)
	if err != nil {
		return service.NewInternalServerError("Redis marshal item error", fmt.Errorf("can't marshal item of type %T, err: %w", item, err))
	}
	if err := cmd.Set(ctx, r.generateKey(key), bytes, ttl).Err(); err != nil {
		return service.NewInternalServerError("Redis write key error", fmt.Errorf("can't write item of type %T to redis (key='%s'), err: %w", item, key, err))
	}
	return nil
}

// ReadValue returns (item, true, nil) when key exists and (zero, false, nil) when it does not.
func (r *redisCache[T]) ReadValue(ctx context.Context, key string) (T, bool, error) {
	bytes, err := r.client.Get(ctx, r.generateKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return r.zero, false, nil
	}
	if err != nil {
		return r.zero, false, service.NewInternalServerError("Redis read key error", fmt.Errorf("can't read item of type %T from redis (key='%s'), err: %w", r.zero, key, err))
	}
	item, err := r.unmarshal(bytes)
	if err != nil {
		return r.zero, false, service.NewInternalServerError("Redis unmarshal item error", fmt.Errorf("can't unmarshal item of type %T (key='%s'), err: %w", r.zero, key, err))
	}
	return item, true, nil
}

// ReadValues fetches keys in one round trip. Keys that are gone or unreadable are returned in missing.
func (r *redisCache[T]) ReadValues(ctx context.Context, keys []string) (items []T, missing []string, err error) {
	if len(keys) == 0 {
		return nil, nil, nil
	}
	fullKeys := make([]string, 0, len(keys))
	for _, k := range keys {
		fullKeys = append(fullKeys, r.generateKey(k))
	}
	values, err := r.client.MGet(ctx, fullKeys...).Result()
	if err != nil {
		return nil, nil, service.NewInternalServerError("Redis get keys error", fmt.Errorf("redis mget error, err: %w", err))
	}
	items = make([]T, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			missing = append(missing, keys[i])
			continue
		}
		item, err := r.unmarshal([]byte(s))
		if err != nil {
			missing = append(missing, keys[i])
			continue
		}
		items = append(items, item)
	}
	return items, missing, nil
}

// deleteFrom queues the removal of key on cmd.
func (r *redisCache[T]) deleteFrom(ctx context.Context, cmd redis.Cmdable, key string) error {
	if err := cmd.Del(ctx, r.generateKey(key)).Err(); err != nil {
		return service.NewInternalServerError("Redis delete key error", fmt.Errorf("can't delete item of type %T from redis (key='%s'), err: %w", r.zero, key, err))
	}
	return nil
}

func (r *redisCache[T]) generateKey(key string) string {
	return r.prefix + ":" + key
}
