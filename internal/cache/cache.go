// Package cache caches serialized records such as the application settings.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"github.com/gitforge-admin/gitforge-admin/internal/config"
)

const defaultSize = 16

// ErrUnknownDriver is returned by New for unsupported drivers.
var ErrUnknownDriver = errors.New("unknown cache driver")

// Store is a byte cache. Get reports a miss with ok=false and a nil error.
// Add stores val only when key is absent and reports whether it did; readers filling
// the cache use it so they never replace a value a writer stored meanwhile.
type Store interface {
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte) error
	Add(ctx context.Context, key string, val []byte) (bool, error)
	Delete(ctx context.Context, key string) error
}

// New creates the store selected by cfg.Driver.
func New(cfg config.Cache) (Store, error) {
	switch cfg.Driver {
	case config.CacheNone:
		return None{}, nil
	case config.CacheMemory, "":
		return NewMemory(cfg.Size, cfg.TTL), nil
	case config.CacheRedis:
		return NewRedis(redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}), cfg.Redis.Prefix, cfg.TTL), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
}

// None never caches.
type None struct{}

// Get always misses.
func (None) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set does nothing.
func (None) Set(context.Context, string, []byte) error { return nil }

// Add does nothing.
func (None) Add(context.Context, string, []byte) (bool, error) { return false, nil }

// Delete does nothing.
func (None) Delete(context.Context, string) error { return nil }

// Memory is a process local expirable LRU.
type Memory struct {
	// mu makes Add atomic against Set.
	mu  sync.Mutex
	lru *expirable.LRU[string, []byte]
}

// NewMemory creates a Memory store holding up to size entries for ttl; ttl 0 keeps entries until evicted.
func NewMemory(size int, ttl time.Duration) *Memory {
	if size <= 0 {
		size = defaultSize
	}

	return &Memory{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get returns a copy of the cached value.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}

	return append([]byte(nil), v...), true, nil
}

// Set stores a copy of val.
func (m *Memory) Set(_ context.Context, key string, val []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lru.Add(key, append([]byte(nil), val...))

	return nil
}

// Add stores a copy of val unless key is cached.
func (m *Memory) Add(_ context.Context, key string, val []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.lru.Get(key); ok {
		return false, nil
	}

	m.lru.Add(key, append([]byte(nil), val...))

	return true, nil
}

// Delete removes key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lru.Remove(key)

	return nil
}

// Redis shares cached values between instances.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis wraps client; keys are stored as prefix:key.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(k string) string {
	if r.prefix == "" {
		return k
	}

	return r.prefix + ":" + k
}

// Get reads key from redis.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	return v, true, nil
}

// Set writes key with the configured ttl.
func (r *Redis) Set(ctx context.Context, key string, val []byte) error {
	if err := r.client.Set(ctx, r.key(key), val, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// Add writes key with the configured ttl unless it exists.
func (r *Redis) Add(ctx context.Context, key string, val []byte) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.key(key), val, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}

	return ok, nil
}

// Delete removes key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}

	return nil
}
