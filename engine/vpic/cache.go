package vpic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores decoded vehicles by normalized VIN.
type Cache interface {
	Get(ctx context.Context, vin string) (Vehicle, bool, error)
	Set(ctx context.Context, vin string, v Vehicle, ttl time.Duration) error
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	v       Vehicle
	expires time.Time // zero = never
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryCache) Get(_ context.Context, vin string) (Vehicle, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[vin]
	if !ok {
		return Vehicle{}, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, vin)
		return Vehicle{}, false, nil
	}
	return e.v, true, nil
}

func (m *MemoryCache) Set(_ context.Context, vin string, v Vehicle, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{v: v}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.entries[vin] = e
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// RedisCache stores vehicles as JSON under "vpic:<VIN>".
type RedisCache struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client, prefix: "vpic:"}
}

// DialRedis parses url, pings the server and returns a RedisCache.
func DialRedis(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisCache(client), nil
}

func (r *RedisCache) key(vin string) string { return r.prefix + vin }

func (r *RedisCache) Get(ctx context.Context, vin string) (Vehicle, bool, error) {
	data, err := r.client.Get(ctx, r.key(vin)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Vehicle{}, false, nil
	}
	if err != nil {
		return Vehicle{}, false, err
	}
	var v Vehicle
	if err := json.Unmarshal(data, &v); err != nil {
		return Vehicle{}, false, fmt.Errorf("vpic cache: corrupt entry for %s: %w", vin, err)
	}
	return v, true, nil
}

func (r *RedisCache) Set(ctx context.Context, vin string, v Vehicle, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(vin), data, ttl).Err()
}

// Close closes the underlying client.
func (r *RedisCache) Close() error { return r.client.Close() }
