// Package cache provides the read-through cache used for catalog reference data.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Provider defines the interface for a string key/value cache. Set with a
// non-positive ttl removes the key rather than storing it without expiry.
type Provider interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ErrNotFound is returned by Get on a miss or an expired entry
var ErrNotFound = errors.New("key not found")

type Config struct {
	Provider              string
	RedisConnectionString string
	MemorySize            int
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "memory", "":
		return NewMemoryProvider(cfg.MemorySize)
	case "redis":
		return NewRedisProvider(cfg.RedisConnectionString)
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cfg.Provider)
	}
}

func CatalogKey(name string) string {
	return fmt.Sprintf("catalog:%s", name)
}

// Remember returns the cached JSON value for key, or calls load, stores its
// result for ttl and returns it. Cache failures fall through to load.
func Remember[T any](ctx context.Context, p Provider, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if p != nil {
		if raw, err := p.Get(ctx, key); err == nil {
			var cached T
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if p != nil {
		if raw, err := json.Marshal(value); err == nil {
			_ = p.Set(ctx, key, string(raw), ttl)
		}
	}
	return value, nil
}
