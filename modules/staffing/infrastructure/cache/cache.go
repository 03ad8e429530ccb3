// Package cache keeps materialized aggregates keyed by their version. A write
// produces a new version and therefore a new key, so entries never need
// invalidation; stale ones age out through the TTL.
package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/staffing/pkg/configuration"
	"github.com/iota-uz/staffing/pkg/versioned"
)

type Cache interface {
	// Get decodes the entry into dest. ok=false means a miss.
	Get(ctx context.Context, key string, dest any) (ok bool, err error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// Key names the entry of one aggregate version.
func Key(entity string, id uuid.UUID, version versioned.Token) string {
	return fmt.Sprintf("%s:%s:%s", entity, id, strconv.FormatInt(version.Time().UnixMicro(), 36))
}

// New builds the cache selected by opts. A disabled cache never hits.
func New(opts configuration.CacheOptions, log *logrus.Logger) (Cache, func() error, error) {
	if !opts.Enabled {
		return Noop{}, func() error { return nil }, nil
	}
	switch opts.Storage {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: opts.RedisURL})
		log.WithField("addr", opts.RedisURL).Info("aggregate cache: redis")
		return NewRedisCache(client, opts.Prefix, opts.TTL), client.Close, nil
	case "memory":
		return NewMemoryCache(opts.TTL, nil), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache storage %q", opts.Storage)
	}
}

type Noop struct{}

func (Noop) Get(context.Context, string, any) (bool, error) { return false, nil }
func (Noop) Set(context.Context, string, any) error         { return nil }
func (Noop) Delete(context.Context, ...string) error        { return nil }
func (Noop) Ping(context.Context) error                     { return nil }
