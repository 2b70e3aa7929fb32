// Package redis caches alert cutouts in Redis hashes.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/storage"
)

// DefaultTTL bounds how long stamps stay cached.
const DefaultTTL = 24 * time.Hour

const keyPrefix = "babamul:cutouts"

// Hash fields. An absent field is an absent stamp.
const (
	fieldScience    = "science"
	fieldTemplate   = "template"
	fieldDifference = "difference"
)

// CutoutCache implements storage.CutoutCache on Redis.
type CutoutCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Compile-time interface check.
var _ storage.CutoutCache = (*CutoutCache)(nil)

// NewClient connects to the Redis server at url (redis://[user:pass@]host:port/db).
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 10 * time.Second
	opts.ReadTimeout = 5 * time.Second
	opts.WriteTimeout = 5 * time.Second
	opts.MaxRetries = 3

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewCutoutCache wraps client. A non-positive ttl uses DefaultTTL.
func NewCutoutCache(client *redis.Client, ttl time.Duration) *CutoutCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CutoutCache{client: client, ttl: ttl}
}

// Key returns the hash key holding an alert's stamps.
func Key(survey domain.Survey, candid int64) string {
	return keyPrefix + ":" + survey.Slug() + ":" + strconv.FormatInt(candid, 10)
}

// GetCutouts returns cached stamps. Returns ErrNotFound on a miss.
func (c *CutoutCache) GetCutouts(ctx context.Context, survey domain.Survey, candid int64) (*domain.Cutouts, error) {
	fields, err := c.client.HGetAll(ctx, Key(survey, candid)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get cutouts: %w", err)
	}
	if len(fields) == 0 {
		return nil, storage.ErrNotFound
	}

	return &domain.Cutouts{
		Candid:     candid,
		Science:    stamp(fields, fieldScience),
		Template:   stamp(fields, fieldTemplate),
		Difference: stamp(fields, fieldDifference),
	}, nil
}

// PutCutouts stores stamps, replacing any cached entry, and resets the TTL.
func (c *CutoutCache) PutCutouts(ctx context.Context, survey domain.Survey, cut *domain.Cutouts) error {
	if cut == nil || survey == "" {
		return storage.ErrInvalidInput
	}

	values := make(map[string]any, 3)
	if cut.Science != nil {
		values[fieldScience] = cut.Science
	}
	if cut.Template != nil {
		values[fieldTemplate] = cut.Template
	}
	if cut.Difference != nil {
		values[fieldDifference] = cut.Difference
	}
	if len(values) == 0 {
		return nil
	}

	key := Key(survey, cut.Candid)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, values)
		pipe.Expire(ctx, key, c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("put cutouts: %w", err)
	}
	return nil
}

func stamp(fields map[string]string, name string) []byte {
	v, ok := fields[name]
	if !ok {
		return nil
	}
	return []byte(v)
}
