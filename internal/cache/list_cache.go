// Package cache stores serialized list pages in Redis.
//
// Keys embed a per-resource generation number. Invalidating a resource bumps
// its generation, so every page cached under the old number becomes
// unreachable and simply expires.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const keyPrefix = "attendance-service"

// ListCache is a read-through cache for list responses. Redis failures and an
// open breaker are treated as misses.
type ListCache struct {
	client redis.Cmdable
	cb     *gobreaker.CircuitBreaker
	ttl    time.Duration
	logger *zap.Logger
}

// NewListCache wraps client with a circuit breaker.
func NewListCache(client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *ListCache {
	settings := gobreaker.Settings{
		Name:        "redis-list-cache",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("cache circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &ListCache{
		client: client,
		cb:     gobreaker.NewCircuitBreaker(settings),
		ttl:    ttl,
		logger: logger,
	}
}

func generationKey(resource string) string {
	return fmt.Sprintf("%s:gen:%s", keyPrefix, resource)
}

func pageKey(resource string, generation int64, key string) string {
	return fmt.Sprintf("%s:list:%s:%d:%s", keyPrefix, resource, generation, key)
}

func (c *ListCache) generation(ctx context.Context, resource string) (int64, error) {
	res, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.Get(ctx, generationKey(resource)).Int64()
	})
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}

// NoGeneration is returned by Get when the generation could not be read.
// Set ignores it.
const NoGeneration int64 = -1

// Get decodes the cached page for key into dest. It returns the generation it
// looked under and whether the page was found. Pass that generation to Set so a
// page loaded before an invalidation is never stored under the newer generation.
func (c *ListCache) Get(ctx context.Context, resource, key string, dest any) (int64, bool) {
	gen, err := c.generation(ctx, resource)
	if err != nil {
		c.logger.Debug("cache generation lookup failed", zap.String("resource", resource), zap.Error(err))
		return NoGeneration, false
	}

	res, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.Get(ctx, pageKey(resource, gen, key)).Bytes()
	})
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("cache read failed", zap.String("resource", resource), zap.Error(err))
		}
		return gen, false
	}

	if err := json.Unmarshal(res.([]byte), dest); err != nil {
		c.logger.Warn("cache entry undecodable", zap.String("resource", resource), zap.Error(err))
		return gen, false
	}
	return gen, true
}

// Set stores value under key in generation gen for the configured TTL. Nothing
// is written when gen is no longer current. Failures are logged only.
func (c *ListCache) Set(ctx context.Context, resource, key string, gen int64, value any) {
	if gen < 0 {
		return
	}
	body, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache entry unencodable", zap.String("resource", resource), zap.Error(err))
		return
	}

	current, err := c.generation(ctx, resource)
	if err != nil || current != gen {
		return
	}

	_, err = c.cb.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, pageKey(resource, gen, key), body, c.ttl).Err()
	})
	if err != nil {
		c.logger.Debug("cache write failed", zap.String("resource", resource), zap.Error(err))
	}
}

// Invalidate makes every cached page of resource unreachable.
func (c *ListCache) Invalidate(ctx context.Context, resource string) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.Incr(ctx, generationKey(resource)).Result()
	})
	if err != nil {
		return fmt.Errorf("invalidate %s cache: %w", resource, err)
	}
	return nil
}
