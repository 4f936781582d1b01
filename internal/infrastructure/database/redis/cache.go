package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/fieldplan/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fieldplan/pkg/errors"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

var (
	ErrCacheMiss           = errors.New(errors.ErrCodeNotFound, "cache miss")
	ErrSerializationFailed = errors.New(errors.ErrCodeSerialization, "serialization failed")
)

const (
	planKeyPrefix = "plan:"
	idKeyPrefix   = "plan:id:"
)

// PlanCache stores finished plans as JSON under their input hash, plus a
// secondary plan ID index so plans can be fetched by ID.
type PlanCache struct {
	client     *Client
	logger     logging.Logger
	prefix     string
	defaultTTL time.Duration
	jitter     float64
	group      singleflight.Group
}

type CacheOption func(*PlanCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *PlanCache) { c.prefix = prefix }
}

func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *PlanCache) { c.defaultTTL = ttl }
}

// WithJitter sets the relative TTL jitter; 0 disables it.
func WithJitter(fraction float64) CacheOption {
	return func(c *PlanCache) { c.jitter = fraction }
}

func NewPlanCache(client *Client, log logging.Logger, opts ...CacheOption) *PlanCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &PlanCache{
		client:     client,
		logger:     log,
		prefix:     "fieldplan:",
		defaultTTL: 24 * time.Hour,
		jitter:     0.1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *PlanCache) planKey(key string) string { return c.prefix + planKeyPrefix + key }
func (c *PlanCache) idKey(id string) string    { return c.prefix + idKeyPrefix + id }

func (c *PlanCache) jitterTTL(ttl time.Duration) time.Duration {
	if ttl == 0 || c.jitter == 0 {
		return ttl
	}
	delta := float64(ttl) * c.jitter * (rand.Float64()*2 - 1)
	return ttl + time.Duration(delta)
}

// Get returns the plan cached under key, or ErrCacheMiss.
func (c *PlanCache) Get(ctx context.Context, key string) (*plan.Plan, error) {
	data, err := c.client.Get(ctx, c.planKey(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to get plan from cache")
	}
	var p plan.Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, ErrSerializationFailed.WithCause(err)
	}
	return &p, nil
}

// GetByID resolves a plan ID through the secondary index.
func (c *PlanCache) GetByID(ctx context.Context, id string) (*plan.Plan, error) {
	key, err := c.client.Get(ctx, c.idKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to resolve plan id")
	}
	return c.Get(ctx, key)
}

// Set stores p under key and indexes it by ID. A zero ttl uses the default.
func (c *PlanCache) Set(ctx context.Context, key string, p *plan.Plan, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	ttl = c.jitterTTL(ttl)

	data, err := json.Marshal(p)
	if err != nil {
		return ErrSerializationFailed.WithCause(err)
	}
	if err := c.client.Set(ctx, c.planKey(key), data, ttl).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to cache plan")
	}
	if p.ID != "" {
		if err := c.client.Set(ctx, c.idKey(p.ID), key, ttl).Err(); err != nil {
			return errors.Wrap(err, errors.ErrCodeCacheError, "failed to index plan id")
		}
	}
	return nil
}

// Delete removes the plan cached under key and its ID index entry.
func (c *PlanCache) Delete(ctx context.Context, key, id string) error {
	keys := []string{c.planKey(key)}
	if id != "" {
		keys = append(keys, c.idKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to delete plan")
	}
	return nil
}

// GetOrCompute returns the cached plan for key or computes, caches and
// returns it. Concurrent callers for the same key share one computation.
// hit reports whether the plan came from the cache.
func (c *PlanCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration,
	compute func(ctx context.Context) (*plan.Plan, error)) (p *plan.Plan, hit bool, err error) {

	p, err = c.Get(ctx, key)
	if err == nil {
		return p, true, nil
	}
	if !errors.IsCode(err, errors.ErrCodeNotFound) {
		c.logger.Warn("plan cache read failed", logging.String("key", key), logging.Err(err))
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		p, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if setErr := c.Set(ctx, key, p, ttl); setErr != nil {
			c.logger.Warn("plan cache write failed", logging.String("key", key), logging.Err(setErr))
		}
		return p, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*plan.Plan), false, nil
}

// Ping checks the connection.
func (c *PlanCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}

//Personal.AI order the ending
