// Package cache holds the optional redis read cache for plans. Plans are
// the read-only dependency of coupon validation and change rarely, so a
// short TTL plus delete-on-write keeps them safely cacheable. Coupons are
// never cached: a stale usage_count would break redemption semantics.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tenantops/subadmin/internal/model"
)

const planKeyPrefix = "subadmin:plan:"

// RedisPlanCache stores plans as JSON blobs in redis with a TTL.
// Every redis failure degrades to a cache miss; the caller falls through
// to the database.
type RedisPlanCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPlanCache creates a plan cache backed by the given client.
func NewRedisPlanCache(client *redis.Client, ttl time.Duration) *RedisPlanCache {
	return &RedisPlanCache{client: client, ttl: ttl}
}

func planKey(id string) string {
	return planKeyPrefix + id
}

// Get returns the cached plan, or false on a miss or any redis error.
func (c *RedisPlanCache) Get(ctx context.Context, id string) (*model.Plan, bool) {
	data, err := c.client.Get(ctx, planKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("plan_id", id).Msg("plan cache read failed")
		}
		return nil, false
	}

	var plan model.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		log.Warn().Err(err).Str("plan_id", id).Msg("plan cache entry corrupt, dropping")
		c.Delete(ctx, id)
		return nil, false
	}
	return &plan, true
}

// Set stores the plan. Failures are logged and ignored.
func (c *RedisPlanCache) Set(ctx context.Context, plan *model.Plan) {
	if plan == nil {
		return
	}
	data, err := json.Marshal(plan)
	if err != nil {
		log.Warn().Err(err).Str("plan_id", plan.ID).Msg("plan cache marshal failed")
		return
	}
	if err := c.client.Set(ctx, planKey(plan.ID), data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("plan_id", plan.ID).Msg("plan cache write failed")
	}
}

// Delete invalidates a plan entry after a mutation.
func (c *RedisPlanCache) Delete(ctx context.Context, id string) {
	if err := c.client.Del(ctx, planKey(id)).Err(); err != nil {
		log.Warn().Err(err).Str("plan_id", id).Msg("plan cache invalidation failed")
	}
}

// NoopPlanCache is used when no redis address is configured: every Get is
// a miss and writes vanish.
type NoopPlanCache struct{}

// NewNoop creates a disabled plan cache.
func NewNoop() *NoopPlanCache {
	return &NoopPlanCache{}
}

// Get always misses.
func (*NoopPlanCache) Get(ctx context.Context, id string) (*model.Plan, bool) {
	return nil, false
}

// Set does nothing.
func (*NoopPlanCache) Set(ctx context.Context, plan *model.Plan) {}

// Delete does nothing.
func (*NoopPlanCache) Delete(ctx context.Context, id string) {}
