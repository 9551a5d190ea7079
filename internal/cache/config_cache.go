package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/deskops/sla-service/internal/observability"
	"github.com/deskops/sla-service/internal/sla"
)

const (
	policyKeyPrefix = "sla:policy:"
	defaultPolicy   = "sla:policy:default"
	calendarKey     = "sla:calendar"
)

// CalendarSnapshot is the cached form of the business calendar rows.
type CalendarSnapshot struct {
	Days     []sla.BusinessDay `json:"days"`
	Holidays []sla.Holiday     `json:"holidays"`
}

// ConfigCache caches SLA configuration in redis. Lookups never fail: any redis
// or decoding problem is logged and reported as a miss.
type ConfigCache struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewConfigCache builds a cache. A nil client or non-positive ttl disables caching.
func NewConfigCache(client *redis.Client, ttl time.Duration, metrics *observability.Metrics, logger *zap.Logger) *ConfigCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigCache{client: client, ttl: ttl, metrics: metrics, logger: logger}
}

func (c *ConfigCache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Policy returns a cached policy by id; an empty id addresses the default policy.
func (c *ConfigCache) Policy(ctx context.Context, id string) (*sla.Policy, bool) {
	var p sla.Policy
	if !c.get(ctx, policyKey(id), &p) {
		return nil, false
	}
	return &p, true
}

// StorePolicy caches p under id; an empty id stores the default policy.
func (c *ConfigCache) StorePolicy(ctx context.Context, id string, p *sla.Policy) {
	c.set(ctx, policyKey(id), p)
}

// Calendar returns the cached calendar rows.
func (c *ConfigCache) Calendar(ctx context.Context) (*CalendarSnapshot, bool) {
	var snap CalendarSnapshot
	if !c.get(ctx, calendarKey, &snap) {
		return nil, false
	}
	return &snap, true
}

// StoreCalendar caches the calendar rows.
func (c *ConfigCache) StoreCalendar(ctx context.Context, snap *CalendarSnapshot) {
	c.set(ctx, calendarKey, snap)
}

// InvalidatePolicies drops the default policy entry and the given ids.
func (c *ConfigCache) InvalidatePolicies(ctx context.Context, ids ...string) {
	keys := []string{defaultPolicy}
	for _, id := range ids {
		keys = append(keys, policyKey(id))
	}
	c.del(ctx, keys...)
}

// InvalidateCalendar drops the cached calendar.
func (c *ConfigCache) InvalidateCalendar(ctx context.Context) {
	c.del(ctx, calendarKey)
}

func policyKey(id string) string {
	if id == "" {
		return defaultPolicy
	}
	return policyKeyPrefix + id
}

func (c *ConfigCache) get(ctx context.Context, key string, dest any) bool {
	if !c.enabled() {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	c.metrics.RecordCacheLookup(err == nil)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("sla cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("sla cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *ConfigCache) set(ctx context.Context, key string, value any) {
	if !c.enabled() {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("sla cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("sla cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *ConfigCache) del(ctx context.Context, keys ...string) {
	if !c.enabled() {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("sla cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
