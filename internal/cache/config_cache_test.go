package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deskops/sla-service/internal/sla"
)

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	for _, c := range []*ConfigCache{nil, NewConfigCache(nil, time.Minute, nil, nil)} {
		c.StorePolicy(ctx, "p1", &sla.Policy{Name: "x"})
		_, ok := c.Policy(ctx, "p1")
		assert.False(t, ok)
		_, ok = c.Calendar(ctx)
		assert.False(t, ok)
		assert.NotPanics(t, func() { c.InvalidatePolicies(ctx, "p1") })
	}
}

func TestPolicyKey(t *testing.T) {
	assert.Equal(t, "sla:policy:default", policyKey(""))
	assert.Equal(t, "sla:policy:abc", policyKey("abc"))
}

func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("SLA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SLA_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	c := NewConfigCache(client, time.Minute, nil, zap.NewNop())
	c.InvalidateCalendar(ctx)

	snap := &CalendarSnapshot{
		Days: []sla.BusinessDay{{Weekday: sla.Monday, Start: sla.Clock(9, 0), End: sla.Clock(17, 0), WorkingDay: true}},
		Holidays: []sla.Holiday{{
			Name: "New Year", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Recurring: true, Active: true,
		}},
	}
	c.StoreCalendar(ctx, snap)

	got, ok := c.Calendar(ctx)
	require.True(t, ok)
	assert.Equal(t, snap.Days, got.Days)
	assert.True(t, got.Holidays[0].Date.Equal(snap.Holidays[0].Date))

	c.InvalidateCalendar(ctx)
	_, ok = c.Calendar(ctx)
	assert.False(t, ok)
}
