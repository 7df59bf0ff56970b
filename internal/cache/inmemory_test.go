package cache

import (
	"context"
	"testing"
	"time"

	"github.com/flexprice/billing-notifier/internal/config"
	"github.com/flexprice/billing-notifier/internal/logger"
	"github.com/stretchr/testify/assert"
)

func newTestCache(enabled bool) Cache {
	cfg := &config.Configuration{Cache: config.CacheConfig{Enabled: enabled, TTL: time.Minute}}
	return NewInMemoryCache(cfg, logger.NewNopLogger())
}

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(true)

	key := GenerateKey(PrefixTemplate, 7, "cuenta_cobro")
	assert.Equal(t, "template:v1::7:cuenta_cobro", key)

	c.Set(ctx, key, "value", 0)
	got, ok := c.Get(ctx, key)
	assert.True(t, ok)
	assert.Equal(t, "value", got)

	c.Set(ctx, GenerateKey(PrefixTenant, 7), "acme", 0)
	c.DeleteByPrefix(ctx, PrefixTemplate)
	_, ok = c.Get(ctx, key)
	assert.False(t, ok)
	_, ok = c.Get(ctx, GenerateKey(PrefixTenant, 7))
	assert.True(t, ok)

	c.Flush(ctx)
	_, ok = c.Get(ctx, GenerateKey(PrefixTenant, 7))
	assert.False(t, ok)
}

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(false)

	c.Set(ctx, "k", "v", 0)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}
