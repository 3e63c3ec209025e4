package vpic

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	_, ok, err := c.Get(ctx, hondaVIN)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, hondaVIN, Vehicle{VIN: hondaVIN, Model: "Accord"}, time.Hour))
	v, ok, err := c.Get(ctx, hondaVIN)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Accord", v.Model)

	now = now.Add(time.Hour)
	_, ok, _ = c.Get(ctx, hondaVIN)
	assert.False(t, ok, "entry expires at ttl")
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_NoTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	require.NoError(t, c.Set(ctx, hondaVIN, Vehicle{VIN: hondaVIN}, 0))
	c.now = func() time.Time { return time.Now().Add(100 * 365 * 24 * time.Hour) }
	_, ok, _ := c.Get(ctx, hondaVIN)
	assert.True(t, ok)
}

func TestRedisCacheKey(t *testing.T) {
	r := NewRedisCache(nil)
	assert.Equal(t, "vpic:"+hondaVIN, r.key(hondaVIN))
}
