package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/pirs/internal/config"
	"github.com/andresuchdata/pirs/internal/domain"
)

func TestNewClient_DisabledReturnsNil(t *testing.T) {
	client, err := NewClient(context.Background(), config.CacheConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, client)

	assert.IsType(t, &noopRankingCache{}, NewRankingCache(nil, config.CacheConfig{}))
	assert.IsType(t, &memoryCursorStore{}, NewCursorStore(nil))
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{RedisPassword: "pw", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)

	opts, err = buildRedisOptions(config.CacheConfig{RedisURL: "redis://cache.internal:6380/1"})
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, 1, opts.DB)

	_, err = buildRedisOptions(config.CacheConfig{RedisURL: "http://nope"})
	assert.Error(t, err)
}

func TestRankingKey(t *testing.T) {
	assert.Equal(t, "reorder:ranking:all", rankingKey(0))
	assert.Equal(t, "reorder:ranking:top:10", rankingKey(10))
}

func TestRankingTTL(t *testing.T) {
	assert.Equal(t, defaultCacheTTL, rankingTTL(config.CacheConfig{}))
	assert.Equal(t, 90*time.Second, rankingTTL(config.CacheConfig{RankingTTLSeconds: 90}))
}

func TestNoopRankingCache(t *testing.T) {
	ctx := context.Background()
	c := NewNoopRankingCache()

	require.NoError(t, c.Set(ctx, 5, []domain.ReorderAlert{{SKU: "A"}}))
	alerts, ok, err := c.Get(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, alerts)
	assert.NoError(t, c.InvalidateAll(ctx))
}

func TestMemoryCursorStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCursorStore()

	_, ok, err := s.Load(ctx, "shelves")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, "shelves", "SKU-B"))
	sku, ok, err := s.Load(ctx, "shelves")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "SKU-B", sku)
}
