package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/pirs/internal/config"
	"github.com/andresuchdata/pirs/internal/domain"
)

const rankingKeyPrefix = "reorder:ranking"

// RankingCache stores computed reorder rankings until the catalog changes.
type RankingCache interface {
	Get(ctx context.Context, limit int) ([]domain.ReorderAlert, bool, error)
	Set(ctx context.Context, limit int, alerts []domain.ReorderAlert) error
	InvalidateAll(ctx context.Context) error
}

type redisRankingCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopRankingCache struct{}

// NewRankingCache returns a redis backed cache, or a no-op cache when client is nil.
func NewRankingCache(client *redis.Client, cfg config.CacheConfig) RankingCache {
	if client == nil {
		return &noopRankingCache{}
	}
	return &redisRankingCache{client: client, ttl: rankingTTL(cfg)}
}

func NewNoopRankingCache() RankingCache {
	return &noopRankingCache{}
}

func (c *redisRankingCache) Get(ctx context.Context, limit int) ([]domain.ReorderAlert, bool, error) {
	payload, err := c.client.Get(ctx, rankingKey(limit)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var alerts []domain.ReorderAlert
	if err := json.Unmarshal(payload, &alerts); err != nil {
		return nil, false, fmt.Errorf("decode reorder ranking cache: %w", err)
	}

	return alerts, true, nil
}

func (c *redisRankingCache) Set(ctx context.Context, limit int, alerts []domain.ReorderAlert) error {
	payload, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("encode reorder ranking cache: %w", err)
	}

	if err := c.client.Set(ctx, rankingKey(limit), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisRankingCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, rankingKeyPrefix, scanBatchSize)
}

func (n *noopRankingCache) Get(ctx context.Context, limit int) ([]domain.ReorderAlert, bool, error) {
	return nil, false, nil
}

func (n *noopRankingCache) Set(ctx context.Context, limit int, alerts []domain.ReorderAlert) error {
	return nil
}

func (n *noopRankingCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func rankingKey(limit int) string {
	if limit <= 0 {
		return rankingKeyPrefix + ":all"
	}
	return fmt.Sprintf("%s:top:%d", rankingKeyPrefix, limit)
}
