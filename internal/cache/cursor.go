package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

const cursorKeyPrefix = "audit:cursor:"

// CursorStore persists the SKU under the audit rotor cursor so that a restart
// resumes the rotation instead of starting over. Slot indexes are not stored
// because they shift when the catalog changes.
type CursorStore interface {
	Load(ctx context.Context, name string) (string, bool, error)
	Save(ctx context.Context, name string, sku string) error
}

type redisCursorStore struct {
	client *redis.Client
}

// NewCursorStore returns a redis backed store, or an in-process one when client is nil.
func NewCursorStore(client *redis.Client) CursorStore {
	if client == nil {
		return NewMemoryCursorStore()
	}
	return &redisCursorStore{client: client}
}

func (s *redisCursorStore) Load(ctx context.Context, name string) (string, bool, error) {
	sku, err := s.client.Get(ctx, cursorKeyPrefix+name).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get failed: %w", err)
	}
	return sku, true, nil
}

func (s *redisCursorStore) Save(ctx context.Context, name string, sku string) error {
	if err := s.client.Set(ctx, cursorKeyPrefix+name, sku, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

type memoryCursorStore struct {
	mu      sync.Mutex
	cursors map[string]string
}

func NewMemoryCursorStore() CursorStore {
	return &memoryCursorStore{cursors: make(map[string]string)}
}

func (s *memoryCursorStore) Load(ctx context.Context, name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sku, ok := s.cursors[name]
	return sku, ok, nil
}

func (s *memoryCursorStore) Save(ctx context.Context, name string, sku string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursors[name] = sku
	return nil
}
