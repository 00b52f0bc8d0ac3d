package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
)

// MemoryStore is a single-process Store backed by bigcache with TTL
// eviction. It backs deployments without Redis and the test suite.
type MemoryStore struct {
	cache *bigcache.BigCache
}

func NewMemoryStore(ttl time.Duration) (*MemoryStore, error) {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	cache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(ttl))
	if err != nil {
		return nil, fmt.Errorf("init session cache failed: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

func (s *MemoryStore) Save(ctx context.Context, sid string, record Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal session record failed: %w", err)
	}
	if err := s.cache.Set(sid, payload); err != nil {
		return fmt.Errorf("cache set session failed: %w", err)
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, sid string) (*Record, error) {
	raw, err := s.cache.Get(sid)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get session failed: %w", err)
	}

	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("unmarshal session record failed: %w", err)
	}
	return &record, nil
}

func (s *MemoryStore) Delete(ctx context.Context, sid string) error {
	err := s.cache.Delete(sid)
	if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return fmt.Errorf("cache delete session failed: %w", err)
	}
	return nil
}
