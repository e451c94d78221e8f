package oauth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateStore keeps short-lived single-use values: OAuth state parameters and
// the one-time codes handed to the frontend after a callback.
type StateStore interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// Take returns and removes the value. ok is false when the key is unknown or expired.
	Take(ctx context.Context, key string) (value string, ok bool, err error)
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

type MemoryStateStore struct {
	entries sync.Map
	now     func() time.Time
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{now: time.Now}
}

func (s *MemoryStateStore) Put(_ context.Context, key, value string, ttl time.Duration) error {
	s.entries.Store(key, memoryEntry{value: value, expiresAt: s.now().Add(ttl)})
	return nil
}

func (s *MemoryStateStore) Take(_ context.Context, key string) (string, bool, error) {
	v, ok := s.entries.LoadAndDelete(key)
	if !ok {
		return "", false, nil
	}
	entry, ok := v.(memoryEntry)
	if !ok || s.now().After(entry.expiresAt) {
		return "", false, nil
	}
	return entry.value, true, nil
}

// Sweep drops expired entries.
func (s *MemoryStateStore) Sweep() {
	now := s.now()
	s.entries.Range(func(key, value interface{}) bool {
		if entry, ok := value.(memoryEntry); ok && now.After(entry.expiresAt) {
			s.entries.Delete(key)
		}
		return true
	})
}

// RunSweeper calls Sweep on every tick until ctx is done.
func (s *MemoryStateStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

type RedisStateStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStateStore(client *redis.Client, prefix string) *RedisStateStore {
	if prefix == "" {
		prefix = "oauth:"
	}
	return &RedisStateStore{client: client, prefix: prefix}
}

func (s *RedisStateStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store state: %w", err)
	}
	return nil
}

func (s *RedisStateStore) Take(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.GetDel(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load state: %w", err)
	}
	return value, true, nil
}
