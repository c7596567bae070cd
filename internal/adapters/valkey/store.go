package valkey

import (
	"context"
)

const storePrefix = "pokemap:kv:"

// Store implements ports.KeyValueStore on top of a Cache connection.
// Values never expire.
type Store struct {
	cache *Cache
}

// NewStore shares the cache connection for durable key-value entries.
func NewStore(c *Cache) *Store {
	return &Store{cache: c}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	return s.cache.Get(ctx, storeKey(key))
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.cache.Set(ctx, storeKey(key), value, 0)
}

func (s *Store) Remove(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, storeKey(key))
}

func storeKey(key string) string {
	return storePrefix + key
}
