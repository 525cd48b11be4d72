package store

import (
	"context"
	"fmt"

	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-roteiro-planner/internal/types"
)

var _ KV = (*MemoryKV)(nil)

// MemoryKV keeps state in process. Entries never expire.
type MemoryKV struct {
	cache *cache.Cache
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{cache: cache.New(cache.NoExpiration, 0)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	v, found := m.cache.Get(key)
	if !found {
		return nil, fmt.Errorf("key %q: %w", key, types.ErrNotFound)
	}
	b := v.([]byte)
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	b := make([]byte, len(value))
	copy(b, value)
	m.cache.Set(key, b, cache.NoExpiration)
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}
