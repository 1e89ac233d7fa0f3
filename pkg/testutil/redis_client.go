package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
)

// MemoryRedisClient keeps sorted sets in memory with the ordering redis uses
// for ZREVRANGE: score descending, then member descending.
type MemoryRedisClient struct {
	mu   sync.Mutex
	sets map[string]map[string]float64
}

func NewMemoryRedisClient() *MemoryRedisClient {
	return &MemoryRedisClient{sets: map[string]map[string]float64{}}
}

func (m *MemoryRedisClient) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.sets[key]
	return ok, nil
}

func (m *MemoryRedisClient) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.sets, k)
	}

	return nil
}

func (m *MemoryRedisClient) ReplaceSortedSet(_ context.Context, key string, members []redis.Z) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(members) == 0 {
		delete(m.sets, key)
		return nil
	}

	set := make(map[string]float64, len(members))
	for _, z := range members {
		set[z.Member.(string)] = z.Score
	}

	m.sets[key] = set
	return nil
}

func (m *MemoryRedisClient) ZAddIfExists(_ context.Context, key, member string, score float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.sets[key]
	if !ok {
		return false, nil
	}

	set[member] = score
	return true, nil
}

func (m *MemoryRedisClient) ZRevRangeWithScores(
	_ context.Context, key string, offset, limit int,
) ([]redis.Z, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.sorted(key)
	if offset >= len(all) {
		return []redis.Z{}, nil
	}

	end := offset + limit
	if end > len(all) {
		end = len(all)
	}

	return all[offset:end], nil
}

func (m *MemoryRedisClient) ZRevRank(_ context.Context, key, member string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, z := range m.sorted(key) {
		if z.Member == member {
			return uint64(i), nil
		}
	}

	return 0, redis.Nil
}

func (m *MemoryRedisClient) ZCard(_ context.Context, key string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return uint64(len(m.sets[key])), nil
}

func (m *MemoryRedisClient) sorted(key string) []redis.Z {
	result := []redis.Z{}
	for member, score := range m.sets[key] {
		result = append(result, redis.Z{Member: member, Score: score})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}

		return result[i].Member.(string) > result[j].Member.(string)
	})

	return result
}
