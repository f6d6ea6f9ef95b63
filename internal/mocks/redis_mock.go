package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MockRedisClient provides the counter commands used by the rate limiter.
type MockRedisClient struct {
	mu       sync.RWMutex
	counters map[string]int64
	ttls     map[string]time.Duration

	// Error injection
	IncrError   error
	ExpireError error
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{
		counters: make(map[string]int64),
		ttls:     make(map[string]time.Duration),
	}
}

func (m *MockRedisClient) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmd := redis.NewIntCmd(ctx)
	if m.IncrError != nil {
		cmd.SetErr(m.IncrError)
		return cmd
	}
	m.counters[key]++
	cmd.SetVal(m.counters[key])
	return cmd
}

func (m *MockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmd := redis.NewBoolCmd(ctx)
	if m.ExpireError != nil {
		cmd.SetErr(m.ExpireError)
		return cmd
	}
	_, ok := m.counters[key]
	if ok {
		m.ttls[key] = expiration
	}
	cmd.SetVal(ok)
	return cmd
}

// TTL returns the expiration set on key, or 0.
func (m *MockRedisClient) TTL(key string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ttls[key]
}

// Keys returns the number of counters created.
func (m *MockRedisClient) Keys() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.counters)
}
