package cache

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store 保存渲染结果。Get 未命中时返回 ok == false 且 err == nil。
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// RedisStore 基于 go-redis 的 Store 实现。
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore 连接 addr 上的 Redis（连接延迟到首次命令）。
func NewRedisStore(addr, password string, db int) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	log.Printf("[INFO] redis render cache initialized (%s)", addr)
	return &RedisStore{client: client}
}

// Ping 检查连接是否可用。
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *RedisStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// MemoryStore 是进程内的 Store，-watch 模式下未配置 Redis 时使用。
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return e.data, true, nil
}

// Set 的 ttl <= 0 表示不过期。
func (s *MemoryStore) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memoryEntry{data: append([]byte(nil), data...)}
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}
