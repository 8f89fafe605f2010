package poller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	rediskey "projecthub/pkg/redis"
)

// Publisher 广播事件，*mq.Publisher 实现
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Deduper 同一 scope+id 只放行一次，*util.Deduper 实现
type Deduper interface {
	AcquireOnce(ctx context.Context, scope string, id int) bool
}

// CountCache 保存最近一次成功广播的未读数
type CountCache interface {
	Get(ctx context.Context, userID int) (count int, found bool, err error)
	Set(ctx context.Context, userID, count int) error
}

// RedisCountCache 未读数缓存在 projecthub:unread:<user>
type RedisCountCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisCountCache(rdb redis.Cmdable, ttl time.Duration) *RedisCountCache {
	return &RedisCountCache{rdb: rdb, ttl: ttl}
}

func UnreadKey(userID int) string {
	return rediskey.Key("unread", strconv.Itoa(userID))
}

func (c *RedisCountCache) Get(ctx context.Context, userID int) (int, bool, error) {
	n, err := c.rdb.Get(ctx, UnreadKey(userID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read unread count: %w", err)
	}
	return n, true, nil
}

func (c *RedisCountCache) Set(ctx context.Context, userID, count int) error {
	if err := c.rdb.Set(ctx, UnreadKey(userID), count, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache unread count: %w", err)
	}
	return nil
}

// MemoryDeduper 进程内去重，pmctl watch 使用
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{seen: make(map[string]struct{})}
}

func (d *MemoryDeduper) AcquireOnce(_ context.Context, scope string, id int) bool {
	key := scope + ":" + strconv.Itoa(id)
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

// MemoryCountCache 进程内未读数
type MemoryCountCache struct {
	mu     sync.Mutex
	counts map[int]int
}

func NewMemoryCountCache() *MemoryCountCache {
	return &MemoryCountCache{counts: make(map[int]int)}
}

func (c *MemoryCountCache) Get(_ context.Context, userID int) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.counts[userID]
	return n, ok, nil
}

func (c *MemoryCountCache) Set(_ context.Context, userID, count int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[userID] = count
	return nil
}
