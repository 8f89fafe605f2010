package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deduper 基于 Redis SetNX 的一次性标记，watcher 用它保证同一条通知/动态只广播一次
type Deduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

func NewDeduper(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Deduper {
	return &Deduper{
		rdb:    rdb,
		ttl:    ttl,
		prefix: "projecthub:dedup",
		logger: logger,
	}
}

// AcquireOnce 第一次见到 scope+id 时返回 true，重复返回 false
func (d *Deduper) AcquireOnce(ctx context.Context, scope string, id int) bool {
	key := fmt.Sprintf("%s:%s:%d", d.prefix, scope, id)

	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		// Redis 不可用时不阻止广播
		d.logger.Warn("Redis dedup check failed, allowing announcement",
			zap.String("scope", scope),
			zap.Int("id", id),
			zap.Error(err),
		)
		return true
	}

	if !ok {
		d.logger.Debug("Skipped duplicated item",
			zap.String("scope", scope),
			zap.Int("id", id),
			zap.String("dedup_key", key),
		)
	}
	return ok
}
