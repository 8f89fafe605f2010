package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"projecthub/pkg/config"
)

// NewRedisClient 创建 Redis 客户端并做一次 ping 检查
func NewRedisClient(cfg config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}

	logger.Info("Redis connection established", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return rdb, nil
}

// Key 统一的 key 前缀
func Key(parts ...string) string {
	key := "projecthub"
	for _, p := range parts {
		key += ":" + p
	}
	return key
}
