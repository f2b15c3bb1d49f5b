package infra

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient 基于环境变量创建 Redis 客户端（在线状态目录的后端存储）。
// 使用的环境变量：
//
//	LC_REDIS_ADDR   例：localhost:6379
//	LC_REDIS_PASS   例：redis_pwd_123，可为空
//	LC_REDIS_DB     例：0（整数）
func NewRedisClient() *redis.Client {
	addr := os.Getenv("LC_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	db := 0
	if v := os.Getenv("LC_REDIS_DB"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			db = parsed
		}
	}
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     os.Getenv("LC_REDIS_PASS"),
		DB:           db,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  2 * time.Second,
	})
}

// PingRedis 用于启动阶段验证连接；若 client 为 nil 则直接返回 nil。
func PingRedis(ctx context.Context, client *redis.Client) error {
	if client == nil {
		return nil
	}
	_, err := client.Ping(ctx).Result()
	return err
}
