package redis

import (
	"context"
	"fmt"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/common/config"

	"github.com/go-redis/redis/v8"
)

// Client Redis客户端类型别名
type Client = redis.Client

// Connect 创建客户端并 PING；失败时关闭客户端
func Connect(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Close 关闭连接（nil 安全）
func Close(client *Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
