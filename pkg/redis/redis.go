package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/barkprotocol/blinkshare/config"
)

// Client Redis 客户端封装
// 当前用于 Blink Action 描述缓存；后续可扩展限流、分布式锁等场景
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── Action 描述缓存 ──

const actionCachePrefix = "blink:action:"

// ActionCacheTTL Action 描述缓存有效期
// Guild 配置写入时主动失效，TTL 只兜底
const ActionCacheTTL = 5 * time.Minute

// GetAction 读取缓存的 Action 描述 JSON；未命中返回 ("", false)
func (c *Client) GetAction(ctx context.Context, guildID string) (string, bool) {
	val, err := c.rdb.Get(ctx, actionCachePrefix+guildID).Result()
	if err != nil {
		if err != goredis.Nil {
			c.logger.Warn("读取 Action 缓存失败", zap.String("guild_id", guildID), zap.Error(err))
		}
		return "", false
	}
	return val, true
}

// SetAction 写入 Action 描述缓存
func (c *Client) SetAction(ctx context.Context, guildID, payload string) {
	if err := c.rdb.Set(ctx, actionCachePrefix+guildID, payload, ActionCacheTTL).Err(); err != nil {
		c.logger.Warn("写入 Action 缓存失败", zap.String("guild_id", guildID), zap.Error(err))
	}
}

// InvalidateAction 使指定 Guild 的 Action 缓存失效（配置变更时调用）
func (c *Client) InvalidateAction(ctx context.Context, guildID string) {
	if err := c.rdb.Del(ctx, actionCachePrefix+guildID).Err(); err != nil {
		c.logger.Warn("删除 Action 缓存失败", zap.String("guild_id", guildID), zap.Error(err))
	}
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
