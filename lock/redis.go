package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ptvdata/errors"
	"ptvdata/logging"
)

// redisClient 锁用到的 go-redis 命令子集
type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// releaseScript 只有令牌一致时才删除，避免释放别人续上的锁
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

// RedisConfig Redis 锁配置
type RedisConfig struct {
	Prefix string
	// TTL 锁的过期时间，持有者崩溃后锁会自动释放
	TTL time.Duration
	// Wait 获取锁的最长等待
	Wait time.Duration
	// RetryInterval 两次尝试之间的间隔
	RetryInterval time.Duration
}

// DefaultRedisConfig 默认配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Prefix:        "ptvdata:lock:",
		TTL:           30 * time.Second,
		Wait:          10 * time.Second,
		RetryInterval: 50 * time.Millisecond,
	}
}

// Redis 基于 SET NX PX 的分布式锁
type Redis struct {
	client redisClient
	cfg    RedisConfig
	logger logging.Logger
}

// NewRedis 创建 Redis 锁；client 通常是 *redis.Client 或 redis.UniversalClient
func NewRedis(client redisClient, cfg RedisConfig) *Redis {
	def := DefaultRedisConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.Wait <= 0 {
		cfg.Wait = def.Wait
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = def.RetryInterval
	}
	return &Redis{client: client, cfg: cfg, logger: logging.ComponentLogger("lock.redis")}
}

func (r *Redis) Lock(ctx context.Context, key string) (Unlock, error) {
	full := r.cfg.Prefix + key
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Wait)
	defer cancel()
	ticker := time.NewTicker(r.cfg.RetryInterval)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, full, token, r.cfg.TTL).Result()
		if err != nil && ctx.Err() == nil {
			return nil, errors.WrapError(err, errors.ErrCodeInternal, "redis lock "+key)
		}
		if ok {
			break
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, errors.WrapError(ctx.Err(), errors.ErrCodeLockTimeout, "redis lock "+key+" not acquired")
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { r.release(full, token) })
	}, nil
}

func (r *Redis) release(full, token string) {
	// 调用方的 ctx 可能已结束，释放使用独立的短超时
	rctx, rcancel := context.WithTimeout(context.Background(), r.cfg.RetryInterval*20)
	defer rcancel()
	if err := r.client.Eval(rctx, releaseScript, []string{full}, token).Err(); err != nil {
		r.logger.Warn(rctx, "redis unlock failed", logging.Error(err), logging.String("key", full))
	}
}
