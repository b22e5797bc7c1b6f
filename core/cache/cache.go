package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"calsync/core/logger"
	"calsync/core/utils"
)

// Cache is the shared short-lived state store. Its main consumer is the token
// refresh path, which serializes refresh exchanges per connected account.
type Cache interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	ReleaseLock(ctx context.Context, key string, token string) error
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Close() error
}

type redisCache struct {
	client *redis.Client
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisCache(cfg RedisConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	logger.Info("Cache:Init:Connected", "addr", cfg.Addr, "db", cfg.DB)
	return &redisCache{client: client}, nil
}

// releaseLockScript deletes the key only while the caller's token is still the
// holder, so a holder that outlived its TTL cannot drop a successor's lock.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AcquireLock takes a lock with SET NX so only one holder exists per key. The
// returned token identifies this holder for release; it is empty when the
// lock is held elsewhere. The TTL guards against a crashed holder.
func (c *redisCache) AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := utils.GenerateRandomString(16)
	ok, err := c.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return "", err
	}
	return token, nil
}

func (c *redisCache) ReleaseLock(ctx context.Context, key string, token string) error {
	return releaseLockScript.Run(ctx, c.client, []string{key}, token).Err()
}

func (c *redisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
