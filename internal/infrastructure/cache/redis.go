// Package cache caché de estadísticas sobre Redis.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stockflow-api/internal/application/ports"
	"github.com/jhoicas/stockflow-api/pkg/config"
	"github.com/jhoicas/stockflow-api/pkg/logger"
)

const defaultPrefix = "stockflow:"

var _ ports.StatsCache = (*RedisCache)(nil)

// RedisCache guarda valores JSON bajo un prefijo. Con client nil todas las operaciones son no-op.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
	log    *logger.Logger
}

// Connect abre el cliente y verifica con PING. Addr vacío devuelve nil (caché deshabilitada).
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// NewRedisCache envuelve el cliente. prefix vacío usa "stockflow:".
func NewRedisCache(rdb *redis.Client, prefix string, log *logger.Logger) *RedisCache {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RedisCache{rdb: rdb, prefix: prefix, log: log.Component("cache")}
}

// Enabled indica si hay cliente.
func (c *RedisCache) Enabled() bool { return c.rdb != nil }

func (c *RedisCache) Get(ctx context.Context, key string, dest any) bool {
	if c.rdb == nil {
		return false
	}
	val, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn().Err(err).Str("key", key).Msg("lectura de caché falló")
		}
		return false
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false
	}
	return true
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("escritura de caché falló")
	}
}

// Invalidate borra todas las claves del prefijo.
func (c *RedisCache) Invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	var keys []string
	iter := c.rdb.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn().Err(err).Msg("scan de caché falló")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn().Err(err).Msg("invalidación de caché falló")
	}
}
