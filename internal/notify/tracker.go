package notify

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// DeliveryTracker учитывает уже отправленные уведомления.
type DeliveryTracker interface {
	// MarkSent помечает ключ отправленным и возвращает true, если ключ новый.
	// false означает, что уведомление уже уходило и слать его снова не нужно.
	MarkSent(ctx context.Context, key string) (bool, error)
}

// RedisTracker - реализация DeliveryTracker поверх Redis (SETNX с TTL).
type RedisTracker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig - настройки подключения трекера к Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewRedisTracker создает новый экземпляр RedisTracker.
func NewRedisTracker(cfg RedisConfig) *RedisTracker {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "procurement:alerts"
	}

	return &RedisTracker{
		client: client,
		prefix: prefix,
		ttl:    cfg.TTL,
	}
}

// MarkSent атомарно помечает ключ отправленным.
func (t *RedisTracker) MarkSent(ctx context.Context, key string) (bool, error) {
	return t.client.SetNX(ctx, t.prefix+":"+key, 1, t.ttl).Result()
}

// Ping проверяет соединение с Redis.
func (t *RedisTracker) Ping(ctx context.Context) error {
	return t.client.Ping(ctx).Err()
}

// Close закрывает соединение с Redis.
func (t *RedisTracker) Close() error {
	return t.client.Close()
}
