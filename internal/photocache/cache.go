// Package photocache хранит последнее фото каждого владельца.
// Один слот на владельца: новая запись полностью заменяет старую.
package photocache

import (
	"context"
	"fmt"

	"poker-coach/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache - хранилище последнего фото.
type Cache interface {
	// Put заменяет фото владельца.
	Put(ctx context.Context, ownerID string, photo *models.StoredPhoto) error
	// Get возвращает последнее фото или models.ErrPhotoNotFound.
	Get(ctx context.Context, ownerID string) (*models.StoredPhoto, error)
	// GetByRequestID возвращает последнее фото, только если его requestID совпадает.
	GetByRequestID(ctx context.Context, ownerID, requestID string) (*models.StoredPhoto, error)
}

// Options описывает выбор бэкенда.
type Options struct {
	Backend       string // memory | redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// New creates the configured backend. For redis the connection is checked
// with PING before returning.
func New(ctx context.Context, opts Options, logger *zap.Logger) (Cache, func() error, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemoryCache(), func() error { return nil }, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.RedisAddr, err)
		}
		return NewRedisCache(client, logger), client.Close, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown photo cache backend %q", models.ErrConfiguration, opts.Backend)
}
