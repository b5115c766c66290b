package photocache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"poker-coach/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check to ensure redisCache implements Cache
var _ Cache = (*redisCache)(nil)

const (
	fieldRequestID  = "request_id"
	fieldData       = "data"
	fieldMimeType   = "mime_type"
	fieldFilename   = "filename"
	fieldSize       = "size"
	fieldCapturedAt = "captured_at"
)

type redisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisCache creates a Redis-backed Cache. Each owner has one hash
// "photo:{ownerID}" without TTL.
func NewRedisCache(client *redis.Client, logger *zap.Logger) Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisCache{
		client: client,
		logger: logger.Named("RedisPhotoCache"),
	}
}

func photoKey(ownerID string) string {
	return fmt.Sprintf("photo:%s", ownerID)
}

// Put перезаписывает хэш целиком в одной транзакции (DEL + HSET).
func (r *redisCache) Put(ctx context.Context, ownerID string, photo *models.StoredPhoto) error {
	key := photoKey(ownerID)

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		fieldRequestID, photo.RequestID,
		fieldData, photo.Data,
		fieldMimeType, photo.MimeType,
		fieldFilename, photo.Filename,
		fieldSize, photo.Size,
		fieldCapturedAt, photo.CapturedAt.UnixMilli(),
	)

	r.logger.Debug("Storing photo",
		zap.String("ownerID", ownerID),
		zap.String("requestID", photo.RequestID),
		zap.Int("size", photo.Size),
	)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to store photo in redis", zap.Error(err), zap.String("ownerID", ownerID))
		return fmt.Errorf("failed to store photo in redis: %w", err)
	}
	return nil
}

func (r *redisCache) Get(ctx context.Context, ownerID string) (*models.StoredPhoto, error) {
	vals, err := r.client.HGetAll(ctx, photoKey(ownerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrPhotoNotFound
		}
		r.logger.Error("Failed to read photo from redis", zap.Error(err), zap.String("ownerID", ownerID))
		return nil, fmt.Errorf("failed to read photo from redis: %w", err)
	}
	if len(vals) == 0 {
		return nil, models.ErrPhotoNotFound
	}

	size, _ := strconv.Atoi(vals[fieldSize])
	capturedMs, _ := strconv.ParseInt(vals[fieldCapturedAt], 10, 64)

	return &models.StoredPhoto{
		RequestID:  vals[fieldRequestID],
		Data:       []byte(vals[fieldData]),
		MimeType:   vals[fieldMimeType],
		Filename:   vals[fieldFilename],
		Size:       size,
		CapturedAt: time.UnixMilli(capturedMs),
		OwnerID:    ownerID,
	}, nil
}

func (r *redisCache) GetByRequestID(ctx context.Context, ownerID, requestID string) (*models.StoredPhoto, error) {
	// Сначала дешево сверяем request_id, не тянем байты
	stored, err := r.client.HGet(ctx, photoKey(ownerID), fieldRequestID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrPhotoNotFound
		}
		return nil, fmt.Errorf("failed to read photo request id from redis: %w", err)
	}
	if stored != requestID {
		return nil, models.ErrPhotoNotFound
	}
	p, err := r.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	// фото могли заменить между двумя чтениями
	if p.RequestID != requestID {
		return nil, models.ErrPhotoNotFound
	}
	return p, nil
}
