package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/eduplatforme/exam-backend/internal/config"
	"github.com/eduplatforme/exam-backend/internal/model"
)

// ErrCacheMiss is returned when a cached payload is absent.
var ErrCacheMiss = errors.New("cache miss")

// ExamCacheRepository stores student-facing exam payloads in Redis.
type ExamCacheRepository struct {
	rdb *redis.Client
}

// NewExamCacheRepository creates a new ExamCacheRepository.
func NewExamCacheRepository(rdb *redis.Client) *ExamCacheRepository {
	return &ExamCacheRepository{rdb: rdb}
}

// SetPayload caches the payload without expiry; it is evicted explicitly on unpublish or delete.
func (r *ExamCacheRepository) SetPayload(ctx context.Context, p *model.ExamPayload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return r.rdb.Set(ctx, config.CacheKey.ExamPayloadKey(p.ID), data, 0).Err()
}

// GetPayload returns the cached payload or ErrCacheMiss.
func (r *ExamCacheRepository) GetPayload(ctx context.Context, examID uuid.UUID) (*model.ExamPayload, error) {
	data, err := r.rdb.Get(ctx, config.CacheKey.ExamPayloadKey(examID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("get payload: %w", err)
	}
	var p model.ExamPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &p, nil
}

// Evict removes the cached payload.
func (r *ExamCacheRepository) Evict(ctx context.Context, examID uuid.UUID) error {
	return r.rdb.Del(ctx, config.CacheKey.ExamPayloadKey(examID)).Err()
}
