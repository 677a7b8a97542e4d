package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eduplatforme/exam-backend/internal/config"
	"github.com/eduplatforme/exam-backend/internal/model"
)

// CertificateQueueRepository is a Redis list of pending certificate jobs.
type CertificateQueueRepository struct {
	rdb *redis.Client
}

// NewCertificateQueueRepository creates a new CertificateQueueRepository.
func NewCertificateQueueRepository(rdb *redis.Client) *CertificateQueueRepository {
	return &CertificateQueueRepository{rdb: rdb}
}

// Push appends a job to the queue.
func (r *CertificateQueueRepository) Push(ctx context.Context, job model.CertificateJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal certificate job: %w", err)
	}
	return r.rdb.RPush(ctx, config.WorkerKey.IssueCertificatesQueue, data).Err()
}

// Pop blocks up to timeout for the next job. It returns (nil, nil) when the wait times out.
func (r *CertificateQueueRepository) Pop(ctx context.Context, timeout time.Duration) (*model.CertificateJob, error) {
	res, err := r.rdb.BLPop(ctx, timeout, config.WorkerKey.IssueCertificatesQueue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// BLPOP returns [key, value].
	var job model.CertificateJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("unmarshal certificate job: %w", err)
	}
	return &job, nil
}

// Len returns the number of pending jobs.
func (r *CertificateQueueRepository) Len(ctx context.Context) (int64, error) {
	return r.rdb.LLen(ctx, config.WorkerKey.IssueCertificatesQueue).Result()
}
