package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/eduplatforme/exam-backend/internal/config"
	"github.com/eduplatforme/exam-backend/internal/model"
)

// ResultChannelRepository fans graded submissions out over Redis Pub/Sub.
type ResultChannelRepository struct {
	rdb *redis.Client
}

// NewResultChannelRepository creates a new ResultChannelRepository.
func NewResultChannelRepository(rdb *redis.Client) *ResultChannelRepository {
	return &ResultChannelRepository{rdb: rdb}
}

// Publish sends a result event on the exam's channel.
func (r *ResultChannelRepository) Publish(ctx context.Context, ev model.ResultEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal result event: %w", err)
	}
	return r.rdb.Publish(ctx, config.CacheKey.ExamResultsChannel(ev.ExamID), data).Err()
}

// Subscribe listens on the exam's result channel until ctx is done. The returned
// channel is closed once the subscription ends; undecodable payloads are skipped.
func (r *ResultChannelRepository) Subscribe(ctx context.Context, examID uuid.UUID) (<-chan model.ResultEvent, error) {
	pubsub := r.rdb.Subscribe(ctx, config.CacheKey.ExamResultsChannel(examID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe results: %w", err)
	}

	events := make(chan model.ResultEvent)
	go func() {
		defer close(events)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var ev model.ResultEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return events, nil
}
