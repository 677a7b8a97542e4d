package config

import (
	"fmt"

	"github.com/google/uuid"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamPayloadKey returns the cache key for the student-facing exam payload (no answers).
func (r *CacheKeyStruct) ExamPayloadKey(examID uuid.UUID) string {
	return fmt.Sprintf("exam:%s:payload", examID)
}

// ExamResultsChannel returns the Redis PubSub channel carrying graded submissions of an exam.
func (r *CacheKeyStruct) ExamResultsChannel(examID uuid.UUID) string {
	return fmt.Sprintf("exam:%s:results", examID)
}

var CacheKey = NewCacheKeyStruct()
