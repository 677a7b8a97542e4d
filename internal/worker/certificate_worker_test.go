package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduplatforme/exam-backend/internal/model"
)

type chanQueue struct {
	jobs   chan model.CertificateJob
	mu     sync.Mutex
	pushed []model.CertificateJob
}

func newChanQueue() *chanQueue {
	return &chanQueue{jobs: make(chan model.CertificateJob, 16)}
}

func (q *chanQueue) Push(_ context.Context, job model.CertificateJob) error {
	q.mu.Lock()
	q.pushed = append(q.pushed, job)
	q.mu.Unlock()
	q.jobs <- job
	return nil
}

func (q *chanQueue) Pop(ctx context.Context, timeout time.Duration) (*model.CertificateJob, error) {
	select {
	case job := <-q.jobs:
		return &job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout):
		return nil, nil
	}
}

type countingProcessor struct {
	mu       sync.Mutex
	calls    int
	failures int
	done     chan model.CertificateJob
}

func (p *countingProcessor) ProcessJob(_ context.Context, job model.CertificateJob) error {
	p.mu.Lock()
	p.calls++
	fail := p.calls <= p.failures
	p.mu.Unlock()
	if fail {
		return errors.New("storage unavailable")
	}
	p.done <- job
	return nil
}

func TestCertificateWorkerProcessesAndRetries(t *testing.T) {
	q := newChanQueue()
	p := &countingProcessor{failures: 2, done: make(chan model.CertificateJob, 1)}
	w := NewCertificateWorker(q, p, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(stopped)
	}()

	job := model.CertificateJob{AttemptID: uuid.New(), ExamID: uuid.New(), StudentID: uuid.New()}
	q.jobs <- job

	select {
	case got := <-p.done:
		assert.Equal(t, job.AttemptID, got.AttemptID)
		assert.Equal(t, 2, got.Retries)
	case <-time.After(5 * time.Second):
		t.Fatal("job was not processed")
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestCertificateWorkerGivesUp(t *testing.T) {
	q := newChanQueue()
	p := &countingProcessor{failures: 100, done: make(chan model.CertificateJob, 1)}
	w := NewCertificateWorker(q, p, zerolog.Nop())

	w.handle(model.CertificateJob{AttemptID: uuid.New(), Retries: CertificateMaxRetries})

	require.Equal(t, 1, p.calls)
	assert.Empty(t, q.pushed)
}
