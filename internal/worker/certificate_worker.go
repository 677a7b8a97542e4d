package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduplatforme/exam-backend/internal/model"
)

const (
	CertificatePollTimeout = 1 * time.Second
	CertificateMaxRetries  = 3
	certificateJobTimeout  = 30 * time.Second
)

// JobQueue is the Redis list the worker drains.
type JobQueue interface {
	Push(ctx context.Context, job model.CertificateJob) error
	Pop(ctx context.Context, timeout time.Duration) (*model.CertificateJob, error)
}

// JobProcessor renders and stamps one certificate.
type JobProcessor interface {
	ProcessJob(ctx context.Context, job model.CertificateJob) error
}

// CertificateWorker issues certificates queued by submissions.
type CertificateWorker struct {
	queue     JobQueue
	processor JobProcessor
	log       zerolog.Logger
}

func NewCertificateWorker(queue JobQueue, processor JobProcessor, log zerolog.Logger) *CertificateWorker {
	return &CertificateWorker{
		queue:     queue,
		processor: processor,
		log:       log.With().Str("component", "certificate_worker").Logger(),
	}
}

// Start blocks until ctx is cancelled. A job in flight when shutdown is requested runs to completion.
func (w *CertificateWorker) Start(ctx context.Context) {
	w.log.Info().Msg("CertificateWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. CertificateWorker stopped")
			return
		default:
		}

		job, err := w.queue.Pop(ctx, CertificatePollTimeout)
		if err != nil {
			if ctx.Err() == nil {
				w.log.Error().Err(err).Msg("BLPop error")
				// Avoid spinning while Redis is unreachable.
				time.Sleep(CertificatePollTimeout)
			}
			continue
		}
		if job == nil {
			continue
		}

		w.handle(*job)
	}
}

func (w *CertificateWorker) handle(job model.CertificateJob) {
	ctx, cancel := context.WithTimeout(context.Background(), certificateJobTimeout)
	defer cancel()

	jobLog := w.log.With().
		Str("attempt_id", job.AttemptID.String()).
		Str("exam_id", job.ExamID.String()).
		Int("retries", job.Retries).
		Logger()

	if err := w.processor.ProcessJob(ctx, job); err != nil {
		if job.Retries >= CertificateMaxRetries {
			jobLog.Error().Err(err).Msg("Certificate job failed, giving up")
			return
		}
		jobLog.Warn().Err(err).Msg("Certificate job failed, requeueing")
		job.Retries++
		if err := w.queue.Push(ctx, job); err != nil {
			jobLog.Error().Err(err).Msg("Requeue failed")
		}
		return
	}

	jobLog.Debug().Msg("Certificate job done")
}
