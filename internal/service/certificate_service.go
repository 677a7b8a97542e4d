package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/eduplatforme/exam-backend/internal/certificate"
	"github.com/eduplatforme/exam-backend/internal/metrics"
	"github.com/eduplatforme/exam-backend/internal/model"
	"github.com/eduplatforme/exam-backend/internal/repository"
)

// CertificateIssuer renders and stores one certificate and returns its reference.
type CertificateIssuer interface {
	Issue(ctx context.Context, d certificate.Data) (string, error)
	Discard(ctx context.Context, ref string) error
}

// CertificateDispatcher starts issuance for a passed attempt. A nil reference with a nil
// error means issuance was deferred.
type CertificateDispatcher interface {
	Dispatch(ctx context.Context, exam *model.Exam, attempt *model.Attempt) (*string, error)
}

// CertificateQueue accepts deferred certificate jobs.
type CertificateQueue interface {
	Push(ctx context.Context, job model.CertificateJob) error
}

// CertificateService issues certificates synchronously and stamps the attempt.
type CertificateService struct {
	exams    ExamStore
	attempts AttemptStore
	users    UserReader
	filieres FiliereReader
	issuer   CertificateIssuer
	now      func() time.Time
	log      zerolog.Logger
}

// NewCertificateService creates a new CertificateService.
func NewCertificateService(
	exams ExamStore,
	attempts AttemptStore,
	users UserReader,
	filieres FiliereReader,
	issuer CertificateIssuer,
	log zerolog.Logger,
) *CertificateService {
	return &CertificateService{
		exams:    exams,
		attempts: attempts,
		users:    users,
		filieres: filieres,
		issuer:   issuer,
		now:      time.Now,
		log:      log.With().Str("component", "certificate_service").Logger(),
	}
}

// WithClock replaces the time source.
func (s *CertificateService) WithClock(now func() time.Time) *CertificateService {
	s.now = now
	return s
}

// Dispatch renders the certificate now and records it on the attempt.
func (s *CertificateService) Dispatch(ctx context.Context, exam *model.Exam, attempt *model.Attempt) (*string, error) {
	data, err := s.collect(ctx, exam, attempt)
	if err != nil {
		metrics.CertificatesTotal.WithLabelValues("failed").Inc()
		return nil, &certificate.GenerationError{Stage: "collect", Err: err}
	}

	url, err := s.issuer.Issue(ctx, data)
	if err != nil {
		metrics.CertificatesTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	if err := s.attempts.MarkCertificate(ctx, attempt.ID, url); err != nil {
		if errors.Is(err, repository.ErrGuardRejected) {
			// A concurrent issuance stamped first; its reference is the permanent one.
			current, gerr := s.attempts.GetByExamAndStudent(ctx, attempt.ExamID, attempt.StudentID)
			if gerr != nil {
				return nil, fmt.Errorf("reload attempt: %w", gerr)
			}
			s.log.Warn().
				Str("attempt_id", attempt.ID.String()).
				Str("orphan", url).
				Msg("Certificate already recorded, keeping existing reference")
			if derr := s.issuer.Discard(ctx, url); derr != nil {
				s.log.Warn().Err(derr).Str("orphan", url).Msg("Failed to discard orphan certificate")
			}
			return current.CertificateURL, nil
		}
		metrics.CertificatesTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("mark certificate: %w", err)
	}

	metrics.CertificatesTotal.WithLabelValues("issued").Inc()
	attempt.CertificateGenerated = true
	attempt.CertificateURL = &url
	return &url, nil
}

// ProcessJob issues a queued certificate. Jobs for attempts that no longer need one are dropped.
func (s *CertificateService) ProcessJob(ctx context.Context, job model.CertificateJob) error {
	attempt, err := s.attempts.GetByExamAndStudent(ctx, job.ExamID, job.StudentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("get attempt: %w", err)
	}
	if !attempt.NeedsCertificate() {
		return nil
	}

	exam, err := s.exams.GetByID(ctx, job.ExamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("get exam: %w", err)
	}

	_, err = s.Dispatch(ctx, exam, attempt)
	return err
}

func (s *CertificateService) collect(ctx context.Context, exam *model.Exam, attempt *model.Attempt) (certificate.Data, error) {
	student, err := s.users.GetByID(ctx, attempt.StudentID)
	if err != nil {
		return certificate.Data{}, fmt.Errorf("get student: %w", err)
	}
	teacher, err := s.users.GetByID(ctx, exam.TeacherID)
	if err != nil {
		return certificate.Data{}, fmt.Errorf("get teacher: %w", err)
	}

	// The certificate names the programme the exam belongs to, not the student's.
	filiereName := "N/A"
	f, err := s.filieres.GetByID(ctx, exam.FiliereID)
	switch {
	case err == nil:
		filiereName = f.Name
	case !errors.Is(err, pgx.ErrNoRows):
		return certificate.Data{}, fmt.Errorf("get filiere: %w", err)
	}

	return certificate.Data{
		AttemptID:   attempt.ID,
		StudentName: student.DisplayName(),
		FiliereName: filiereName,
		ExamTitle:   exam.Title,
		Percentage:  round2(attempt.Percentage),
		TeacherName: teacher.DisplayName(),
		Date:        s.now(),
	}, nil
}

// QueuedCertificates defers issuance to the certificate worker.
type QueuedCertificates struct {
	queue CertificateQueue
	log   zerolog.Logger
}

// NewQueuedCertificates creates a new QueuedCertificates.
func NewQueuedCertificates(queue CertificateQueue, log zerolog.Logger) *QueuedCertificates {
	return &QueuedCertificates{
		queue: queue,
		log:   log.With().Str("component", "certificate_queue").Logger(),
	}
}

// Dispatch pushes a job and reports no reference yet.
func (q *QueuedCertificates) Dispatch(ctx context.Context, exam *model.Exam, attempt *model.Attempt) (*string, error) {
	job := model.CertificateJob{AttemptID: attempt.ID, ExamID: exam.ID, StudentID: attempt.StudentID}
	if err := q.queue.Push(ctx, job); err != nil {
		metrics.CertificatesTotal.WithLabelValues("failed").Inc()
		return nil, &certificate.GenerationError{Stage: "enqueue", Err: err}
	}
	metrics.CertificatesTotal.WithLabelValues("queued").Inc()
	q.log.Debug().Str("attempt_id", attempt.ID.String()).Msg("Certificate job queued")
	return nil, nil
}
