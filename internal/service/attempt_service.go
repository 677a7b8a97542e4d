package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/eduplatforme/exam-backend/internal/metrics"
	"github.com/eduplatforme/exam-backend/internal/model"
	"github.com/eduplatforme/exam-backend/internal/repository"
)

// AttemptStore is the persistence the attempt engine needs.
type AttemptStore interface {
	GetByExamAndStudent(ctx context.Context, examID, studentID uuid.UUID) (*model.Attempt, error)
	Create(ctx context.Context, a *model.Attempt) error
	UpdateGraded(ctx context.Context, a *model.Attempt) error
	MarkCertificate(ctx context.Context, attemptID uuid.UUID, url string) error
	ListSubmittedByExam(ctx context.Context, examID uuid.UUID) ([]model.SubmissionRow, error)
}

// PayloadSource yields the answer-free payload of an exam.
type PayloadSource interface {
	Payload(ctx context.Context, exam *model.Exam) *model.ExamPayload
}

// ResultPublisher broadcasts graded submissions.
type ResultPublisher interface {
	Publish(ctx context.Context, ev model.ResultEvent) error
}

// gate selects which eligibility checks apply.
type gate int

const (
	gateView gate = iota
	gateSubmit
)

// AttemptService is the exam attempt engine: eligibility, grading, attempt
// transitions and certificate triggering.
type AttemptService struct {
	exams    ExamStore
	attempts AttemptStore
	users    UserReader
	payloads PayloadSource
	certs    CertificateDispatcher
	results  ResultPublisher
	now      func() time.Time
	log      zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	exams ExamStore,
	attempts AttemptStore,
	users UserReader,
	payloads PayloadSource,
	certs CertificateDispatcher,
	results ResultPublisher,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		exams:    exams,
		attempts: attempts,
		users:    users,
		payloads: payloads,
		certs:    certs,
		results:  results,
		now:      time.Now,
		log:      log.With().Str("component", "attempt_service").Logger(),
	}
}

// WithClock replaces the time source.
func (s *AttemptService) WithClock(now func() time.Time) *AttemptService {
	s.now = now
	return s
}

// eligibility runs the ordered gating checks. The end date is only enforced on
// submission and the filière only on viewing. A terminal attempt is reported as
// *AlreadyPassedError together with the exam and attempt.
func (s *AttemptService) eligibility(ctx context.Context, actor Actor, examID uuid.UUID, g gate) (*model.Exam, *model.Attempt, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrExamNotFound
		}
		return nil, nil, fmt.Errorf("get exam: %w", err)
	}

	if err := Authorize(actor, CapExamAttempt, exam.TeacherID); err != nil {
		return nil, nil, err
	}
	if !exam.IsPublished {
		return nil, nil, ErrExamNotPublished
	}

	now := s.now()
	if now.Before(exam.AvailabilityDate) {
		return nil, nil, ErrExamNotAvailable
	}
	if g == gateSubmit && now.After(exam.EndDate) {
		return nil, nil, ErrExamOver
	}

	current, err := s.currentAttempt(ctx, examID, actor.ID)
	if err != nil {
		return nil, nil, err
	}
	if current.IsTerminal() {
		return exam, current, alreadyPassed(current)
	}

	if g == gateView {
		student, err := s.users.GetByID(ctx, actor.ID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fmt.Errorf("get student: %w", err)
		}
		if student == nil || student.FiliereID == nil || *student.FiliereID != exam.FiliereID {
			return nil, nil, ErrWrongFiliere
		}
	}
	return exam, current, nil
}

func (s *AttemptService) currentAttempt(ctx context.Context, examID, studentID uuid.UUID) (*model.Attempt, error) {
	a, err := s.attempts.GetByExamAndStudent(ctx, examID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return a, nil
}

func alreadyPassed(a *model.Attempt) *AlreadyPassedError {
	return &AlreadyPassedError{AttemptID: a.ID, Percentage: round2(a.Percentage), CertificateURL: a.CertificateURL}
}

// ViewExam returns the answer-free exam for a student, or the previous passed
// submission when the student has already passed.
func (s *AttemptService) ViewExam(ctx context.Context, actor Actor, examID uuid.UUID) (*model.ViewResult, error) {
	exam, current, err := s.eligibility(ctx, actor, examID, gateView)
	var passed *AlreadyPassedError
	if errors.As(err, &passed) {
		return &model.ViewResult{
			Exam:          s.payloads.Payload(ctx, exam),
			AlreadyPassed: true,
			PreviousSubmission: &model.PreviousSubmission{
				Percentage:     passed.Percentage,
				CertificateURL: current.CertificateURL,
				SubmittedAt:    current.SubmittedAt,
			},
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &model.ViewResult{Exam: s.payloads.Payload(ctx, exam)}, nil
}

// Submit grades the answers and records them on the student's single attempt.
// A certificate failure never fails the submission.
func (s *AttemptService) Submit(ctx context.Context, actor Actor, examID uuid.UUID, answers []*string) (*model.SubmissionResult, error) {
	exam, current, err := s.eligibility(ctx, actor, examID, gateSubmit)
	if err != nil {
		var passed *AlreadyPassedError
		if errors.As(err, &passed) {
			metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		}
		return nil, err
	}

	grade := GradeSubmission(exam, answers)
	attempt, err := s.record(ctx, exam, actor.ID, current, grade)
	if err != nil {
		if errors.Is(err, ErrAttemptConflict) {
			metrics.SubmissionsTotal.WithLabelValues("conflict").Inc()
		}
		return nil, err
	}

	outcome := "failed"
	if attempt.Passed {
		outcome = "passed"
	}
	metrics.SubmissionsTotal.WithLabelValues(outcome).Inc()

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Str("student_id", actor.ID.String()).
		Str("attempt_id", attempt.ID.String()).
		Int("score", attempt.Score).
		Int("total_points", attempt.TotalPoints).
		Bool("passed", attempt.Passed).
		Msg("Submission graded")

	s.publish(ctx, attempt)

	if attempt.NeedsCertificate() {
		url, err := s.certs.Dispatch(ctx, exam, attempt)
		if err != nil {
			s.log.Error().
				Err(err).
				Str("attempt_id", attempt.ID.String()).
				Msg("Certificate issuance failed, submission kept")
		} else if url != nil {
			attempt.CertificateURL = url
			attempt.CertificateGenerated = true
		}
	}

	return &model.SubmissionResult{
		ID:             attempt.ID,
		Score:          attempt.Score,
		TotalPoints:    attempt.TotalPoints,
		Percentage:     FormatPercentage(attempt.Percentage),
		Passed:         attempt.Passed,
		CertificateURL: attempt.CertificateURL,
	}, nil
}

// record applies the planned transition. A duplicate insert is retried once
// against the row that won the race.
func (s *AttemptService) record(ctx context.Context, exam *model.Exam, studentID uuid.UUID, current *model.Attempt, g Grade) (*model.Attempt, error) {
	now := s.now()

	for try := 0; try < 2; try++ {
		switch model.PlanTransition(current) {
		case model.TransitionCreate:
			a := &model.Attempt{
				ExamID:    exam.ID,
				StudentID: studentID,
				StartedAt: now,
			}
			applyGrade(a, g, now)
			err := s.attempts.Create(ctx, a)
			if errors.Is(err, repository.ErrDuplicateAttempt) {
				s.log.Warn().
					Str("exam_id", exam.ID.String()).
					Str("student_id", studentID.String()).
					Msg("Concurrent first submission, retrying as resubmission")
				if current, err = s.currentAttempt(ctx, exam.ID, studentID); err != nil {
					return nil, err
				}
				if current == nil {
					return nil, ErrAttemptConflict
				}
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("create attempt: %w", err)
			}
			return a, nil

		case model.TransitionRegrade:
			a := *current
			applyGrade(&a, g, now)
			if err := s.attempts.UpdateGraded(ctx, &a); err != nil {
				if errors.Is(err, repository.ErrGuardRejected) {
					return nil, ErrAttemptConflict
				}
				return nil, fmt.Errorf("update attempt: %w", err)
			}
			return &a, nil

		case model.TransitionReject:
			// Only reachable after a lost race: the other submission passed first.
			return nil, ErrAttemptConflict
		}
	}
	return nil, ErrAttemptConflict
}

func applyGrade(a *model.Attempt, g Grade, now time.Time) {
	a.Answers = g.Answers
	a.Score = g.Score
	a.TotalPoints = g.TotalPoints
	a.Percentage = g.Percentage
	a.Passed = g.Passed
	a.IsSubmitted = true
	a.SubmittedAt = now
}

func (s *AttemptService) publish(ctx context.Context, a *model.Attempt) {
	ev := model.ResultEvent{
		ExamID:      a.ExamID,
		AttemptID:   a.ID,
		StudentID:   a.StudentID,
		Score:       a.Score,
		TotalPoints: a.TotalPoints,
		Percentage:  round2(a.Percentage),
		Passed:      a.Passed,
		SubmittedAt: a.SubmittedAt,
	}
	if err := s.results.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("exam_id", a.ExamID.String()).Msg("Failed to publish result event")
	}
}

// Results is either the student's own outcome or the owner's full report.
type Results struct {
	Student *model.StudentResults
	Teacher *model.TeacherResults
}

// GetResults returns the student's own attempt, or every submission plus statistics
// for the owning teacher.
func (s *AttemptService) GetResults(ctx context.Context, actor Actor, examID uuid.UUID) (*Results, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}

	if Can(actor, CapResultsOwn, exam.TeacherID) {
		a, err := s.currentAttempt(ctx, examID, actor.ID)
		if err != nil {
			return nil, err
		}
		return &Results{Student: &model.StudentResults{HasSubmission: a != nil, Submission: a}}, nil
	}

	if err := Authorize(actor, CapResultsAll, exam.TeacherID); err != nil {
		return nil, err
	}
	rows, err := s.attempts.ListSubmittedByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	for i := range rows {
		rows[i].Percentage = round2(rows[i].Percentage)
	}

	return &Results{Teacher: &model.TeacherResults{
		Exam: model.ExamSummary{
			ID:              exam.ID,
			Title:           exam.Title,
			TotalPoints:     exam.TotalPoints,
			MinPassingScore: exam.MinPassingScore,
		},
		Count:       len(rows),
		Submissions: rows,
		Statistics:  AggregateResults(rows),
	}}, nil
}

// IssueCertificate retries issuance for a passed attempt whose certificate is missing.
// It returns the existing reference when one was already issued.
func (s *AttemptService) IssueCertificate(ctx context.Context, actor Actor, examID uuid.UUID) (*string, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if err := Authorize(actor, CapResultsOwn, exam.TeacherID); err != nil {
		return nil, err
	}

	a, err := s.currentAttempt(ctx, examID, actor.ID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAttemptNotFound
	}
	if !a.IsTerminal() {
		return nil, ErrAttemptNotPassed
	}
	if a.CertificateGenerated {
		return a.CertificateURL, nil
	}

	return s.certs.Dispatch(ctx, exam, a)
}
