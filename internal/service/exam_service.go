package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/eduplatforme/exam-backend/internal/model"
	"github.com/eduplatforme/exam-backend/internal/repository"
)

// ExamStore is the persistence the exam core needs for exams.
type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	Create(ctx context.Context, e *model.Exam) error
	Update(ctx context.Context, e *model.Exam) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f model.ExamFilter) ([]model.Exam, error)
	ListPublished(ctx context.Context) ([]model.Exam, error)
}

// ExamCache holds the student-facing payload of published exams.
type ExamCache interface {
	SetPayload(ctx context.Context, p *model.ExamPayload) error
	GetPayload(ctx context.Context, examID uuid.UUID) (*model.ExamPayload, error)
	Evict(ctx context.Context, examID uuid.UUID) error
}

// UserReader resolves users from the directory.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// FiliereReader resolves filières from the catalog.
type FiliereReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Filiere, error)
}

// ExamService owns exam definitions and their Redis payload cache.
type ExamService struct {
	exams    ExamStore
	cache    ExamCache
	users    UserReader
	filieres FiliereReader
	now      func() time.Time
	log      zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	exams ExamStore,
	cache ExamCache,
	users UserReader,
	filieres FiliereReader,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		exams:    exams,
		cache:    cache,
		users:    users,
		filieres: filieres,
		now:      time.Now,
		log:      log.With().Str("component", "exam_service").Logger(),
	}
}

// WithClock replaces the time source.
func (s *ExamService) WithClock(now func() time.Time) *ExamService {
	s.now = now
	return s
}

// Create validates and stores a new exam owned by the acting teacher.
func (s *ExamService) Create(ctx context.Context, actor Actor, req *model.CreateExamRequest) (*model.Exam, error) {
	if err := Authorize(actor, CapExamAuthor, uuid.Nil); err != nil {
		return nil, err
	}

	fields := map[string]string{}
	exam := &model.Exam{
		Title:           req.Title,
		Description:     req.Description,
		TeacherID:       actor.ID,
		FiliereID:       req.Filiere,
		Questions:       buildQuestions(req.Questions, fields),
		DurationMinutes: req.Duration,
		MinPassingScore: model.DefaultMinPassingScore,
	}
	if req.StartDate != nil {
		exam.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		exam.EndDate = *req.EndDate
	}
	exam.AvailabilityDate = exam.StartDate
	if req.AvailabilityDate != nil {
		exam.AvailabilityDate = *req.AvailabilityDate
	}
	if req.MinPassingScore != nil {
		exam.MinPassingScore = *req.MinPassingScore
	}
	if req.IsPublished != nil {
		exam.IsPublished = *req.IsPublished
	}

	validateExam(exam, fields)
	s.checkFiliere(ctx, exam.FiliereID, fields)
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	exam.RecomputeTotalPoints()
	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	if exam.IsPublished {
		s.warm(ctx, exam)
	}

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Str("teacher_id", actor.ID.String()).
		Int("questions", len(exam.Questions)).
		Int("total_points", exam.TotalPoints).
		Msg("Exam created")
	return exam, nil
}

// Get retrieves an exam with its answer key.
func (s *ExamService) Get(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return exam, nil
}

// GetOwned retrieves an exam with its answer key for its owning teacher.
func (s *ExamService) GetOwned(ctx context.Context, actor Actor, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, CapExamManage, exam.TeacherID); err != nil {
		return nil, err
	}
	return exam, nil
}

// List returns the exams visible to the actor. Students see published exams of their own
// filière; teachers see their own exams, optionally filtered.
func (s *ExamService) List(ctx context.Context, actor Actor, filter model.ExamFilter) ([]model.Exam, error) {
	if err := Authorize(actor, CapExamView, uuid.Nil); err != nil {
		return nil, err
	}

	switch actor.Role {
	case model.RoleStudent:
		user, err := s.users.GetByID(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return []model.Exam{}, nil
			}
			return nil, fmt.Errorf("get student: %w", err)
		}
		if user.FiliereID == nil {
			return []model.Exam{}, nil
		}
		published := true
		filter = model.ExamFilter{FiliereID: user.FiliereID, IsPublished: &published}
	default:
		filter.TeacherID = &actor.ID
	}

	exams, err := s.exams.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return exams, nil
}

// Update applies a partial update. Only the owning teacher may update.
func (s *ExamService) Update(ctx context.Context, actor Actor, id uuid.UUID, req *model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, CapExamManage, exam.TeacherID); err != nil {
		return nil, err
	}

	fields := map[string]string{}
	wasPublished := exam.IsPublished

	if req.Title != nil {
		exam.Title = *req.Title
	}
	if req.Description != nil {
		exam.Description = *req.Description
	}
	if req.Filiere != nil && *req.Filiere != exam.FiliereID {
		exam.FiliereID = *req.Filiere
		s.checkFiliere(ctx, exam.FiliereID, fields)
	}
	if req.Questions != nil {
		exam.Questions = buildQuestions(req.Questions, fields)
	}
	if req.Duration != nil {
		exam.DurationMinutes = *req.Duration
	}
	if req.StartDate != nil {
		exam.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		exam.EndDate = *req.EndDate
	}
	if req.AvailabilityDate != nil {
		exam.AvailabilityDate = *req.AvailabilityDate
	}
	if req.MinPassingScore != nil {
		exam.MinPassingScore = *req.MinPassingScore
	}
	if req.IsPublished != nil {
		exam.IsPublished = *req.IsPublished
	}

	validateExam(exam, fields)
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	// publishedAt is stamped on the first publication and never overwritten.
	if exam.IsPublished && !wasPublished && exam.PublishedAt == nil {
		now := s.now()
		exam.PublishedAt = &now
	}
	exam.RecomputeTotalPoints()

	if err := s.exams.Update(ctx, exam); err != nil {
		return nil, fmt.Errorf("update exam: %w", err)
	}

	if exam.IsPublished {
		s.warm(ctx, exam)
	} else if wasPublished {
		s.evict(ctx, exam.ID)
	}

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Bool("published", exam.IsPublished).
		Msg("Exam updated")
	return exam, nil
}

// Delete removes an exam and every attempt referencing it.
func (s *ExamService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	exam, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := Authorize(actor, CapExamManage, exam.TeacherID); err != nil {
		return err
	}

	if err := s.exams.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrExamNotFound
		}
		return fmt.Errorf("delete exam: %w", err)
	}
	s.evict(ctx, id)

	s.log.Info().Str("exam_id", id.String()).Msg("Exam deleted")
	return nil
}

// Payload returns the student-facing payload, refilling the cache from the exam on a miss.
func (s *ExamService) Payload(ctx context.Context, exam *model.Exam) *model.ExamPayload {
	p, err := s.cache.GetPayload(ctx, exam.ID)
	if err == nil {
		return p
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		s.log.Warn().Err(err).Str("exam_id", exam.ID.String()).Msg("Payload cache read failed")
	}
	p = exam.StudentPayload()
	if exam.IsPublished {
		if err := s.cache.SetPayload(ctx, p); err != nil {
			s.log.Warn().Err(err).Str("exam_id", exam.ID.String()).Msg("Payload cache refill failed")
		}
	}
	return p
}

// PrewarmAllCaches loads every published exam payload into Redis on startup.
func (s *ExamService) PrewarmAllCaches(ctx context.Context) error {
	exams, err := s.exams.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published exams: %w", err)
	}

	if len(exams) == 0 {
		s.log.Info().Msg("No published exams to prewarm")
		return nil
	}

	warmed := 0
	for i := range exams {
		if err := s.cache.SetPayload(ctx, exams[i].StudentPayload()); err != nil {
			s.log.Warn().Err(err).Str("exam_id", exams[i].ID.String()).Msg("Failed to warm exam, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().Int("warmed", warmed).Int("total", len(exams)).Msg("Prewarming complete")
	return nil
}

func (s *ExamService) checkFiliere(ctx context.Context, id uuid.UUID, fields map[string]string) {
	if id == uuid.Nil {
		return
	}
	if _, err := s.filieres.GetByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			fields["filiere"] = "filière inconnue"
			return
		}
		s.log.Warn().Err(err).Str("filiere_id", id.String()).Msg("Filiere lookup failed")
	}
}

// Cache failures never fail a write; reads self-heal from PostgreSQL.
func (s *ExamService) warm(ctx context.Context, exam *model.Exam) {
	if err := s.cache.SetPayload(ctx, exam.StudentPayload()); err != nil {
		s.log.Warn().Err(err).Str("exam_id", exam.ID.String()).Msg("Failed to cache exam payload")
	}
}

func (s *ExamService) evict(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Evict(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Failed to evict exam payload")
	}
}
