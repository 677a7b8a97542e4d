package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eduplatforme/exam-backend/internal/model"
)

const examColumns = `id, title, description, teacher_id, filiere_id, questions, duration_minutes,
	start_date, end_date, availability_date, min_passing_score, total_points,
	is_published, published_at, created_at, updated_at`

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

func scanExam(row pgx.Row) (*model.Exam, error) {
	e := &model.Exam{}
	var questions []byte
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.TeacherID, &e.FiliereID, &questions,
		&e.DurationMinutes, &e.StartDate, &e.EndDate, &e.AvailabilityDate, &e.MinPassingScore,
		&e.TotalPoints, &e.IsPublished, &e.PublishedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &e.Questions); err != nil {
		return nil, fmt.Errorf("decode questions of exam %s: %w", e.ID, err)
	}
	return e, nil
}

// GetByID retrieves an exam by its UUID. Returns pgx.ErrNoRows when absent.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return scanExam(r.pool.QueryRow(ctx, `SELECT `+examColumns+` FROM exams WHERE id = $1`, id))
}

// Create inserts a new exam and fills its generated fields.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	questions, err := json.Marshal(e.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (title, description, teacher_id, filiere_id, questions, duration_minutes,
		                    start_date, end_date, availability_date, min_passing_score, total_points,
		                    is_published, published_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, created_at, updated_at`,
		e.Title, e.Description, e.TeacherID, e.FiliereID, questions, e.DurationMinutes,
		e.StartDate, e.EndDate, e.AvailabilityDate, e.MinPassingScore, e.TotalPoints,
		e.IsPublished, e.PublishedAt,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// Update overwrites every mutable column of an exam.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	questions, err := json.Marshal(e.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`UPDATE exams
		 SET title = $1, description = $2, filiere_id = $3, questions = $4, duration_minutes = $5,
		     start_date = $6, end_date = $7, availability_date = $8, min_passing_score = $9,
		     total_points = $10, is_published = $11, published_at = $12, updated_at = NOW()
		 WHERE id = $13
		 RETURNING updated_at`,
		e.Title, e.Description, e.FiliereID, questions, e.DurationMinutes,
		e.StartDate, e.EndDate, e.AvailabilityDate, e.MinPassingScore,
		e.TotalPoints, e.IsPublished, e.PublishedAt, e.ID,
	).Scan(&e.UpdatedAt)
}

// Delete removes the exam and all of its attempts in one transaction.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM exam_attempts WHERE exam_id = $1`, id); err != nil {
			return fmt.Errorf("delete attempts: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete exam: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

// List returns exams matching the filter, newest first.
func (r *ExamRepository) List(ctx context.Context, f model.ExamFilter) ([]model.Exam, error) {
	query := `SELECT ` + examColumns + ` FROM exams WHERE 1=1`
	var args []any

	if f.TeacherID != nil {
		args = append(args, *f.TeacherID)
		query += fmt.Sprintf(" AND teacher_id = $%d", len(args))
	}
	if f.FiliereID != nil {
		args = append(args, *f.FiliereID)
		query += fmt.Sprintf(" AND filiere_id = $%d", len(args))
	}
	if f.IsPublished != nil {
		args = append(args, *f.IsPublished)
		query += fmt.Sprintf(" AND is_published = $%d", len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exams := []model.Exam{}
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}

// ListPublished returns every published exam (cache prewarming).
func (r *ExamRepository) ListPublished(ctx context.Context) ([]model.Exam, error) {
	published := true
	return r.List(ctx, model.ExamFilter{IsPublished: &published})
}
