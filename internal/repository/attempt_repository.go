package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eduplatforme/exam-backend/internal/model"
)

const attemptColumns = `id, exam_id, student_id, answers, score, total_points, percentage,
	started_at, submitted_at, is_submitted, passed, certificate_generated, certificate_url,
	created_at, updated_at`

// AttemptRepository handles exam attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

func scanAttempt(row pgx.Row) (*model.Attempt, error) {
	a := &model.Attempt{}
	var answers []byte
	err := row.Scan(&a.ID, &a.ExamID, &a.StudentID, &answers, &a.Score, &a.TotalPoints, &a.Percentage,
		&a.StartedAt, &a.SubmittedAt, &a.IsSubmitted, &a.Passed, &a.CertificateGenerated, &a.CertificateURL,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &a.Answers); err != nil {
		return nil, fmt.Errorf("decode answers of attempt %s: %w", a.ID, err)
	}
	return a, nil
}

// GetByExamAndStudent retrieves the attempt for an exam-student pair. Returns pgx.ErrNoRows when absent.
func (r *AttemptRepository) GetByExamAndStudent(ctx context.Context, examID, studentID uuid.UUID) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts WHERE exam_id = $1 AND student_id = $2`,
		examID, studentID))
}

// Create inserts a graded attempt. Returns ErrDuplicateAttempt if one already exists for the pair.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO exam_attempts (exam_id, student_id, answers, score, total_points, percentage,
		                            started_at, submitted_at, is_submitted, passed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at`,
		a.ExamID, a.StudentID, answers, a.Score, a.TotalPoints, a.Percentage,
		a.StartedAt, a.SubmittedAt, a.IsSubmitted, a.Passed,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, attemptUniqueConstraint) {
			return ErrDuplicateAttempt
		}
		return err
	}
	return nil
}

// UpdateGraded overwrites the graded fields of an attempt that has not passed yet.
// Returns ErrGuardRejected when the row reached the passed state concurrently.
func (r *AttemptRepository) UpdateGraded(ctx context.Context, a *model.Attempt) error {
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	err = r.pool.QueryRow(ctx,
		`UPDATE exam_attempts
		 SET answers = $1, score = $2, total_points = $3, percentage = $4,
		     submitted_at = $5, is_submitted = $6, passed = $7, updated_at = NOW()
		 WHERE id = $8 AND NOT (is_submitted AND passed)
		 RETURNING updated_at`,
		answers, a.Score, a.TotalPoints, a.Percentage, a.SubmittedAt, a.IsSubmitted, a.Passed, a.ID,
	).Scan(&a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrGuardRejected
	}
	return err
}

// MarkCertificate stamps the certificate reference once. Returns ErrGuardRejected when
// a certificate was already recorded.
func (r *AttemptRepository) MarkCertificate(ctx context.Context, attemptID uuid.UUID, url string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_attempts
		 SET certificate_generated = TRUE, certificate_url = $1, updated_at = NOW()
		 WHERE id = $2 AND certificate_generated = FALSE`,
		url, attemptID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrGuardRejected
	}
	return nil
}

// ListSubmittedByExam returns every submitted attempt of an exam with student identity, latest first.
func (r *AttemptRepository) ListSubmittedByExam(ctx context.Context, examID uuid.UUID) ([]model.SubmissionRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.score, a.total_points, a.percentage, a.passed, a.submitted_at,
		        a.certificate_generated, a.certificate_url,
		        u.id, u.username, u.email, u.first_name, u.last_name, f.name
		 FROM exam_attempts a
		 JOIN users u ON u.id = a.student_id
		 LEFT JOIN filieres f ON f.id = u.filiere_id
		 WHERE a.exam_id = $1 AND a.is_submitted
		 ORDER BY a.submitted_at DESC`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.SubmissionRow{}
	for rows.Next() {
		var s model.SubmissionRow
		if err := rows.Scan(&s.ID, &s.Score, &s.TotalPoints, &s.Percentage, &s.Passed, &s.SubmittedAt,
			&s.CertificateGenerated, &s.CertificateURL,
			&s.Student.ID, &s.Student.Username, &s.Student.Email, &s.Student.FirstName, &s.Student.LastName,
			&s.Student.Filiere); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
