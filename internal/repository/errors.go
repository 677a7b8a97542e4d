package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicateAttempt is returned when an attempt already exists for the (exam, student) pair.
	ErrDuplicateAttempt = errors.New("attempt already exists for this exam and student")
	// ErrDuplicateUser is returned when a username or email is taken.
	ErrDuplicateUser = errors.New("username or email already exists")
	// ErrGuardRejected is returned when a conditional update matched no row.
	ErrGuardRejected = errors.New("row no longer satisfies update guard")
)

const attemptUniqueConstraint = "exam_attempts_exam_student_key"

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
