package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ErrForbidden is the root of every state or ownership based denial.
var ErrForbidden = errors.New("forbidden")

// Domain errors.
var (
	ErrRoleNotPermitted = errors.New("role not permitted for this action")

	ErrExamNotPublished = fmt.Errorf("%w: exam not yet published", ErrForbidden)
	ErrExamNotAvailable = fmt.Errorf("%w: exam not yet available", ErrForbidden)
	ErrExamOver         = fmt.Errorf("%w: exam is over", ErrForbidden)
	ErrWrongFiliere     = fmt.Errorf("%w: exam belongs to another filiere", ErrForbidden)
	ErrNotExamOwner     = fmt.Errorf("%w: not the owner of this exam", ErrForbidden)
	ErrAttemptNotPassed = fmt.Errorf("%w: attempt has not passed", ErrForbidden)

	ErrExamNotFound    = errors.New("exam not found")
	ErrAttemptNotFound = errors.New("attempt not found")
	ErrAttemptConflict = errors.New("attempt was modified concurrently")
)

// ValidationError carries field-level messages for a rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

// AlreadyPassedError rejects a new attempt on an exam the student has already passed.
type AlreadyPassedError struct {
	AttemptID      uuid.UUID
	Percentage     float64
	CertificateURL *string
}

func (e *AlreadyPassedError) Error() string {
	return fmt.Sprintf("exam already passed with %.2f%%", e.Percentage)
}
