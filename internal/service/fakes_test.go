package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/eduplatforme/exam-backend/internal/certificate"
	"github.com/eduplatforme/exam-backend/internal/model"
	"github.com/eduplatforme/exam-backend/internal/repository"
)

type memExams struct {
	mu      sync.Mutex
	exams   map[uuid.UUID]model.Exam
	deleted []uuid.UUID
}

func newMemExams(exams ...*model.Exam) *memExams {
	m := &memExams{exams: map[uuid.UUID]model.Exam{}}
	for _, e := range exams {
		m.exams[e.ID] = *e
	}
	return m
}

func (m *memExams) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &e, nil
}

func (m *memExams) Create(_ context.Context, e *model.Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	m.exams[e.ID] = *e
	return nil
}

func (m *memExams) Update(_ context.Context, e *model.Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exams[e.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.exams[e.ID] = *e
	return nil
}

func (m *memExams) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exams[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.exams, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memExams) List(_ context.Context, f model.ExamFilter) ([]model.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Exam{}
	for _, e := range m.exams {
		if f.TeacherID != nil && e.TeacherID != *f.TeacherID {
			continue
		}
		if f.FiliereID != nil && e.FiliereID != *f.FiliereID {
			continue
		}
		if f.IsPublished != nil && e.IsPublished != *f.IsPublished {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memExams) ListPublished(ctx context.Context) ([]model.Exam, error) {
	published := true
	return m.List(ctx, model.ExamFilter{IsPublished: &published})
}

type pairKey struct{ exam, student uuid.UUID }

// memAttempts mirrors the unique (exam, student) constraint and the guarded updates.
type memAttempts struct {
	mu      sync.Mutex
	rows    map[pairKey]model.Attempt
	creates int
	updates int

	// beforeCreate runs inside Create before the uniqueness check, to simulate a racing writer.
	beforeCreate func()
}

func newMemAttempts() *memAttempts {
	return &memAttempts{rows: map[pairKey]model.Attempt{}}
}

func (m *memAttempts) GetByExamAndStudent(_ context.Context, examID, studentID uuid.UUID) (*model.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[pairKey{examID, studentID}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &a, nil
}

func (m *memAttempts) Create(_ context.Context, a *model.Attempt) error {
	if hook := m.beforeCreate; hook != nil {
		m.beforeCreate = nil
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pairKey{a.ExamID, a.StudentID}
	if _, exists := m.rows[k]; exists {
		return repository.ErrDuplicateAttempt
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.rows[k] = *a
	m.creates++
	return nil
}

// put stores a row directly, bypassing the counters.
func (m *memAttempts) put(a model.Attempt) model.Attempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.rows[pairKey{a.ExamID, a.StudentID}] = a
	return a
}

func (m *memAttempts) UpdateGraded(_ context.Context, a *model.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pairKey{a.ExamID, a.StudentID}
	cur, ok := m.rows[k]
	if !ok || cur.ID != a.ID || cur.IsTerminal() {
		return repository.ErrGuardRejected
	}
	cur.Answers = a.Answers
	cur.Score = a.Score
	cur.TotalPoints = a.TotalPoints
	cur.Percentage = a.Percentage
	cur.SubmittedAt = a.SubmittedAt
	cur.IsSubmitted = a.IsSubmitted
	cur.Passed = a.Passed
	m.rows[k] = cur
	m.updates++
	return nil
}

func (m *memAttempts) MarkCertificate(_ context.Context, attemptID uuid.UUID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, a := range m.rows {
		if a.ID != attemptID {
			continue
		}
		if a.CertificateGenerated {
			return repository.ErrGuardRejected
		}
		a.CertificateGenerated = true
		a.CertificateURL = &url
		m.rows[k] = a
		return nil
	}
	return repository.ErrGuardRejected
}

func (m *memAttempts) ListSubmittedByExam(_ context.Context, examID uuid.UUID) ([]model.SubmissionRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.SubmissionRow{}
	for _, a := range m.rows {
		if a.ExamID != examID || !a.IsSubmitted {
			continue
		}
		row := model.SubmissionRow{
			ID: a.ID, Score: a.Score, TotalPoints: a.TotalPoints, Percentage: a.Percentage,
			Passed: a.Passed, SubmittedAt: a.SubmittedAt,
			CertificateGenerated: a.CertificateGenerated, CertificateURL: a.CertificateURL,
			Student: model.StudentRef{ID: a.StudentID},
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *memAttempts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memUsers map[uuid.UUID]*model.User

func (m memUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

type memFilieres map[uuid.UUID]*model.Filiere

func (m memFilieres) GetByID(_ context.Context, id uuid.UUID) (*model.Filiere, error) {
	f, ok := m[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return f, nil
}

type memCache struct {
	mu       sync.Mutex
	payloads map[uuid.UUID]*model.ExamPayload
	evicted  []uuid.UUID
}

func newMemCache() *memCache {
	return &memCache{payloads: map[uuid.UUID]*model.ExamPayload{}}
}

func (c *memCache) SetPayload(_ context.Context, p *model.ExamPayload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads[p.ID] = p
	return nil
}

func (c *memCache) GetPayload(_ context.Context, id uuid.UUID) (*model.ExamPayload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.payloads[id]
	if !ok {
		return nil, repository.ErrCacheMiss
	}
	return p, nil
}

func (c *memCache) Evict(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.payloads, id)
	c.evicted = append(c.evicted, id)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.ResultEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev model.ResultEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

type stubIssuer struct {
	mu        sync.Mutex
	calls     int
	err       error
	discarded []string
	issued    []certificate.Data
}

func (s *stubIssuer) Issue(_ context.Context, d certificate.Data) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.issued = append(s.issued, d)
	if s.err != nil {
		return "", &certificate.GenerationError{Stage: "render", Err: s.err}
	}
	return fmt.Sprintf("%scertificate_%s_%d.pdf", certificate.URLPrefix, d.AttemptID, s.calls), nil
}

func (s *stubIssuer) Discard(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discarded = append(s.discarded, ref)
	return nil
}

type memQueue struct {
	jobs []model.CertificateJob
	err  error
}

func (q *memQueue) Push(_ context.Context, job model.CertificateJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

var errBoom = errors.New("boom")
