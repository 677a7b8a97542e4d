package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultMinPassingScore is the passing percentage when the author does not set one.
const DefaultMinPassingScore = 50

// Exam is a graded assessment owned by one teacher and scoped to one filière.
type Exam struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	TeacherID        uuid.UUID  `json:"teacher"`
	FiliereID        uuid.UUID  `json:"filiere"`
	Questions        []Question `json:"questions"`
	DurationMinutes  int        `json:"duration"`
	StartDate        time.Time  `json:"startDate"`
	EndDate          time.Time  `json:"endDate"`
	AvailabilityDate time.Time  `json:"availabilityDate"`
	MinPassingScore  float64    `json:"minPassingScore"`
	TotalPoints      int        `json:"totalPoints"`
	IsPublished      bool       `json:"isPublished"`
	PublishedAt      *time.Time `json:"publishedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// RecomputeTotalPoints derives TotalPoints from the questions. It is the only writer of TotalPoints.
func (e *Exam) RecomputeTotalPoints() {
	total := 0
	for _, q := range e.Questions {
		total += q.PointValue()
	}
	e.TotalPoints = total
}

// StudentPayload strips the answer key from the exam.
func (e *Exam) StudentPayload() *ExamPayload {
	questions := make([]QuestionForStudent, len(e.Questions))
	for i, q := range e.Questions {
		var options []string
		if len(q.Options) > 0 {
			options = make([]string, len(q.Options))
			for j, o := range q.Options {
				options[j] = o.Text
			}
		}
		questions[i] = QuestionForStudent{
			ID:      q.ID,
			Prompt:  q.Prompt,
			Type:    q.Type,
			Options: options,
			Points:  q.PointValue(),
		}
	}
	return &ExamPayload{
		ID:               e.ID,
		Title:            e.Title,
		Description:      e.Description,
		TeacherID:        e.TeacherID,
		FiliereID:        e.FiliereID,
		DurationMinutes:  e.DurationMinutes,
		StartDate:        e.StartDate,
		EndDate:          e.EndDate,
		AvailabilityDate: e.AvailabilityDate,
		MinPassingScore:  e.MinPassingScore,
		TotalPoints:      e.TotalPoints,
		Questions:        questions,
	}
}

// ExamPayload is the Redis-cached exam sent to students (no correct answers).
type ExamPayload struct {
	ID               uuid.UUID            `json:"id"`
	Title            string               `json:"title"`
	Description      string               `json:"description,omitempty"`
	TeacherID        uuid.UUID            `json:"teacher"`
	FiliereID        uuid.UUID            `json:"filiere"`
	DurationMinutes  int                  `json:"duration"`
	StartDate        time.Time            `json:"startDate"`
	EndDate          time.Time            `json:"endDate"`
	AvailabilityDate time.Time            `json:"availabilityDate"`
	MinPassingScore  float64              `json:"minPassingScore"`
	TotalPoints      int                  `json:"totalPoints"`
	Questions        []QuestionForStudent `json:"questions"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title            string          `json:"title" binding:"required,max=255"`
	Description      string          `json:"description" binding:"omitempty,max=5000"`
	Filiere          uuid.UUID       `json:"filiere" binding:"required"`
	Questions        []QuestionInput `json:"questions" binding:"required,min=1,dive"`
	Duration         int             `json:"duration" binding:"required,min=1"`
	StartDate        *time.Time      `json:"startDate" binding:"required"`
	EndDate          *time.Time      `json:"endDate" binding:"required"`
	IsPublished      *bool           `json:"isPublished" binding:"omitempty"`
	MinPassingScore  *float64        `json:"minPassingScore" binding:"omitempty,min=0,max=100"`
	AvailabilityDate *time.Time      `json:"availabilityDate" binding:"omitempty"`
}

// UpdateExamRequest is a partial update; nil fields are left untouched.
type UpdateExamRequest struct {
	Title            *string         `json:"title" binding:"omitempty,min=1,max=255"`
	Description      *string         `json:"description" binding:"omitempty,max=5000"`
	Filiere          *uuid.UUID      `json:"filiere" binding:"omitempty"`
	Questions        []QuestionInput `json:"questions" binding:"omitempty,min=1,dive"`
	Duration         *int            `json:"duration" binding:"omitempty,min=1"`
	StartDate        *time.Time      `json:"startDate" binding:"omitempty"`
	EndDate          *time.Time      `json:"endDate" binding:"omitempty"`
	IsPublished      *bool           `json:"isPublished" binding:"omitempty"`
	MinPassingScore  *float64        `json:"minPassingScore" binding:"omitempty,min=0,max=100"`
	AvailabilityDate *time.Time      `json:"availabilityDate" binding:"omitempty"`
}

// ExamFilter narrows exam listings.
type ExamFilter struct {
	TeacherID   *uuid.UUID
	FiliereID   *uuid.UUID
	IsPublished *bool
}
