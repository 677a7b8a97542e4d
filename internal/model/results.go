package model

import (
	"time"

	"github.com/google/uuid"
)

// StudentRef is the identity shown next to a submission in teacher reports.
type StudentRef struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Filiere   *string   `json:"filiere"`
}

// SubmissionRow is a submitted attempt enriched with student identity.
type SubmissionRow struct {
	ID                   uuid.UUID  `json:"id"`
	Student              StudentRef `json:"student"`
	Score                int        `json:"score"`
	TotalPoints          int        `json:"totalPoints"`
	Percentage           float64    `json:"percentage"`
	Passed               bool       `json:"passed"`
	SubmittedAt          time.Time  `json:"submittedAt"`
	CertificateGenerated bool       `json:"certificateGenerated"`
	CertificateURL       *string    `json:"certificateUrl"`
}

// Statistics summarises every submitted attempt of one exam.
type Statistics struct {
	TotalSubmissions int     `json:"totalSubmissions"`
	PassedCount      int     `json:"passedCount"`
	FailedCount      int     `json:"failedCount"`
	AverageScore     float64 `json:"averageScore"`
	HighestScore     float64 `json:"highestScore"`
	LowestScore      float64 `json:"lowestScore"`
}

// StudentResults is the student's view of their own outcome.
type StudentResults struct {
	HasSubmission bool     `json:"hasSubmission"`
	Submission    *Attempt `json:"submission,omitempty"`
}

// ExamSummary is the exam header in teacher reports.
type ExamSummary struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	TotalPoints     int       `json:"totalPoints"`
	MinPassingScore float64   `json:"minPassingScore"`
}

// TeacherResults is the owner's report across all submissions.
type TeacherResults struct {
	Exam        ExamSummary     `json:"exam"`
	Count       int             `json:"count"`
	Submissions []SubmissionRow `json:"submissions"`
	Statistics  Statistics      `json:"statistics"`
}

// ResultEvent is published whenever an attempt is graded.
type ResultEvent struct {
	ExamID      uuid.UUID `json:"examId"`
	AttemptID   uuid.UUID `json:"attemptId"`
	StudentID   uuid.UUID `json:"studentId"`
	Score       int       `json:"score"`
	TotalPoints int       `json:"totalPoints"`
	Percentage  float64   `json:"percentage"`
	Passed      bool      `json:"passed"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// CertificateJob is a queued request to render a certificate for a passed attempt.
type CertificateJob struct {
	AttemptID uuid.UUID `json:"attemptId"`
	ExamID    uuid.UUID `json:"examId"`
	StudentID uuid.UUID `json:"studentId"`
	Retries   int       `json:"retries,omitempty"`
}
