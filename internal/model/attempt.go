package model

import (
	"time"

	"github.com/google/uuid"
)

// Answer is one graded response, aligned by index to the exam's questions.
// PointsAwarded is informational; the score is always recomputed server-side.
type Answer struct {
	QuestionID    uuid.UUID `json:"questionId"`
	Answer        string    `json:"answer"`
	PointsAwarded int       `json:"pointsAwarded"`
}

// Attempt is the single record of one student's relationship to one exam.
type Attempt struct {
	ID                   uuid.UUID `json:"id"`
	ExamID               uuid.UUID `json:"exam"`
	StudentID            uuid.UUID `json:"student"`
	Answers              []Answer  `json:"answers"`
	Score                int       `json:"score"`
	TotalPoints          int       `json:"totalPoints"`
	Percentage           float64   `json:"percentage"`
	StartedAt            time.Time `json:"startedAt"`
	SubmittedAt          time.Time `json:"submittedAt"`
	IsSubmitted          bool      `json:"isSubmitted"`
	Passed               bool      `json:"passed"`
	CertificateGenerated bool      `json:"certificateGenerated"`
	CertificateURL       *string   `json:"certificateUrl"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// IsTerminal reports whether the attempt is in the passed state that accepts no further submission.
func (a *Attempt) IsTerminal() bool {
	return a != nil && a.IsSubmitted && a.Passed
}

// NeedsCertificate reports whether a certificate is owed but not yet issued.
func (a *Attempt) NeedsCertificate() bool {
	return a.IsTerminal() && !a.CertificateGenerated
}

// Transition is the action a submission takes against the stored attempt.
type Transition int

const (
	// TransitionCreate grades a first submission into a new attempt row.
	TransitionCreate Transition = iota + 1
	// TransitionRegrade overwrites a failed attempt in place.
	TransitionRegrade
	// TransitionReject refuses a submission against a passed attempt.
	TransitionReject
)

func (t Transition) String() string {
	switch t {
	case TransitionCreate:
		return "create"
	case TransitionRegrade:
		return "regrade"
	case TransitionReject:
		return "reject"
	default:
		return "unknown"
	}
}

// PlanTransition decides what a new submission does given the current attempt (nil when none exists).
func PlanTransition(current *Attempt) Transition {
	switch {
	case current == nil:
		return TransitionCreate
	case current.IsTerminal():
		return TransitionReject
	default:
		return TransitionRegrade
	}
}

// SubmitRequest is the payload of a student submission. Answers are positional;
// a null or empty entry is an unanswered question, and an absent array leaves every
// question unanswered.
type SubmitRequest struct {
	Answers []*string `json:"answers"`
}

// SubmissionResult is returned to the student after grading.
type SubmissionResult struct {
	ID             uuid.UUID `json:"id"`
	Score          int       `json:"score"`
	TotalPoints    int       `json:"totalPoints"`
	Percentage     string    `json:"percentage"`
	Passed         bool      `json:"passed"`
	CertificateURL *string   `json:"certificateUrl"`
}

// PreviousSubmission summarises a passed attempt shown instead of a new one.
type PreviousSubmission struct {
	Percentage     float64   `json:"percentage"`
	CertificateURL *string   `json:"certificateUrl"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// ViewResult is what a student sees when opening an exam.
type ViewResult struct {
	Exam               *ExamPayload        `json:"exam"`
	AlreadyPassed      bool                `json:"alreadyPassed,omitempty"`
	PreviousSubmission *PreviousSubmission `json:"previousSubmission,omitempty"`
}
