package model

import "github.com/google/uuid"

// QuestionType enumerates the supported question variants.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeText           QuestionType = "text"
)

// DefaultQuestionPoints is awarded to a question whose points value is unset.
const DefaultQuestionPoints = 1

// Option is one choice of a multiple-choice question.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question is embedded in an Exam; it is not addressable on its own.
type Question struct {
	ID            uuid.UUID    `json:"id"`
	Prompt        string       `json:"question"`
	Type          QuestionType `json:"type"`
	Options       []Option     `json:"options,omitempty"`
	Points        int          `json:"points"`
	CorrectAnswer string       `json:"correctAnswer,omitempty"`
}

// PointValue returns the points the question is worth, defaulting to 1.
func (q Question) PointValue() int {
	if q.Points < 1 {
		return DefaultQuestionPoints
	}
	return q.Points
}

// CorrectOption returns the first option flagged correct, or nil when none is.
func (q Question) CorrectOption() *Option {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i]
		}
	}
	return nil
}

// QuestionInput is the authoring payload for one question.
type QuestionInput struct {
	ID            *uuid.UUID `json:"id" binding:"omitempty"`
	Prompt        string     `json:"question" binding:"required,max=2000"`
	Type          string     `json:"type" binding:"omitempty,oneof=multiple_choice true_false text"`
	Options       []Option   `json:"options" binding:"omitempty,dive"`
	Points        *int       `json:"points" binding:"omitempty,min=1"`
	CorrectAnswer string     `json:"correctAnswer" binding:"omitempty,max=2000"`
}

// QuestionForStudent is a question without its answer key, sent to students.
type QuestionForStudent struct {
	ID      uuid.UUID    `json:"id"`
	Prompt  string       `json:"question"`
	Type    QuestionType `json:"type"`
	Options []string     `json:"options,omitempty"`
	Points  int          `json:"points"`
}
