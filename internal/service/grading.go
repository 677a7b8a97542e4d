package service

import (
	"fmt"
	"math"

	"github.com/eduplatforme/exam-backend/internal/model"
)

// Grade is the deterministic outcome of scoring one submission.
type Grade struct {
	Answers     []model.Answer
	Score       int
	TotalPoints int
	Percentage  float64
	Passed      bool
}

// GradeSubmission scores answers positionally against the exam's questions.
// Answers beyond the last question are ignored; missing or empty ones score 0.
func GradeSubmission(exam *model.Exam, answers []*string) Grade {
	g := Grade{
		Answers:     make([]model.Answer, len(exam.Questions)),
		TotalPoints: exam.TotalPoints,
	}

	for i, q := range exam.Questions {
		g.Answers[i] = model.Answer{QuestionID: q.ID}
		if i >= len(answers) || answers[i] == nil || *answers[i] == "" {
			continue
		}
		given := *answers[i]
		g.Answers[i].Answer = given

		if isCorrect(q, given) {
			g.Answers[i].PointsAwarded = q.PointValue()
			g.Score += q.PointValue()
		}
	}

	if g.TotalPoints > 0 {
		g.Percentage = float64(g.Score) / float64(g.TotalPoints) * 100
	}
	g.Passed = g.Percentage >= exam.MinPassingScore
	return g
}

// Free-text answers are compared byte for byte: no trimming, no case folding.
func isCorrect(q model.Question, given string) bool {
	switch q.Type {
	case model.QuestionTypeMultipleChoice:
		opt := q.CorrectOption()
		return opt != nil && opt.Text == given
	case model.QuestionTypeTrueFalse, model.QuestionTypeText:
		return q.CorrectAnswer != "" && q.CorrectAnswer == given
	default:
		return false
	}
}

// FormatPercentage renders a percentage with two decimals.
func FormatPercentage(p float64) string {
	return fmt.Sprintf("%.2f", p)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
