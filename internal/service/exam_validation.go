package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/eduplatforme/exam-backend/internal/model"
)

// buildQuestions turns authoring input into stored questions, assigning ids and
// defaults, and records every problem under questions[i].field.
func buildQuestions(in []model.QuestionInput, fields map[string]string) []model.Question {
	if len(in) == 0 {
		fields["questions"] = "au moins une question est requise"
		return nil
	}

	out := make([]model.Question, len(in))
	for i, qi := range in {
		prefix := fmt.Sprintf("questions[%d]", i)
		q := model.Question{
			ID:            uuid.New(),
			Prompt:        qi.Prompt,
			Type:          model.QuestionType(qi.Type),
			Options:       qi.Options,
			Points:        model.DefaultQuestionPoints,
			CorrectAnswer: qi.CorrectAnswer,
		}
		if qi.ID != nil && *qi.ID != uuid.Nil {
			q.ID = *qi.ID
		}
		if q.Type == "" {
			q.Type = model.QuestionTypeMultipleChoice
		}
		if qi.Points != nil {
			if *qi.Points < 1 {
				fields[prefix+".points"] = "doit être supérieur ou égal à 1"
			}
			q.Points = *qi.Points
		}
		if strings.TrimSpace(q.Prompt) == "" {
			fields[prefix+".question"] = "l'énoncé est requis"
		}

		switch q.Type {
		case model.QuestionTypeMultipleChoice:
			validateOptions(q.Options, prefix, fields)
			q.CorrectAnswer = ""
		case model.QuestionTypeTrueFalse, model.QuestionTypeText:
			if q.CorrectAnswer == "" {
				fields[prefix+".correctAnswer"] = "la réponse correcte est requise"
			}
			q.Options = nil
		default:
			fields[prefix+".type"] = "type de question inconnu"
		}
		out[i] = q
	}
	return out
}

func validateOptions(opts []model.Option, prefix string, fields map[string]string) {
	if len(opts) < 2 {
		fields[prefix+".options"] = "au moins deux options sont requises"
		return
	}
	correct := 0
	for j, o := range opts {
		if o.Text == "" {
			fields[fmt.Sprintf("%s.options[%d].text", prefix, j)] = "le texte de l'option est requis"
		}
		if o.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		fields[prefix+".options"] = "exactement une option doit être correcte"
	}
}

// validateExam checks the exam-level invariants that hold after create or patch.
func validateExam(e *model.Exam, fields map[string]string) {
	if strings.TrimSpace(e.Title) == "" {
		fields["title"] = "le titre est requis"
	}
	if e.FiliereID == uuid.Nil {
		fields["filiere"] = "la filière est requise"
	}
	if e.DurationMinutes <= 0 {
		fields["duration"] = "la durée doit être positive"
	}
	if e.StartDate.IsZero() {
		fields["startDate"] = "la date de début est requise"
	}
	if e.EndDate.IsZero() {
		fields["endDate"] = "la date de fin est requise"
	}
	if e.MinPassingScore < 0 || e.MinPassingScore > 100 {
		fields["minPassingScore"] = "doit être compris entre 0 et 100"
	}
}
