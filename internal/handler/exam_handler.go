package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eduplatforme/exam-backend/internal/middleware"
	"github.com/eduplatforme/exam-backend/internal/model"
	"github.com/eduplatforme/exam-backend/internal/response"
	"github.com/eduplatforme/exam-backend/internal/service"
	"github.com/eduplatforme/exam-backend/internal/validator"
)

// ExamHandler handles exam definition and attempt endpoints.
type ExamHandler struct {
	examService    *service.ExamService
	attemptService *service.AttemptService
	log            zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, attemptService *service.AttemptService, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		examService:    examService,
		attemptService: attemptService,
		log:            log.With().Str("component", "exam_handler").Logger(),
	}
}

// CreateExam godoc
// POST /api/v1/exams
// Creates an exam owned by the calling teacher.
func (h *ExamHandler) CreateExam(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// ListExams godoc
// GET /api/v1/exams?filiere=<uuid>&isPublished=<bool>
// Students get the published exams of their filière; teachers get their own exams.
func (h *ExamHandler) ListExams(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var filter model.ExamFilter
	if raw := c.Query("filiere"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		filter.FiliereID = &id
	}
	if raw := c.Query("isPublished"); raw != "" {
		published, err := strconv.ParseBool(raw)
		if err != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"isPublished": "isPublished doit être un booléen"})
			return
		}
		filter.IsPublished = &published
	}

	exams, err := h.examService.List(c.Request.Context(), actor, filter)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"count": len(exams), "exams": exams})
}

// GetExam godoc
// GET /api/v1/exams/:id
// Students get the answer-free payload (or their passed submission); the owner gets the full exam.
func (h *ExamHandler) GetExam(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	if actor.Role == model.RoleTeacher {
		exam, err := h.examService.GetOwned(c.Request.Context(), actor, examID)
		if err != nil {
			writeServiceError(c, h.log, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"exam": exam})
		return
	}

	view, err := h.attemptService.ViewExam(c.Request.Context(), actor, examID)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// UpdateExam godoc
// PUT /api/v1/exams/:id
// Applies a partial update. Owner only.
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Update(c.Request.Context(), actor, examID, &req)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// DeleteExam godoc
// DELETE /api/v1/exams/:id
// Deletes the exam and all of its attempts. Owner only.
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), actor, examID); err != nil {
		writeServiceError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Examen supprimé avec succès"})
}

// SubmitExam godoc
// POST /api/v1/exams/:id/submit
// Grades the student's answers and records them on their single attempt.
func (h *ExamHandler) SubmitExam(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	var req model.SubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.attemptService.Submit(c.Request.Context(), actor, examID, req.Answers)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"submission": result})
}

// GetResults godoc
// GET /api/v1/exams/:id/results
// Students get their own attempt; the owner gets every submission with statistics.
func (h *ExamHandler) GetResults(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	res, err := h.attemptService.GetResults(c.Request.Context(), actor, examID)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}

	if res.Student != nil {
		response.Success(c, http.StatusOK, res.Student)
		return
	}
	response.Success(c, http.StatusOK, res.Teacher)
}

// IssueCertificate godoc
// POST /api/v1/exams/:id/certificate
// Re-runs certificate issuance for a passed attempt that has none yet.
func (h *ExamHandler) IssueCertificate(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	url, err := h.attemptService.IssueCertificate(c.Request.Context(), actor, examID)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}

	status := http.StatusOK
	if url == nil {
		// Queued for the background worker.
		status = http.StatusAccepted
	}
	response.Success(c, status, gin.H{"certificateUrl": url})
}

func parseExamID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
