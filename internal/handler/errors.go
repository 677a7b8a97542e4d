package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/eduplatforme/exam-backend/internal/certificate"
	"github.com/eduplatforme/exam-backend/internal/response"
	"github.com/eduplatforme/exam-backend/internal/service"
)

// forbiddenCodes maps each state or ownership denial to its response code.
var forbiddenCodes = []struct {
	err  error
	code response.ErrCode
}{
	{service.ErrExamNotPublished, response.ErrExamNotPublished},
	{service.ErrExamNotAvailable, response.ErrExamNotAvailable},
	{service.ErrExamOver, response.ErrExamOver},
	{service.ErrWrongFiliere, response.ErrWrongFiliere},
	{service.ErrNotExamOwner, response.ErrNotExamOwner},
	{service.ErrAttemptNotPassed, response.ErrAttemptNotPassed},
}

// writeServiceError translates a service error into the response envelope.
// Anything unrecognised is logged and reported as a 500.
func writeServiceError(c *gin.Context, log zerolog.Logger, err error) {
	var (
		verr   *service.ValidationError
		passed *service.AlreadyPassedError
		gerr   *certificate.GenerationError
	)

	switch {
	case errors.As(err, &verr):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, verr.Fields)
	case errors.As(err, &passed):
		response.FailWithData(c, http.StatusForbidden, response.ErrAlreadyPassed, gin.H{
			"alreadyPassed":  true,
			"previousScore":  passed.Percentage,
			"certificateUrl": passed.CertificateURL,
		})
	case errors.Is(err, service.ErrRoleNotPermitted):
		response.Fail(c, http.StatusForbidden, response.ErrRoleNotAllowed)
	case errors.Is(err, service.ErrForbidden):
		for _, fc := range forbiddenCodes {
			if errors.Is(err, fc.err) {
				response.Fail(c, http.StatusForbidden, fc.code)
				return
			}
		}
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrExamNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
	case errors.Is(err, service.ErrAttemptNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
	case errors.Is(err, service.ErrAttemptConflict):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.As(err, &gerr):
		log.Error().Err(err).Str("stage", gerr.Stage).Str("request_id", response.RequestID(c)).Msg("Certificate generation failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrCertificateFailed)
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Str("request_id", response.RequestID(c)).Msg("Unhandled service error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
