package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/eduplatforme/exam-backend/internal/certificate"
	"github.com/eduplatforme/exam-backend/internal/response"
	"github.com/eduplatforme/exam-backend/internal/storage"
)

// CertificateHandler serves rendered certificate PDFs.
type CertificateHandler struct {
	store storage.Provider
	log   zerolog.Logger
}

// NewCertificateHandler creates a new CertificateHandler.
func NewCertificateHandler(store storage.Provider, log zerolog.Logger) *CertificateHandler {
	return &CertificateHandler{
		store: store,
		log:   log.With().Str("component", "certificate_handler").Logger(),
	}
}

// GetCertificate godoc
// GET /certificates/:filename
// Streams a certificate PDF. Only names produced by the issuer are accepted.
func (h *CertificateHandler) GetCertificate(c *gin.Context) {
	name := c.Param("filename")
	if !certificate.ValidFilename(name) {
		response.Fail(c, http.StatusNotFound, response.ErrCertificateNotFound)
		return
	}

	obj, err := h.store.Open(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrCertificateNotFound)
			return
		}
		h.log.Error().Err(err).Str("file", name).Msg("Failed to open certificate")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	defer obj.Close()

	c.DataFromReader(http.StatusOK, obj.Size, "application/pdf", obj, map[string]string{
		"Content-Disposition": fmt.Sprintf(`inline; filename="%s"`, name),
	})
}
