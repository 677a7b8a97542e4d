package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduplatforme/exam-backend/internal/certificate"
	"github.com/eduplatforme/exam-backend/internal/middleware"
	"github.com/eduplatforme/exam-backend/internal/model"
	"github.com/eduplatforme/exam-backend/internal/response"
	"github.com/eduplatforme/exam-backend/internal/service"
	"github.com/eduplatforme/exam-backend/internal/storage"
	"github.com/eduplatforme/exam-backend/internal/validator"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	validator.Setup()
	os.Exit(m.Run())
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code   response.ErrCode  `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestWriteServiceError(t *testing.T) {
	url := "/certificates/certificate_x_1.pdf"
	cases := []struct {
		name   string
		err    error
		status int
		code   response.ErrCode
	}{
		{"validation", &service.ValidationError{Fields: map[string]string{"title": "requis"}}, http.StatusBadRequest, response.ErrValidation},
		{"role", service.ErrRoleNotPermitted, http.StatusForbidden, response.ErrRoleNotAllowed},
		{"not published", service.ErrExamNotPublished, http.StatusForbidden, response.ErrExamNotPublished},
		{"not available", service.ErrExamNotAvailable, http.StatusForbidden, response.ErrExamNotAvailable},
		{"over", service.ErrExamOver, http.StatusForbidden, response.ErrExamOver},
		{"filiere", service.ErrWrongFiliere, http.StatusForbidden, response.ErrWrongFiliere},
		{"owner", fmt.Errorf("update: %w", service.ErrNotExamOwner), http.StatusForbidden, response.ErrNotExamOwner},
		{"not passed", service.ErrAttemptNotPassed, http.StatusForbidden, response.ErrAttemptNotPassed},
		{"generic forbidden", service.ErrForbidden, http.StatusForbidden, response.ErrForbidden},
		{"already passed", &service.AlreadyPassedError{Percentage: 80, CertificateURL: &url}, http.StatusForbidden, response.ErrAlreadyPassed},
		{"exam missing", service.ErrExamNotFound, http.StatusNotFound, response.ErrExamNotFound},
		{"attempt missing", service.ErrAttemptNotFound, http.StatusNotFound, response.ErrAttemptNotFound},
		{"conflict", service.ErrAttemptConflict, http.StatusConflict, response.ErrConflict},
		{"certificate", &certificate.GenerationError{Stage: "render", Err: errors.New("boom")}, http.StatusInternalServerError, response.ErrCertificateFailed},
		{"unknown", errors.New("db down"), http.StatusInternalServerError, response.ErrInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			writeServiceError(c, zerolog.Nop(), tc.err)

			assert.Equal(t, tc.status, w.Code)
			env := decode(t, w)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
		})
	}
}

func TestWriteServiceErrorAlreadyPassedPayload(t *testing.T) {
	url := "/certificates/certificate_x_1.pdf"
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	writeServiceError(c, zerolog.Nop(), &service.AlreadyPassedError{Percentage: 83.33, CertificateURL: &url})

	var data struct {
		AlreadyPassed  bool    `json:"alreadyPassed"`
		PreviousScore  float64 `json:"previousScore"`
		CertificateURL *string `json:"certificateUrl"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.True(t, data.AlreadyPassed)
	assert.Equal(t, 83.33, data.PreviousScore)
	require.NotNil(t, data.CertificateURL)
	assert.Equal(t, url, *data.CertificateURL)
}

func withActor(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyClaims, &service.Claims{UserID: uuid.New(), Role: role})
		c.Next()
	}
}

func TestExamHandlerRejectsBadInput(t *testing.T) {
	h := NewExamHandler(nil, nil, zerolog.Nop())
	r := gin.New()
	r.POST("/exams", withActor(model.RoleTeacher), h.CreateExam)
	r.POST("/exams/:id/submit", withActor(model.RoleStudent), h.SubmitExam)
	r.GET("/exams/:id", withActor(model.RoleStudent), h.GetExam)
	r.GET("/exams", withActor(model.RoleTeacher), h.ListExams)

	t.Run("create missing fields", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/exams", strings.NewReader(`{"description":"x"}`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decode(t, w)
		require.NotNil(t, env.Error)
		assert.Equal(t, response.ErrValidation, env.Error.Code)
		assert.Contains(t, env.Error.Fields, "title")
		assert.Contains(t, env.Error.Fields, "questions")
	})

	t.Run("submit with malformed answers", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/exams/"+uuid.NewString()+"/submit", strings.NewReader(`{"answers":"B"}`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode(t, w).Error.Fields, "detail")
	})

	t.Run("invalid id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exams/not-a-uuid", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, response.ErrInvalidID, decode(t, w).Error.Code)
	})

	t.Run("invalid filter", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exams?isPublished=maybe", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetCertificate(t *testing.T) {
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	name := certificate.Filename(uuid.New(), time.Now())
	require.NoError(t, store.Put(context.Background(), name, []byte("%PDF-1.4 body"), "application/pdf"))

	h := NewCertificateHandler(store, zerolog.Nop())
	r := gin.New()
	r.GET("/certificates/:filename", h.GetCertificate)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/certificates/"+name, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.4 body", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/certificates/"+certificate.Filename(uuid.New(), time.Now()), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.ErrCertificateNotFound, decode(t, w).Error.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/certificates/evil.pdf", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	down := errors.New("unreachable")
	r := gin.New()
	r.GET("/ok", NewHealthHandler(map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
	}, func(context.Context) (int64, error) { return 3, nil }, zerolog.Nop()).Health)
	r.GET("/down", NewHealthHandler(map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return down },
	}, nil, zerolog.Nop()).Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"certificateQueue":3`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/down", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"down"`)
}
