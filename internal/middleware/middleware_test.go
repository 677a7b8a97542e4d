package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduplatforme/exam-backend/internal/config"
	"github.com/eduplatforme/exam-backend/internal/model"
	"github.com/eduplatforme/exam-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testAuth() *service.AuthService {
	return service.NewAuthService(&config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour, BcryptCost: 4})
}

func guarded(auth *service.AuthService, roles ...model.Role) *gin.Engine {
	r := gin.New()
	r.GET("/p", RequireJWT(auth), RequireRole(roles...), func(c *gin.Context) {
		actor, ok := Actor(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, actor.ID.String())
	})
	return r
}

func TestRequireJWT(t *testing.T) {
	auth := testAuth()
	r := guarded(auth, model.RoleStudent, model.RoleTeacher)
	id := uuid.New()
	token, err := auth.GenerateToken(id, model.RoleStudent)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing", "", http.StatusUnauthorized, "TOKEN_REQUIRED"},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized, "TOKEN_REQUIRED"},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized, "TOKEN_INVALID"},
		{"valid", "Bearer " + token, http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/p", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.code != "" {
				assert.Contains(t, w.Body.String(), tc.code)
			} else {
				assert.Equal(t, id.String(), w.Body.String())
			}
		})
	}
}

func TestRequireJWT_OtherSecretRejected(t *testing.T) {
	other := service.NewAuthService(&config.Config{JWTSecret: "other", JWTExpiry: time.Hour})
	token, err := other.GenerateToken(uuid.New(), model.RoleTeacher)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	guarded(testAuth(), model.RoleTeacher).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_INVALID")
}

func TestRequireRole(t *testing.T) {
	auth := testAuth()
	token, err := auth.GenerateToken(uuid.New(), model.RoleStudent)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	guarded(auth, model.RoleTeacher).ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "TEACHER_ACCESS_ONLY")
}

func TestRequireWSAuth(t *testing.T) {
	auth := testAuth()
	r := gin.New()
	r.GET("/ws", RequireWSAuth(auth), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := auth.GenerateToken(uuid.New(), model.RoleTeacher)
	require.NoError(t, err)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 2, time.Minute)
	now := time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.POST("/submit", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.2"), "buckets are per IP")

	now = now.Add(30 * time.Second)
	assert.Equal(t, http.StatusOK, hit("10.0.0.1"), "one token refills every interval/burst")

	now = now.Add(visitorTTL + time.Second)
	rl.cleanup()
	rl.mu.Lock()
	assert.Empty(t, rl.visitors)
	rl.mu.Unlock()
}

func TestBrotli(t *testing.T) {
	big := strings.Repeat("compressible text ", 200)

	r := gin.New()
	r.Use(Brotli())
	r.GET("/text", func(c *gin.Context) { c.String(http.StatusOK, big) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/pdf", func(c *gin.Context) { c.Data(http.StatusOK, "application/pdf", []byte(big)) })

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept-Encoding", "gzip, br")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := get("/text")
	assert.Equal(t, "br", w.Header().Get("Content-Encoding"))
	plain, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
	require.NoError(t, err)
	assert.Equal(t, big, string(plain))

	w = get("/small")
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "ok", w.Body.String())

	w = get("/pdf")
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, big, w.Body.String())
}
