package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/eduplatforme/exam-backend/internal/response"
)

const healthTimeout = 2 * time.Second

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// QueueDepth reports how many certificate jobs are waiting.
type QueueDepth func(ctx context.Context) (int64, error)

// HealthHandler reports dependency reachability and process stats.
type HealthHandler struct {
	checks    map[string]HealthCheck
	queue     QueueDepth
	startTime time.Time
	log       zerolog.Logger
}

// NewHealthHandler creates a new HealthHandler. queue may be nil when certificates are issued inline.
func NewHealthHandler(checks map[string]HealthCheck, queue QueueDepth, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		checks:    checks,
		queue:     queue,
		startTime: time.Now(),
		log:       log.With().Str("component", "health_handler").Logger(),
	}
}

// Health godoc
// GET /health
// Returns 200 when every dependency answers, 503 otherwise.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := "ok"
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
			deps[name] = "down"
			status = "degraded"
			continue
		}
		deps[name] = "up"
	}

	body := gin.H{
		"status":       status,
		"dependencies": deps,
		"uptime":       time.Since(h.startTime).Round(time.Second).String(),
		"goroutines":   runtime.NumGoroutine(),
	}
	if h.queue != nil {
		if n, err := h.queue(ctx); err == nil {
			body["certificateQueue"] = n
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	response.Success(c, code, body)
}
