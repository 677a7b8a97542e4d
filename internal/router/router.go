package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/eduplatforme/exam-backend/internal/config"
	"github.com/eduplatforme/exam-backend/internal/handler"
	"github.com/eduplatforme/exam-backend/internal/metrics"
	"github.com/eduplatforme/exam-backend/internal/middleware"
	"github.com/eduplatforme/exam-backend/internal/model"
	"github.com/eduplatforme/exam-backend/internal/response"
	"github.com/eduplatforme/exam-backend/internal/service"
)

// certificateMaxAge is how long clients may cache a rendered certificate (30 days).
const certificateMaxAge = 30 * 24 * 60 * 60

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Exam        *handler.ExamHandler
	Certificate *handler.CertificateHandler
	ResultsWS   *handler.ResultsWSHandler
	Health      *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background goroutines owned by middlewares.
func SetupRouter(
	ctx context.Context,
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(metrics.Middleware())
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.Health.Health)
	router.GET("/metrics", metrics.Handler())

	// ─── Certificates (public, unguessable filenames) ──────────────────
	router.GET("/certificates/:filename",
		middleware.CacheControl(certificateMaxAge),
		handlers.Certificate.GetCertificate,
	)

	submitLimiter := middleware.NewRateLimiter(ctx, cfg.SubmitRateLimit, time.Minute)

	// ─── Exams (JWT) ───────────────────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireJWT(authService))
	{
		exams := api.Group("/exams")
		exams.GET("", middleware.RequireRole(model.RoleStudent, model.RoleTeacher), handlers.Exam.ListExams)
		exams.GET("/:id", middleware.RequireRole(model.RoleStudent, model.RoleTeacher), handlers.Exam.GetExam)
		exams.GET("/:id/results", middleware.RequireRole(model.RoleStudent, model.RoleTeacher), handlers.Exam.GetResults)

		exams.POST("", middleware.RequireRole(model.RoleTeacher), handlers.Exam.CreateExam)
		exams.PUT("/:id", middleware.RequireRole(model.RoleTeacher), handlers.Exam.UpdateExam)
		exams.DELETE("/:id", middleware.RequireRole(model.RoleTeacher), handlers.Exam.DeleteExam)

		// The attempt engine checks the student role itself, after the exam exists,
		// so an unknown exam is a 404 whoever asks.
		exams.POST("/:id/submit", submitLimiter.Middleware(), handlers.Exam.SubmitExam)
		exams.POST("/:id/certificate", handlers.Exam.IssueCertificate)
	}

	// ─── WebSocket (token in query) ────────────────────────────────────
	wsGroup := router.Group("/ws/v1")
	wsGroup.Use(middleware.RequireWSAuth(authService), middleware.RequireRole(model.RoleTeacher))
	{
		wsGroup.GET("/exams/:id/results", handlers.ResultsWS.StreamResults)
	}

	return router
}
