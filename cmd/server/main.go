package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduplatforme/exam-backend/internal/certificate"
	"github.com/eduplatforme/exam-backend/internal/config"
	"github.com/eduplatforme/exam-backend/internal/database"
	"github.com/eduplatforme/exam-backend/internal/handler"
	"github.com/eduplatforme/exam-backend/internal/logger"
	"github.com/eduplatforme/exam-backend/internal/metrics"
	"github.com/eduplatforme/exam-backend/internal/repository"
	"github.com/eduplatforme/exam-backend/internal/router"
	"github.com/eduplatforme/exam-backend/internal/service"
	"github.com/eduplatforme/exam-backend/internal/storage"
	"github.com/eduplatforme/exam-backend/internal/validator"
	"github.com/eduplatforme/exam-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("certificate_mode", cfg.CertificateMode).
		Str("storage_driver", cfg.Storage.Driver).
		Msg("Starting EduPlateforme exam backend")

	// ─── Initialize Validator & Metrics ────────────────────────────────
	validator.Setup()
	metrics.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Certificate Storage ───────────────────────────────────────────
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize certificate storage")
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	examRepo := repository.NewExamRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	filiereRepo := repository.NewFiliereRepository(pool)
	examCache := repository.NewExamCacheRepository(rdb)
	resultChannel := repository.NewResultChannelRepository(rdb)
	certQueue := repository.NewCertificateQueueRepository(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	examService := service.NewExamService(examRepo, examCache, userRepo, filiereRepo, log)
	certService := service.NewCertificateService(examRepo, attemptRepo, userRepo, filiereRepo,
		certificate.NewIssuer(store, log), log)

	var dispatcher service.CertificateDispatcher = certService
	queued := cfg.CertificateMode == config.CertificateModeQueue
	if queued {
		dispatcher = service.NewQueuedCertificates(certQueue, log)
	}
	attemptService := service.NewAttemptService(examRepo, attemptRepo, userRepo, examService,
		dispatcher, resultChannel, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	var queueDepth handler.QueueDepth
	if queued {
		queueDepth = certQueue.Len
	}
	handlers := &router.Handlers{
		Exam:        handler.NewExamHandler(examService, attemptService, log),
		Certificate: handler.NewCertificateHandler(store, log),
		ResultsWS:   handler.NewResultsWSHandler(examService, resultChannel, log, cfg.AllowedOrigins),
		Health: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}, queueDepth, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	if queued {
		certWorker := worker.NewCertificateWorker(certQueue, certService, log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			certWorker.Start(workerCtx)
		}()
	}

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load all published exams into Redis BEFORE accepting traffic.
	if err := examService.PrewarmAllCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers; a job in flight finishes first.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
