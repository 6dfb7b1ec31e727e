package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/busseva/busseva-backend/internal/config"
	"github.com/busseva/busseva-backend/internal/database"
	"github.com/busseva/busseva-backend/internal/handler"
	"github.com/busseva/busseva-backend/internal/logger"
	"github.com/busseva/busseva-backend/internal/repository"
	"github.com/busseva/busseva-backend/internal/router"
	"github.com/busseva/busseva-backend/internal/service"
	"github.com/busseva/busseva-backend/internal/storage"
	"github.com/busseva/busseva-backend/internal/validator"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("env", cfg.AppEnv).
		Str("storage", cfg.StorageBackend).
		Str("log_level", cfg.LogLevel).
		Msg("Starting BusSeva Backend")

	if cfg.JWTSecret == "change-this-to-a-secure-random-string" && !cfg.IsDevelopment() {
		log.Warn().Msg("JWT_SECRET is the built-in default; set a secret before exposing this server")
	}

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	// The pool connects lazily; an unreachable database does not stop
	// the server from starting.
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid PostgreSQL configuration")
	}
	defer pool.Close()

	// ─── Initialize Blob Storage ───────────────────────────────────────
	var blobs storage.BlobStore
	switch cfg.StorageBackend {
	case config.StorageS3:
		s3Store, err := storage.NewS3Store(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 storage")
		}
		blobs = s3Store
	default:
		blobs = storage.NewLocalStore(cfg.UploadDir, cfg.UploadURLPath)
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	adminRepo := repository.NewAdminRepository(pool)
	busRepo := repository.NewBusRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, adminRepo)
	adminService := service.NewAdminService(cfg, adminRepo, log)
	mediaService := service.NewMediaService(cfg, blobs)
	busService := service.NewBusService(busRepo, mediaService, log)

	// ─── Store Bootstrap ───────────────────────────────────────────────
	var steps []service.BootstrapStep
	if cfg.AutoMigrate {
		steps = append(steps, service.BootstrapStep{
			Name: "migrations",
			Run:  func(ctx context.Context) error { return database.Migrate(ctx, cfg.DatabaseURL) },
		})
	}
	steps = append(steps, service.BootstrapStep{Name: "default admin", Run: adminService.EnsureDefaultAdmin})
	bootstrap := service.NewBootstrapper(log, steps...)

	// Attempt once now; requests retry until it succeeds.
	bootCtx, bootCancel := context.WithTimeout(ctx, 15*time.Second)
	if err := bootstrap.Ensure(bootCtx); err != nil {
		log.Error().Err(err).Msg("Store bootstrap failed, will retry on demand")
	}
	bootCancel()

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:   handler.NewAuthHandler(authService, adminService, log),
		Bus:    handler.NewBusHandler(busService, cfg.MaxUploadBytes, log),
		System: handler.NewSystemHandler(pool, bootstrap.Ready, cfg.FrontendDir, log),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(router.Deps{
		Auth:      authService,
		Bootstrap: bootstrap,
		Log:       log,
	}, handlers, cfg)

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

	// Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
