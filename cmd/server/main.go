package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anonto42/folio/backend/internal/jobs"
	"github.com/anonto42/folio/backend/internal/router"
	"github.com/anonto42/folio/backend/internal/validators"
	"github.com/anonto42/folio/backend/pkg/config"
	"github.com/anonto42/folio/backend/pkg/firebase"
	"github.com/anonto42/folio/backend/pkg/logging"
	"github.com/anonto42/folio/backend/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.InitLogger(&cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger := logging.GetLogger()
	defer func() { _ = logger.Sync() }()

	shutdownTelemetry, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer shutdownTelemetry()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB(logger)

	firebaseApp, err := firebase.InitFirebase(ctx, cfg.Auth.FirebaseCredentialsPath)
	if err != nil {
		logger.Fatal("Failed to initialize Firebase", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	config.SetupMiddleware(e, logger)

	app, err := router.SetupRoutes(ctx, e, cfg, db, router.Options{Firebase: firebaseApp}, logger)
	if err != nil {
		logger.Fatal("Failed to set up routes", zap.Error(err))
	}

	scheduler := jobs.NewScheduler(cfg.Appointment.ReconcileSchedule, app.Appointments,
		logging.WithComponent("scheduler"))
	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	scheduler.Stop(shutdownCtx)
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}
