package router

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/anonto42/folio/backend/internal/handlers"
	"github.com/anonto42/folio/backend/internal/identity"
	"github.com/anonto42/folio/backend/internal/mailer"
	"github.com/anonto42/folio/backend/internal/middleware"
	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/internal/repositories"
	"github.com/anonto42/folio/backend/internal/services"
	"github.com/anonto42/folio/backend/internal/snapshot"
	"github.com/anonto42/folio/backend/pkg/config"
	"github.com/anonto42/folio/backend/pkg/firebase"
)

// App holds the services that run outside request handling
type App struct {
	Appointments *services.AppointmentService
}

// Options carries the optional collaborators of SetupRoutes
type Options struct {
	Firebase *firebase.App // nil disables Firebase login
	Mailer   mailer.Mailer // nil picks one from the config
}

// snapshotStore uses Redis when it is configured and process memory otherwise
func snapshotStore(cfg *config.Config, db *config.DB, log *zap.Logger) snapshot.Store {
	if db.Redis != nil {
		log.Info("Snapshot store: redis", zap.String("prefix", cfg.Redis.Prefix))
		return snapshot.NewRedisStore(db.Redis, cfg.Redis.Prefix)
	}
	log.Warn("Snapshot store: memory, fallback writes will not survive a restart")
	return snapshot.NewMemoryStore()
}

// postRepository keeps posts in MongoDB when it is configured and in the snapshot store otherwise
func postRepository(ctx context.Context, cfg *config.Config, db *config.DB, store snapshot.Store, log *zap.Logger) (repositories.PostRepository, error) {
	if db.Mongo == nil {
		log.Info("Post store: snapshot")
		return repositories.NewSnapshotPostRepository(store), nil
	}
	repo := repositories.NewMongoPostRepository(db.Mongo.Database(cfg.Database.MongoDatabase))
	if err := repo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create post indexes: %w", err)
	}
	log.Info("Post store: mongo", zap.String("database", cfg.Database.MongoDatabase))
	return repo, nil
}

// SetupRoutes migrates the schema, wires repositories and services, and registers every route
func SetupRoutes(ctx context.Context, e *echo.Echo, cfg *config.Config, db *config.DB, opts Options, log *zap.Logger) (*App, error) {
	if err := repositories.Migrate(db.SQL); err != nil {
		return nil, fmt.Errorf("failed to auto migrate models: %w", err)
	}
	log.Info("Database migrations completed")

	// --- Repositories ---
	store := snapshotStore(cfg, db, log)
	userRepo := repositories.NewPostgresUserRepository(db.SQL)
	notificationRepo := repositories.NewPostgresNotificationRepository(db.SQL)
	subscriptionRepo := repositories.NewPostgresSubscriptionRepository(db.SQL)
	templateRepo := repositories.NewPostgresTemplateRepository(db.SQL)
	appointmentRepo := repositories.NewFallbackAppointmentRepository(
		repositories.NewPostgresAppointmentRepository(db.SQL),
		repositories.NewSnapshotAppointmentRepository(store),
		log.With(zap.String("component", "appointments")))
	portfolioRepo := repositories.NewFallbackPortfolioRepository(
		repositories.NewPostgresPortfolioRepository(db.SQL),
		repositories.NewSnapshotPortfolioRepository(store),
		log.With(zap.String("component", "portfolios")))
	postRepo, err := postRepository(ctx, cfg, db, store, log)
	if err != nil {
		return nil, err
	}

	if err := templateRepo.Seed(ctx, models.DefaultTemplates()); err != nil {
		return nil, fmt.Errorf("failed to seed templates: %w", err)
	}

	// --- Services ---
	mail := opts.Mailer
	if mail == nil {
		mail = mailer.New(cfg, log)
	}
	resolver := identity.NewResolver(userRepo)
	notificationService := services.NewNotificationService(notificationRepo, log)
	engagementService := services.NewEngagementService(postRepo, subscriptionRepo, resolver, notificationService, log)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, resolver, notificationService)
	portfolioService := services.NewPortfolioService(portfolioRepo, templateRepo, log)
	appointmentService := services.NewAppointmentService(appointmentRepo, portfolioRepo, resolver,
		notificationService, mail, &cfg.Appointment, log)

	auth := middleware.NewAuthenticator(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	var verifier middleware.FirebaseVerifier
	if opts.Firebase != nil {
		verifier = opts.Firebase
		auth.WithFirebase(opts.Firebase, userRepo)
	}

	// --- Operational routes ---
	health := handlers.NewHealthHandler(healthChecks(db))
	e.GET("/health", health.Health)
	if cfg.Telemetry.Enabled && cfg.Telemetry.PrometheusEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	handlers.NewAuthHandler(userRepo, auth, verifier, log).RegisterAuthRoutes(authGroup)

	// --- Public routes, a token is optional ---
	public := e.Group("/api/v1", auth.Optional())
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService)
	portfolioHandler.RegisterPublicRoutes(e, public)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentService)
	appointmentHandler.RegisterBookingRoute(public, config.BookingRateLimiter(&cfg.Server))

	// --- Protected routes ---
	api := e.Group("/api/v1", auth.Required())
	handlers.NewUserHandler(userRepo, subscriptionService).RegisterProfileRoutes(api)
	handlers.NewPostHandler(engagementService).RegisterPostRoutes(api)
	handlers.NewLikeHandler(engagementService).RegisterLikeRoutes(api)
	handlers.NewCommentHandler(engagementService).RegisterCommentRoutes(api)
	handlers.NewFeedHandler(engagementService).RegisterFeedRoutes(api)
	handlers.NewSubscriptionHandler(subscriptionService).RegisterSubscriptionRoutes(api)
	handlers.NewNotificationHandler(notificationService).RegisterNotificationRoutes(api)
	appointmentHandler.RegisterAppointmentRoutes(api)
	portfolioHandler.RegisterPortfolioRoutes(api)

	log.Info("All routes configured", zap.Int("routes", len(e.Routes())))
	return &App{Appointments: appointmentService}, nil
}

func healthChecks(db *config.DB) map[string]handlers.HealthCheck {
	checks := map[string]handlers.HealthCheck{
		"sql": func(ctx context.Context) error {
			sqlDB, err := db.SQL.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if db.Mongo != nil {
		checks["mongo"] = func(ctx context.Context) error { return db.Mongo.Ping(ctx, nil) }
	}
	if db.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return db.Redis.Ping(ctx).Err() }
	}
	return checks
}
