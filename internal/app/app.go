package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/temcen/stayrank/internal/config"
	"github.com/temcen/stayrank/internal/database"
	"github.com/temcen/stayrank/internal/handlers"
	"github.com/temcen/stayrank/internal/middleware"
	"github.com/temcen/stayrank/internal/services"
	"github.com/temcen/stayrank/internal/storage"
)

const schemaTimeout = 30 * time.Second

type App struct {
	config   *config.Config
	logger   *logrus.Logger
	db       *database.Database
	services *services.Services
	handlers *handlers.Handlers
	router   *gin.Engine

	stopConsumer context.CancelFunc
	consumerDone chan struct{}
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: setupLogger(cfg),
	}

	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()
	if err := storage.EnsureSchema(ctx, db.PG); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	svcs, err := services.New(cfg, app.logger, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.services = svcs

	app.handlers = handlers.New(app.logger, svcs, cfg)
	app.setupRouter()

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// StartConsumer runs the interaction consumer until Shutdown is called.
func (a *App) StartConsumer() {
	ctx, cancel := context.WithCancel(context.Background())
	a.stopConsumer = cancel
	a.consumerDone = make(chan struct{})

	go func() {
		defer close(a.consumerDone)
		a.logger.Info("Starting interaction consumer")
		if err := a.services.ConsumeInteractions(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.WithError(err).Error("Interaction consumer stopped")
		}
	}()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	if a.stopConsumer != nil {
		a.stopConsumer()
		select {
		case <-a.consumerDone:
		case <-ctx.Done():
			a.logger.Warn("Interaction consumer did not stop before the shutdown deadline")
		}
	}

	var errs []error
	if err := a.services.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing services")
		errs = append(errs, err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config))

	router.GET("/health", a.handlers.Health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		rateLimit := middleware.RateLimit(a.services.RateLimit, a.logger)

		// Trending is anonymous
		api.GET("/trending", rateLimit, a.handlers.Recommendation.Trending)

		authed := api.Group("")
		authed.Use(middleware.Auth(a.services.Auth, a.logger))
		authed.Use(rateLimit)

		authed.GET("/recommendations/:userId", middleware.RequireSelfOrAdmin("userId"), a.handlers.Recommendation.Get)

		validateEvent := middleware.ValidateInteractionBody(a.services.Validator)
		interactions := authed.Group("/interactions")
		{
			interactions.POST("", validateEvent, a.handlers.Interaction.Track)
			interactions.POST("/async", validateEvent, a.handlers.Interaction.TrackAsync)
			interactions.POST("/batch", a.handlers.Interaction.TrackBatch)
		}

		users := authed.Group("/users/:userId", middleware.RequireSelfOrAdmin("userId"))
		{
			users.GET("/behavior", a.handlers.User.GetBehavior)
			users.PUT("/preferences", a.handlers.User.UpdatePreferences)
		}

		admin := authed.Group("/admin", middleware.RequireRole(services.RoleAdmin))
		{
			admin.GET("/recommendation-config", a.handlers.Admin.GetRecommendationConfig)
			admin.GET("/ingestion", a.handlers.Admin.GetIngestionStats)
		}
	}

	a.router = router
}
