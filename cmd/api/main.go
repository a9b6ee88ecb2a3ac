package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	migrate "github.com/rubenv/sql-migrate"

	pkgvalidator "github.com/johnquangdev/meeting-functions/pkg/validator"

	"github.com/johnquangdev/meeting-functions/internal/adapter/handler"
	"github.com/johnquangdev/meeting-functions/internal/adapter/repository"
	domainrepo "github.com/johnquangdev/meeting-functions/internal/domain/repositories"
	"github.com/johnquangdev/meeting-functions/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-functions/internal/infrastructure/database"
	httpmw "github.com/johnquangdev/meeting-functions/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-functions/internal/infrastructure/storage"
	aiuse "github.com/johnquangdev/meeting-functions/internal/usecase/ai"
	"github.com/johnquangdev/meeting-functions/internal/usecase/meeting"
	pkgai "github.com/johnquangdev/meeting-functions/pkg/ai"
	"github.com/johnquangdev/meeting-functions/pkg/config"
	"github.com/johnquangdev/meeting-functions/pkg/jwt"
	pkglogger "github.com/johnquangdev/meeting-functions/pkg/logger"
	"github.com/johnquangdev/meeting-functions/pkg/vexa"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := pkglogger.New(&cfg.Log, cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Register validator for request validation
	e.Validator = pkgvalidator.New()
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(logger)

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("http.request",
				zap.String("request_id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware. The embedding functions answer preflight themselves.
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		Skipper:      handler.IsEmbeddingRoute,
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "apikey", "x-client-info"},
	}))

	ctx := context.Background()

	// Meeting store. Functions that need it answer with a configuration
	// error while it is not configured.
	var meetingRepo domainrepo.MeetingRepository
	if cfg.StoreConfigured() {
		db, err := database.NewPostgresDB(cfg, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer database.CloseDB(db)

		// Production deployments manage schema with the admin migrate command
		if cfg.Database.AutoMigrate {
			if cfg.IsProduction() {
				logger.Fatal("DB_AUTO_MIGRATE is enabled in production; run meetfn-admin migrate up instead")
			}
			if _, err := database.Migrate(db, migrate.Up, 0, logger); err != nil {
				logger.Fatal("failed to apply migrations", zap.Error(err))
			}
		}

		meetingRepo = repository.NewMeetingRepository(db, logger)
	} else {
		logger.Warn("meeting store is not configured; store backed functions will fail")
	}

	meetingOpts := []meeting.Option{}

	// Duplicate start guard
	if cfg.BotStart.DedupWindow > 0 {
		if cfg.Redis.Addr != "" {
			redisClient, err := cache.NewRedisClient(ctx, cfg)
			if err != nil {
				logger.Fatal("failed to connect to redis", zap.Error(err))
			}
			defer redisClient.Close()
			meetingOpts = append(meetingOpts, meeting.WithStartGuard(cache.NewRedisGuard(redisClient, cfg.Redis.Prefix)))
		} else {
			store := cache.NewMemoryStore()
			defer store.Close()
			meetingOpts = append(meetingOpts, meeting.WithStartGuard(store))
		}
		logger.Info("bot start guard enabled", zap.Duration("window", cfg.BotStart.DedupWindow))
	}

	// Transcript archive
	if cfg.Storage.Enabled {
		archive, err := storage.NewMinIOClient(ctx, &cfg.Storage)
		if err != nil {
			logger.Fatal("failed to initialize transcript archive", zap.Error(err))
		}
		meetingOpts = append(meetingOpts, meeting.WithArchiver(archive))
	}

	// Upstream clients
	vexaClient := vexa.NewClient(&cfg.Vexa, cfg.Upstream.Timeout, logger)
	geminiClient := pkgai.NewGeminiClient(&cfg.Gemini, cfg.Upstream.Timeout, logger)

	// Services and handlers
	meetingService := meeting.NewService(vexaClient, meetingRepo, cfg, logger, meetingOpts...)
	aiService := aiuse.NewAIService(meetingRepo, geminiClient, logger)

	var authMW echo.MiddlewareFunc
	if cfg.Auth.JWTSecret != "" {
		authMW = httpmw.EchoAuth(jwt.NewManager(cfg.Auth.JWTSecret))
	} else {
		logger.Warn("AUTH_JWT_SECRET is not set; functions accept unauthenticated requests")
	}

	router := handler.NewRouter(cfg,
		handler.NewBotHandler(meetingService, logger),
		handler.NewSummaryHandler(aiService, logger),
		handler.NewEmbeddingHandler(aiService, logger),
		authMW,
	)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		logger.Info("starting server",
			zap.String("addr", addr),
			zap.String("environment", cfg.Server.Environment),
		)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("server stopped gracefully")
}
