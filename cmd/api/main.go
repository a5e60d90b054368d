package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/config"
	"github.com/noah-isme/classroom-api/internal/database"
	"github.com/noah-isme/classroom-api/internal/handler"
	"github.com/noah-isme/classroom-api/internal/identity"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/repository"
	"github.com/noah-isme/classroom-api/internal/router"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not set, caching and redis events disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	assistant, err := newAssistant(cfg, logger)
	if err != nil {
		log.Fatalf("failed to configure assistant: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, validate, logger)
	events := service.NewEventPublisher(redisClient, natsConn, cfg.EventChannel, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, redisClient, cfg.CacheTTL, logger)
	submissionService := service.NewSubmissionService(service.SubmissionServiceDeps{
		Submissions: submissionRepo,
		Assignments: assignmentRepo,
		Validator:   validate,
		Activity:    activityService,
		Events:      events,
		Cache:       redisClient,
		CacheTTL:    cfg.CacheTTL,
		Logger:      logger,
	})
	gradingService := service.NewGradingService(service.GradingServiceDeps{
		Submissions: submissionRepo,
		Validator:   validate,
		Activity:    activityService,
		Events:      events,
		Cache:       redisClient,
		CacheTTL:    cfg.CacheTTL,
		Logger:      logger,
	})
	assistService := service.NewAssistService(assistant, assignmentRepo, submissionRepo, validate, logger)
	analyticsService := service.NewAnalyticsService(repository.NewAnalyticsRepository(db), assignmentRepo, redisClient, cfg.CacheTTL, logger)

	if cfg.SeedOnStart {
		seedDemoData(cfg, service.NewSeedService(userRepo, assignmentRepo, submissionRepo, logger), logger)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowedOrigins: cfg.AllowedOrigins})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		GradingHandler:    handler.NewGradingHandler(gradingService, logger),
		AssistHandler:     handler.NewAssistHandler(assistService, logger),
		ActivityHandler:   handler.NewActivityHandler(activityService, logger),
		AnalyticsHandler:  handler.NewAnalyticsHandler(analyticsService, logger),
		HealthChecks:      healthChecks(db, redisClient),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		AssistLimiter:     middleware.RateLimit("assist", cfg.AssistRateLimit, cfg.AssistRateWindow),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func newAssistant(cfg config.Config, logger zerolog.Logger) (ai.Assistant, error) {
	switch cfg.AIProvider {
	case "openai":
		return ai.NewOpenAIAssistant(ai.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Logger:  logger,
		})
	case "none", "disabled":
		logger.Warn().Msg("assistant disabled")
		return nil, nil
	default:
		return ai.NewRuleAssistant(), nil
	}
}

func seedDemoData(cfg config.Config, seeder service.SeedService, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := seeder.Seed(ctx)
	if err != nil {
		log.Fatalf("failed to seed demo data: %v", err)
	}

	for _, user := range result.Users {
		role, err := identity.ParseRole(user.Role)
		if err != nil {
			continue
		}
		token, err := middleware.SignToken(cfg.JWTSecret, user.ID, role, 30*24*time.Hour)
		if err != nil {
			logger.Warn().Err(err).Str("username", user.Username).Msg("failed to sign demo token")
			continue
		}
		logger.Info().Str("username", user.Username).Str("role", user.Role).Str("token", token).Msg("demo account")
	}
}

func healthChecks(db *gorm.DB, redisClient *redis.Client) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
