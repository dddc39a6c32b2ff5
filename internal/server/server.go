package server

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/config"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/database"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/handler"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/middleware"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/repository"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/router"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/service"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/pkg/ai"
)

// Server owns the fiber application and the external connections it was built with.
type Server struct {
	App     *fiber.App
	cfg     config.Config
	logger  zerolog.Logger
	closers []func() error
}

// NewLogger builds the process logger for the configured environment.
func NewLogger(cfg config.Config) zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.AppEnv == "development" {
		level = zerolog.DebugLevel
	}
	return zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()
}

// New wires configuration, optional backing services and HTTP routes into a Server. Redis, NATS
// and the archive database are only dialled when their URL is configured.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger}

	completer, err := ai.NewCompleter(cfg.AIProvider, ai.OpenAIConfig{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.AIModel,
		MaxRetries: cfg.AIMaxRetries,
		Logger:     logger,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("configure completion backend: %w", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, s.fail(err)
		}
		s.closers = append(s.closers, redisClient.Close)
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			return nil, s.fail(err)
		}
		s.closers = append(s.closers, func() error {
			natsConn.Close()
			return nil
		})
	}

	deps := service.InterviewDependencies{}
	if redisClient != nil || natsConn != nil {
		fanout := service.NewInterviewFanout(redisClient, natsConn, cfg.EventsChannel, cfg.SessionMirrorTTL, logger)
		deps.Publisher = fanout
		if redisClient != nil {
			deps.Mirror = fanout
		}
	}

	if cfg.DatabaseURL != "" {
		db, err := database.ConnectArchive(cfg.DatabaseURL)
		if err != nil {
			return nil, s.fail(err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, s.fail(fmt.Errorf("archive connection pool: %w", err))
		}
		s.closers = append(s.closers, sqlDB.Close)
		deps.Archive = repository.NewInterviewArchiveRepository(db)
	}

	interviewService := service.NewInterviewService(repository.NewSessionRepository(), completer, deps, service.InterviewConfig{
		CompletionTimeout: cfg.AITimeout,
		ReusePolicy:       cfg.SessionReusePolicy,
	}, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())
	interviewHandler := handler.NewInterviewHandler(interviewService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.AllowOrigins,
		AccessLog:    cfg.AccessLog,
	})
	router.Register(app, cfg, router.Dependencies{
		InterviewHandler: interviewHandler,
	})

	s.App = app
	logger.Info().
		Str("ai_provider", cfg.AIProvider).
		Bool("redis", redisClient != nil).
		Bool("nats", natsConn != nil).
		Bool("archive", deps.Archive != nil).
		Str("reuse_policy", cfg.SessionReusePolicy).
		Msg("interview coach configured")
	return s, nil
}

// Listen serves HTTP on the configured address until Shutdown is called.
func (s *Server) Listen() error {
	s.logger.Info().Str("addr", s.cfg.HTTPAddress()).Msg("http server listening")
	return s.App.Listen(s.cfg.HTTPAddress())
}

// Shutdown stops accepting connections and releases backing services.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.App != nil {
		if err := s.App.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
	}
	errs = append(errs, s.close())
	return errors.Join(errs...)
}

func (s *Server) close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func (s *Server) fail(err error) error {
	if closeErr := s.close(); closeErr != nil {
		s.logger.Warn().Err(closeErr).Msg("failed to release partially initialised services")
	}
	return err
}
