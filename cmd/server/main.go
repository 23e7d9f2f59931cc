package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/contacts-api/internal/auth"
	"github.com/iliyamo/contacts-api/internal/cache"
	"github.com/iliyamo/contacts-api/internal/config"
	"github.com/iliyamo/contacts-api/internal/database"
	"github.com/iliyamo/contacts-api/internal/handler"
	"github.com/iliyamo/contacts-api/internal/logging"
	"github.com/iliyamo/contacts-api/internal/mail"
	"github.com/iliyamo/contacts-api/internal/middleware"
	"github.com/iliyamo/contacts-api/internal/queue"
	"github.com/iliyamo/contacts-api/internal/repository"
	"github.com/iliyamo/contacts-api/internal/router"
	"github.com/iliyamo/contacts-api/internal/service"
	"github.com/iliyamo/contacts-api/internal/storage"
	"github.com/iliyamo/contacts-api/internal/validation"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load() // Load environment config
	if err != nil {
		return err
	}
	log := logging.New(cfg.IsLocal(), cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ----- storage -----
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	rdb := config.NewRedisClient(cfg.Redis) // nil when Redis is unreachable
	if rdb == nil {
		log.Warn("redis unavailable: user cache and rate limiting disabled", slog.String("addr", cfg.Redis.Address()))
	} else {
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	contacts := repository.NewContactRepo(db)
	userCache := cache.NewUserCache(rdb, cfg.UserCachePrefix, log)

	uploader, err := storage.NewS3Uploader(ctx, cfg.S3)
	if err != nil {
		return err
	}

	// ----- auth core -----
	tokens, err := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Algorithm, cfg.JWT.AccessTTL())
	if err != nil {
		return err
	}
	hasher := auth.NewHasher(cfg.BcryptCost)
	resolver := auth.NewResolver(tokens, userCache, users, log)

	// ----- mail pipeline -----
	var transport mail.Transport = mail.LogTransport{Log: log}
	if cfg.Mail.Server != "" {
		smtp, err := mail.NewSMTPTransport(cfg.Mail)
		if err != nil {
			return err
		}
		transport = smtp
	}
	sender := mail.NewSender(tokens, transport, log)
	publisher := queue.NewPublisher(cfg.Rabbit.URL, cfg.Rabbit.MailQueue, log)
	consumer := queue.NewConsumer(cfg.Rabbit.URL, cfg.Rabbit.MailQueue, sender, log)

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("mail consumer stopped", slog.Any("error", err))
		}
	}()

	// ----- HTTP -----
	authSvc := service.NewAuthService(users, hasher, tokens, userCache, publisher, log)
	userSvc := service.NewUserService(users, uploader, userCache, log)
	contactSvc := service.NewContactService(contacts)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))
	e.Use(middleware.PrometheusMetrics())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelError
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			log.LogAttrs(c.Request().Context(), level, "http request", attrs...)
			return nil
		},
	}))

	limit := func(p config.Policy, name string) echo.MiddlewareFunc {
		return middleware.NewTokenBucket(cfg.RateLimit, p, rdb, name, log)
	}
	router.Register(e, router.Handlers{
		Health:   handler.NewHealthHandler(users, userCache, log),
		Auth:     handler.NewAuthHandler(authSvc, cfg.BaseURL, log),
		Users:    handler.NewUserHandler(userSvc, log),
		Contacts: handler.NewContactHandler(contactSvc, log),
	}, resolver, limit)

	addr := ":" + cfg.Port // Address string with port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", addr), slog.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown error", slog.Any("error", err))
	}
	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		log.Warn("mail consumer did not stop in time")
	}
	log.Info("server stopped")
	return nil
}
