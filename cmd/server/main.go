package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/elternsprechtag/internal/app"
	"github.com/iliyamo/elternsprechtag/internal/config"
	"github.com/iliyamo/elternsprechtag/internal/database"
	"github.com/iliyamo/elternsprechtag/internal/handler"
	"github.com/iliyamo/elternsprechtag/internal/mail"
	"github.com/iliyamo/elternsprechtag/internal/middleware"
	"github.com/iliyamo/elternsprechtag/internal/queue"
	"github.com/iliyamo/elternsprechtag/internal/repository"
	"github.com/iliyamo/elternsprechtag/internal/router"
	"github.com/iliyamo/elternsprechtag/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg.Env)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Storage ----
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if cfg.MigrateOnStart {
		m, err := app.NewMigrator(db, logger)
		if err != nil {
			return err
		}
		if err := m.Run(ctx); err != nil {
			return err
		}
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		logger.Info("redis connected", zap.String("addr", cfg.Redis.Address()))
	} else if cfg.Redis.Enabled {
		logger.Warn("redis unreachable, using in-process rate limits and no response cache")
	}

	teachers := repository.NewTeacherRepo(db)
	users := repository.NewUserRepo(db)
	slots := repository.NewSlotRepo(db)
	requests := repository.NewBookingRequestRepo(db)
	settings := repository.NewSettingsRepo(db)
	feedback := repository.NewFeedbackRepo(db)

	if err := app.EnsureAdmin(ctx, users, cfg.AdminUsername, cfg.AdminPassword, cfg.BcryptCost, logger); err != nil {
		return fmt.Errorf("ensure admin account: %w", err)
	}

	// ---- Mail and events ----
	sender, err := mail.NewSender(cfg.Mail, logger)
	if err != nil {
		return fmt.Errorf("mail transport: %w", err)
	}

	events := service.NoopPublisher
	if cfg.Events.Enabled {
		events = queue.NewPublisher(cfg.Events.URL, cfg.Events.Queue, logger)
		if cfg.Events.ConsumerEnabled {
			consumer := queue.NewConsumer(cfg.Events.URL, cfg.Events.Queue, cfg.Events.LogDir, logger)
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("event consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	// ---- Services ----
	validate := service.NewValidator()
	bookings := service.NewBookingService(service.BookingDeps{
		Slots:       slots,
		Teachers:    teachers,
		Settings:    settings,
		Mailer:      sender,
		Events:      events,
		Validator:   validate,
		Logger:      logger,
		PublicURL:   cfg.PublicURL,
		MailTimeout: cfg.Mail.Timeout,
	})
	requestSvc := service.NewRequestService(requests, teachers, bookings)
	planner := service.NewSlotPlanner(slots, teachers, settings, logger)

	// ---- HTTP ----
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(logger)
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))
	e.Use(middleware.RequestLogger(logger))

	limit := middleware.NewTokenBucket(cfg.RateLimit, rdb, logger)
	cache := middleware.NewRedisCache(cfg.Cache, rdb)
	purger := middleware.NewCachePurger(cfg.Cache, rdb, logger)

	router.RegisterRoutes(e, handler.NewHealthHandler(db, rdb))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, logger), cfg.JWTSecret, limit)
	router.RegisterPublic(e, handler.NewPublicHandler(teachers, slots, settings, bookings, requestSvc), limit, cache)
	router.RegisterTeacher(e, handler.NewTeacherHandler(handler.TeacherHandler{
		Slots:      slots,
		Teachers:   teachers,
		Users:      users,
		Feedback:   feedback,
		Requests:   requests,
		Bookings:   bookings,
		RequestSvc: requestSvc,
		Cache:      purger,
		BcryptCost: cfg.BcryptCost,
		Logger:     logger,
	}), cfg.JWTSecret)
	router.RegisterAdmin(e, handler.NewAdminHandler(handler.AdminHandler{
		Teachers:   teachers,
		Users:      users,
		Slots:      slots,
		Settings:   settings,
		Feedback:   feedback,
		Bookings:   bookings,
		Planner:    planner,
		Validator:  validate,
		Cache:      purger,
		BcryptCost: cfg.BcryptCost,
		Logger:     logger,
	}), cfg.JWTSecret)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
