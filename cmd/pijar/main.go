package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pijar-hq/pijar/internal/app"
	"github.com/pijar-hq/pijar/internal/audit"
	audithttp "github.com/pijar-hq/pijar/internal/audit/http"
	"github.com/pijar-hq/pijar/internal/auth"
	"github.com/pijar-hq/pijar/internal/authz"
	"github.com/pijar-hq/pijar/internal/dashboard"
	dashboardhttp "github.com/pijar-hq/pijar/internal/dashboard/http"
	"github.com/pijar-hq/pijar/internal/observability"
	platformdb "github.com/pijar-hq/pijar/internal/platform/db"
	"github.com/pijar-hq/pijar/internal/roles"
	"github.com/pijar-hq/pijar/internal/shared"
	"github.com/pijar-hq/pijar/internal/users"
	"github.com/pijar-hq/pijar/internal/view"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := platformdb.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "pijar_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := shared.NewAuditLogger(dbpool)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	authzRepo := authz.NewRepository(dbpool)
	authzService := authz.NewService(authzRepo, cfg.DefaultRoleName)
	gate := authz.Middleware{Service: authzService, Logger: logger}
	meHandler := authz.NewMeHandler(logger, gate)

	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(logger, rolesRepo, auditLogger)
	rolesHandler := roles.NewHandler(logger, rolesService, templates, csrfManager, sessionManager, gate)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(logger, usersRepo, auditLogger)
	usersHandler := users.NewHandler(logger, usersService, rolesService, templates, csrfManager, sessionManager, gate)

	auditRepo := audit.NewRepository(dbpool)
	auditService := audit.NewService(auditRepo)
	auditHandler := audithttp.NewHandler(logger, auditService, templates, csrfManager)

	dashboardRepo := dashboard.NewRepository(dbpool)
	dashboardCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	dashboardService := dashboard.NewService(dashboardRepo, dashboardCache)
	dashboardHandler := dashboardhttp.NewHandler(logger, dashboardService, templates, csrfManager)

	go func() {
		if err := dashboardCache.ListenForInvalidation(ctx, "dashboard.bump"); err != nil && ctx.Err() == nil {
			logger.Warn("dashboard invalidation listener stopped", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Templates:        templates,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		AuthHandler:      authHandler,
		MeHandler:        meHandler,
		RolesHandler:     rolesHandler,
		UsersHandler:     usersHandler,
		AuditHandler:     auditHandler,
		DashboardHandler: dashboardHandler,
		Gate:             gate,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
