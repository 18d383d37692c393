package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/lims-platform/identity/internal/accounts"
	"github.com/lims-platform/identity/internal/app"
	"github.com/lims-platform/identity/internal/auth"
	"github.com/lims-platform/identity/internal/bootstrap"
	"github.com/lims-platform/identity/internal/observability"
	"github.com/lims-platform/identity/internal/permissions"
	"github.com/lims-platform/identity/internal/platform/cache"
	"github.com/lims-platform/identity/internal/platform/db"
	"github.com/lims-platform/identity/internal/roles"
	"github.com/lims-platform/identity/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, audit trail and boot lock disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()

	metrics := observability.NewMetrics()

	permRepo := permissions.NewRepository(pool)
	roleRepo := roles.NewRepository(pool)
	accountRepo := accounts.NewRepository(pool)

	var events *jobs.AuditPublisher
	var asynqClient *asynq.Client
	if redisClient != nil {
		asynqClient = asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			_ = asynqClient.Close()
		}()
		events = jobs.NewAuditPublisher(asynqClient)
	}

	accountService := newAccountService(logger, accountRepo, roleRepo, events, cfg.BcryptCost)
	if asynqClient != nil {
		accountService = accountService.WithMailer(jobs.NewMailPublisher(asynqClient))
	}
	roleService := roles.NewService(roleRepo)
	permService := permissions.NewService(permRepo)
	authService := auth.NewService(accountService)

	seeder := bootstrap.NewSeeder(logger, roleRepo, permRepo, accountService, bootstrap.Options{
		Mode:         bootstrap.PermissionMode(cfg.SeedPermissionMode),
		DemoAccounts: cfg.SeedDemoAccounts,
		Locker:       redisClient,
	})
	if err := seeder.Run(ctx); err != nil {
		logger.Error("bootstrap seed", slog.Any("error", err))
		os.Exit(1)
	}
	metrics.ObserveSeedRun()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthHandler:        auth.NewHandler(logger, authService, metrics),
		AccountsHandler:    accounts.NewHandler(logger, accountService),
		RolesHandler:       roles.NewHandler(logger, roleService),
		PermissionsHandler: permissions.NewHandler(logger, permService),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("identity service listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func newAccountService(logger *slog.Logger, repo *accounts.Repository, roleRepo *roles.Repository, events *jobs.AuditPublisher, bcryptCost int) *accounts.Service {
	if events == nil {
		return accounts.NewService(logger, repo, roleRepo, nil, bcryptCost)
	}
	return accounts.NewService(logger, repo, roleRepo, events, bcryptCost)
}
