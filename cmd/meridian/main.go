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

	"golang.org/x/sync/errgroup"

	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/events"
	"github.com/meridian-erp/meridian-erp/internal/identity"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/overrides"
	"github.com/meridian-erp/meridian-erp/internal/permissions"
	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/roles"
	"github.com/meridian-erp/meridian-erp/internal/users"
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
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	broadcaster := events.NewBroadcaster(redisClient, logger)
	hub := events.NewHub(redisClient, logger)

	catalogCache := permissions.NewCache(redisClient, cfg.CatalogCacheTTL)
	catalogCache.ListenForInvalidation(ctx)

	permissionService := permissions.NewService(permissions.NewRepository(pool), catalogCache, broadcaster)
	roleService := roles.NewService(roles.NewRepository(pool), broadcaster)
	overrideService := overrides.NewService(overrides.NewRepository(pool), permissionService, broadcaster)
	userService := users.NewService(users.NewRepository(pool))

	resolver := authz.NewService(permissionService, roleService, overrideService)
	guard := authz.Middleware{Service: resolver, Logger: logger}

	router := app.NewRouter(app.RouterParams{
		Logger: logger,
		Config: cfg,
		Identity: identity.Middleware{
			Verifier: identity.NewVerifier(cfg.AuthTokenSecret),
			Users:    userService,
			Roles:    roleService,
			Logger:   logger,
		},
		AuthzHandler:       authz.NewHandler(logger, resolver),
		PermissionsHandler: permissions.NewHandler(logger, permissionService, guard),
		RolesHandler:       roles.NewHandler(logger, roleService, guard),
		OverridesHandler:   overrides.NewHandler(logger, overrideService, guard),
		UsersHandler:       users.NewHandler(logger, userService, guard),
		StreamHandler:      events.NewStreamHandler(hub, logger),
		Metrics:            observability.NewMetrics(),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: 0, // SSE stream writes for the connection's lifetime
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		if err := hub.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
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
		logger.Error("shutdown", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
