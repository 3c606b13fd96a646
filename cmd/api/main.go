package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/angelmondragon/foodgram-backend/api/routes"
	"github.com/angelmondragon/foodgram-backend/internal/app"
	"github.com/angelmondragon/foodgram-backend/internal/media"
	"github.com/angelmondragon/foodgram-backend/pkg/auth/session"
	"github.com/angelmondragon/foodgram-backend/pkg/config"
	"github.com/angelmondragon/foodgram-backend/pkg/db"
	"github.com/angelmondragon/foodgram-backend/pkg/instance"
	"github.com/angelmondragon/foodgram-backend/pkg/logger"
	"github.com/angelmondragon/foodgram-backend/pkg/metrics"
	"github.com/angelmondragon/foodgram-backend/pkg/migrate"
	"github.com/angelmondragon/foodgram-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := multierr.Combine(dbClient.Close(), redisClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing connections", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	mediaStore, err := media.NewStore(cfg.Media, logg)
	if err != nil {
		logg.Error(ctx, "failed to prepare media store", err)
		os.Exit(1)
	}

	registry := metrics.NewRegistry()
	domainMetrics := metrics.NewDomainMetrics(registry)

	services, err := app.NewServices(app.Params{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Sessions: sessionManager,
		Media:    mediaStore,
		Metrics:  domainMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to build services", err)
		os.Exit(1)
	}

	handler := routes.NewRouter(routes.Dependencies{
		Config:         cfg,
		Logger:         logg,
		DB:             dbClient,
		Redis:          redisClient,
		Sessions:       sessionManager,
		HTTPMetrics:    metrics.NewHTTPMetrics(registry),
		MetricsHandler: metrics.Handler(registry),
		Media:          mediaStore,
		Auth:           services.Auth,
		Users:          services.Users,
		Tags:           services.Tags,
		Ingredients:    services.Ingredients,
		Recipes:        services.Recipes,
		Memberships:    services.Memberships,
		Cart:           services.Cart,
		Subscriptions:  services.Subscriptions,
		ShortLinks:     services.ShortLinks,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(logCtx, "graceful shutdown failed", err)
	}
	logg.Info(logCtx, "api server stopped")
}
