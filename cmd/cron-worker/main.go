package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/foodgram-backend/internal/cron"
	"github.com/angelmondragon/foodgram-backend/internal/media"
	"github.com/angelmondragon/foodgram-backend/internal/recipes"
	"github.com/angelmondragon/foodgram-backend/internal/shortlinks"
	"github.com/angelmondragon/foodgram-backend/internal/users"
	"github.com/angelmondragon/foodgram-backend/pkg/config"
	"github.com/angelmondragon/foodgram-backend/pkg/db"
	"github.com/angelmondragon/foodgram-backend/pkg/instance"
	"github.com/angelmondragon/foodgram-backend/pkg/logger"
	"github.com/angelmondragon/foodgram-backend/pkg/metrics"
	"github.com/angelmondragon/foodgram-backend/pkg/migrate"
	"github.com/angelmondragon/foodgram-backend/pkg/redis"
	"github.com/angelmondragon/foodgram-backend/pkg/shortlink"
)

const lockKeyFormat = "foodgram:cron-worker:lock:%s"

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	only := flag.String("jobs", "", "comma-separated job names to run (default: all)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	registry, err := buildJobs(cfg, logg, dbClient)
	if err != nil {
		logg.Error(ctx, "failed to build cron jobs", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(ctx, "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
		Jobs:     splitJobs(*only),
	})
	if err != nil {
		logg.Error(ctx, "failed to create cron service", err)
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
		"interval": cfg.Cron.Interval.String(),
	})
	if *once {
		ran, err := service.RunOnce(ctx)
		if err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		logg.Info(logg.WithField(ctx, "ran", ran), "cron cycle finished")
		return
	}

	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildJobs(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*cron.Registry, error) {
	conn := dbClient.DB()
	recipeRepo := recipes.NewRepository(conn)

	generator, err := shortlink.NewGenerator(shortlink.Options{
		Length:      cfg.Slug.Length,
		MaxAttempts: cfg.Slug.MaxAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("slug generator: %w", err)
	}
	links, err := shortlinks.NewService(shortlinks.ServiceParams{
		Store:     recipeRepo,
		Generator: generator,
		BaseURL:   cfg.App.BaseURL(),
	})
	if err != nil {
		return nil, fmt.Errorf("shortlinks service: %w", err)
	}
	slugJob, err := cron.NewSlugBackfillJob(cron.SlugBackfillJobParams{
		Logger:    logg,
		Recipes:   recipeRepo,
		Links:     links,
		BatchSize: cfg.Cron.SlugBatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("slug backfill job: %w", err)
	}

	store, err := media.NewStore(cfg.Media, logg)
	if err != nil {
		return nil, fmt.Errorf("media store: %w", err)
	}
	mediaJob, err := cron.NewOrphanMediaJob(cron.OrphanMediaJobParams{
		Logger:    logg,
		Files:     store,
		Recipes:   recipeRepo,
		Users:     users.NewRepository(conn),
		Retention: cfg.Cron.MediaRetention,
	})
	if err != nil {
		return nil, fmt.Errorf("orphan media job: %w", err)
	}

	return cron.NewRegistry(slugJob, mediaJob)
}

func splitJobs(raw string) []string {
	var names []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
