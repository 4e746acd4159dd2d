package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"

	"github.com/nikelchange/kurbot/internal/apperr"
	"github.com/nikelchange/kurbot/internal/audit"
	"github.com/nikelchange/kurbot/internal/bot"
	"github.com/nikelchange/kurbot/internal/database"
	"github.com/nikelchange/kurbot/internal/health"
	"github.com/nikelchange/kurbot/internal/idempotency"
	"github.com/nikelchange/kurbot/internal/pricing"
	"github.com/nikelchange/kurbot/internal/ratelimit"
	"github.com/nikelchange/kurbot/internal/repository"
	"github.com/nikelchange/kurbot/internal/state"
	"github.com/nikelchange/kurbot/internal/telegram"
	"github.com/nikelchange/kurbot/internal/webhook"
	"github.com/nikelchange/kurbot/pkg/config"
	"github.com/nikelchange/kurbot/pkg/logger"
	"github.com/nikelchange/kurbot/pkg/redis"
)

const migrationsDir = "migrations"

func main() {
	if err := run(); err != nil {
		slog.Error("bot terminated", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			return fmt.Errorf("initialize sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	log, level := logger.New(*cfg)
	slog.SetDefault(log)
	config.WatchLogLevel(v, level, log)

	log.Info("starting kurbot",
		slog.String("env", cfg.AppEnv),
		slog.String("port", cfg.Server.Port))

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	var redisClient *goredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.New(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() {
			_ = redisClient.Close()
		}()
	}

	sender, err := telegram.NewBotSender(cfg.Bot.Token, nil, false)
	if err != nil {
		return fmt.Errorf("initialize telegram sender: %w", err)
	}

	users := repository.NewUserRepository(db, log)
	messages := repository.NewMessageRepository(db, log)
	activities := repository.NewActivityRepository(db, log)
	recorder := audit.NewRecorder(users, messages, activities, log)
	stats := audit.NewStatsService(users, messages, activities)

	var quotes pricing.QuoteSource = newPricingClient(cfg, log)
	if redisClient != nil {
		quotes = pricing.NewCachedSource(quotes, redisClient, cfg.Pricing.CacheTTL, log)
	}

	states := newStateStorage(cfg, redisClient, log)
	tracker := state.NewTracker()
	go state.NewCleaner(states, log, cfg.State.CleanupInterval).Run(ctx)

	errs := apperr.NewHandler(log, cfg.Sentry.Enabled)
	dispatcher := bot.NewDispatcher(sender, quotes, states, tracker, recorder, errs, log)

	middlewares := []bot.Middleware{
		bot.Recovery(errs),
		bot.Logging(log),
		bot.Metrics(),
		bot.Idempotency(idempotency.NewManager(newIdempotencyStore(redisClient), 0, log)),
	}
	if cfg.RateLimit.Enabled {
		middlewares = append(middlewares, bot.RateLimit(newRateLimiter(cfg, redisClient), log))
	}

	handler := bot.Chain(dispatcher.HandleUpdate, middlewares...)

	checker := health.NewChecker(log)
	checker.AddCheck("database", health.NewDBChecker(db))
	if redisClient != nil {
		checker.AddCheck("redis", health.NewRedisChecker(redisClient))
	}
	checker.AddCheck("telegram", health.NewTelegramChecker(sender.Bot()))
	checker.AddCheck("pricing", health.NewPricingChecker(quotes))

	server := webhook.NewServer(handler, checker, stats, log, cfg.Bot.WebhookPath)

	return server.Run(ctx, ":"+cfg.Server.Port, cfg.Server.ShutdownTimeout)
}

func openDatabase(ctx context.Context, cfg *config.Config, log *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := database.NewMigrator(db, log).ApplyDir(ctx, migrationsDir); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return db, nil
}

func newPricingClient(cfg *config.Config, log *slog.Logger) *pricing.Client {
	var opts []pricing.Option
	if cfg.Pricing.BaseURL != "" {
		opts = append(opts, pricing.WithBaseURL(cfg.Pricing.BaseURL))
	}

	return pricing.NewClient(log, opts...)
}

func newStateStorage(cfg *config.Config, redisClient *goredis.Client, log *slog.Logger) state.Storage {
	if cfg.State.Backend == "redis" && redisClient != nil {
		return state.NewRedisStorage(redisClient, cfg.State.TTL, log)
	}

	return state.NewMemoryStorage(cfg.State.TTL)
}

func newIdempotencyStore(redisClient *goredis.Client) idempotency.Store {
	if redisClient != nil {
		return idempotency.NewRedisStore(redisClient)
	}

	return idempotency.NewMemoryStore()
}

func newRateLimiter(cfg *config.Config, redisClient *goredis.Client) ratelimit.Limiter {
	if redisClient != nil {
		return ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit.PerMinute)
	}

	return ratelimit.NewMemoryLimiter(cfg.RateLimit.PerMinute)
}
