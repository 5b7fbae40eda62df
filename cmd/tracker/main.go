package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"

	"raffle_tracker/internal/auditor"
	"raffle_tracker/internal/config"
	"raffle_tracker/internal/engine"
	"raffle_tracker/internal/kv"
	kvpostgres "raffle_tracker/internal/kv/postgres"
	kvredis "raffle_tracker/internal/kv/redis"
	"raffle_tracker/internal/notify"
	"raffle_tracker/internal/raffleapi"
	"raffle_tracker/internal/scheduler"
	"raffle_tracker/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	backend, closeBackend, err := openBackend(cfg, logger)
	if err != nil {
		logger.Error("failed to open storage backend", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer closeBackend()

	rabbitMQ, err := notify.NewRabbitMQ(notify.Config{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer rabbitMQ.Close()

	raffleStore := store.New(backend, store.Config{Timezone: cfg.Timezone}, logger)

	apiClient := raffleapi.New(raffleapi.Config{
		Timeout:              cfg.API.Timeout,
		DefaultGatewayOrigin: cfg.API.DefaultGatewayOrigin,
	}, logger)

	eng := engine.New(raffleStore, apiClient, rabbitMQ, logger, cfg.Tracker)
	aud := auditor.New(raffleStore, cfg.Audit.Cooldown, logger)

	sched := scheduler.New(eng, nil, raffleStore, rabbitMQ, aud, logger, scheduler.Config{
		ContextID:          cfg.Scheduler.ContextID,
		CanonicalContextID: cfg.Scheduler.CanonicalContextID,
		DiscoveryEnabled:   cfg.Scheduler.DiscoveryEnabled,
		DiscoveryInterval:  cfg.Scheduler.DiscoveryInterval,
		ResolveEnabled:     cfg.Scheduler.ResolveEnabled,
		ResolveInterval:    cfg.Scheduler.ResolveInterval,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting raffle tracker",
		"backend", cfg.Storage.Backend,
		"context_id", cfg.Scheduler.ContextID,
		"resolve_interval", cfg.Scheduler.ResolveInterval,
	)

	sched.Start(ctx)
	<-ctx.Done()
	sched.Stop()
}

// openBackend selects the key-value store the raffle store runs on. The
// memory backend exists for local runs without infrastructure.
func openBackend(cfg *config.Config, logger *slog.Logger) (kv.Store, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		db, err := sqlx.Connect("postgres", cfg.Database.DSN())
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to database")
		return kvpostgres.New(db), func() { db.Close() }, nil
	case config.BackendRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}
		logger.Info("connected to redis", "addr", cfg.Redis.Addr)
		return kvredis.New(client), func() { client.Close() }, nil
	default:
		logger.Warn("using in-memory storage, state will not survive restarts")
		return kv.NewMemory(), func() {}, nil
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
