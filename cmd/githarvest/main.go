package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	graphqladapter "github.com/githarvest/githarvest/internal/adapter/driven/graphql"
	mongoadapter "github.com/githarvest/githarvest/internal/adapter/driven/mongo"
	"github.com/githarvest/githarvest/internal/application"
	"github.com/githarvest/githarvest/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)
	slog.Info("config loaded",
		"remote_url", cfg.RemoteURL,
		"store_database", cfg.StoreDatabase,
		"store_collection", cfg.StoreCollection,
		"repositories", len(cfg.RepositoryList()),
		"concurrency", cfg.Concurrency,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM), plus the overall
	// deadline when one is configured.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Deadline)
		defer cancel()
	}

	// 3. Connect the store and prepare indexes.
	client, err := mongoadapter.Connect(ctx, cfg.StoreURL)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			slog.Error("error disconnecting store", "error", err)
		}
	}()

	store := mongoadapter.NewStore(client, cfg.StoreDatabase, cfg.StoreCollection)
	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}
	slog.Info("store ready")

	// 4. Wire the gateway, cache, oracle and engine.
	gateway := graphqladapter.NewClient(cfg.RemoteURL, cfg.RemoteToken, graphqladapter.RetryPolicy{
		Retries:           cfg.RetryAttempts,
		ShortInterval:     cfg.RetryInterval,
		RateLimitInterval: cfg.RateLimitInterval,
	}, slog.Default())

	actors := application.NewActorCache(gateway, cfg.PageSize, cfg.CacheNegativeLookups, slog.Default())
	oracle := application.NewOracle(store, cfg.RetryShortReturns, slog.Default())
	engine := application.NewEngine(store, gateway, actors, oracle, cfg.PageSize, slog.Default())
	scheduler := application.NewScheduler(oracle, slog.Default())
	pipeline := application.NewPipeline(engine, scheduler, cfg.Concurrency, slog.Default())

	scopes := make([]application.Scope, 0, len(cfg.RepositoryList()))
	for _, repo := range cfg.RepositoryList() {
		scopes = append(scopes, application.Scope{Owner: repo.Owner, Name: repo.Name})
	}

	// 5. Run the harvest.
	report, err := pipeline.Run(ctx, scopes)
	logReport(report)
	if err != nil {
		return err
	}
	if failed := report.Failed(); len(failed) > 0 {
		return errors.New("harvest finished with failed tasks")
	}

	slog.Info("harvest complete", "tasks", len(report.Results))
	return nil
}

func logReport(report application.Report) {
	for _, res := range report.Degraded() {
		slog.Warn("task degraded",
			"task", res.Name, "expected", res.Expected, "actual", res.Actual)
	}
	for _, res := range report.Failed() {
		slog.Error("task failed", "task", res.Name, "error", res.Err)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
