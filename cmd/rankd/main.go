package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/analytics"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/analytics/aggregator"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/rankd/cache"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/rankd/docstore"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/rankd/executor"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/internal/rankd/handler"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/config"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/health"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/kafka"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/logger"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/metrics"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/middleware"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/postgres"
	pkgredis "github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/redis"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/resilience"
	"github.com/Karthik-Subramanian-R/Text-Ranking-Relevance-Service/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	tracing.Configure(cfg.Tracing.Enabled, cfg.Tracing.SampleRate)
	slog.Info("starting ranking service", "port", cfg.Server.Port, "ranker_enabled", cfg.Ranker.Enabled)

	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pg.Close()

	store := docstore.New(pg,
		docstore.WithCountGauge(func(n int64) { m.DocumentsStored.Set(float64(n)) }),
		docstore.WithBreakerStateHook(func(name string, state resilience.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
		}),
	)
	if err := store.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}
	if n, err := store.Count(ctx); err == nil {
		m.DocumentsStored.Set(float64(n))
		slog.Info("document store ready", "documents", n)
	}

	var scoreCache *cache.ScoreCache
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, score caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		scoreCache = cache.New(redisClient, cfg.Redis, m)
		slog.Info("score cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	analyticsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.RankEvents)
	collector := analytics.NewCollector(analyticsProducer, m, cfg.Analytics.EventBufferSize)
	collector.Start(ctx)
	defer collector.Close()
	slog.Info("analytics collector started", "topic", cfg.Kafka.Topics.RankEvents)

	agg := analytics.NewAggregator()
	analyticsConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.RankEvents, analytics.HandleEvent(agg, m))
	analyticsH := analytics.NewHandler(agg)
	go func() {
		if err := agg.Start(ctx, analyticsConsumer); err != nil {
			slog.Error("analytics aggregator error", "error", err)
		}
	}()

	snapshots := aggregator.NewStore(pg)
	if err := snapshots.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure analytics schema", "error", err)
		os.Exit(1)
	}
	snapshots.StartPeriodicSave(ctx, agg, cfg.Analytics.SnapshotInterval)

	var invalidateConsumer *kafka.Consumer
	if scoreCache != nil {
		invalidateConsumer = kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.CacheInvalidate,
			func(ctx context.Context, kind string, payload []byte) error {
				return scoreCache.Invalidate(ctx)
			})
		go func() {
			if err := invalidateConsumer.Start(ctx); err != nil {
				slog.Error("cache invalidation consumer error", "error", err)
			}
		}()
		slog.Info("cache invalidation consumer started", "topic", cfg.Kafka.Topics.CacheInvalidate)
	}

	registry := health.NewRegistry()
	registry.Add("postgres", func(ctx context.Context) health.Result {
		if err := pg.Ping(ctx); err != nil {
			return health.Down(err.Error())
		}
		return health.OK()
	})
	registry.Add("redis", func(ctx context.Context) health.Result {
		if redisClient == nil {
			return health.Degraded("not configured")
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.Degraded(err.Error())
		}
		return health.OK()
	})
	registry.Add("ranker", func(ctx context.Context) health.Result {
		if !cfg.Ranker.Enabled {
			return health.Degraded("ranking disabled")
		}
		return health.OK()
	})

	exec := executor.New(store, m, cfg.Ranker.ScoreTimeout)
	h := handler.New(exec, store, scoreCache, collector, m, cfg.Ranker)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/rank", h.Rank)
	mux.HandleFunc("GET /api/v1/rank/search", h.Search)
	mux.HandleFunc("POST /api/v1/documents", h.IngestDocument)
	mux.HandleFunc("GET /api/v1/documents/{id}", h.GetDocument)
	mux.HandleFunc("DELETE /api/v1/documents/{id}", h.DeleteDocument)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /api/v1/analytics", analyticsH.Stats)
	mux.HandleFunc("GET /health/live", registry.LiveHandler())
	mux.HandleFunc("GET /health/ready", registry.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.Deadline(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := shutdownMetrics(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("ranking service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("ranking service stopped")
}
