package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"

	"github.com/iago/geo-visibility-back/internal/ai"
	"github.com/iago/geo-visibility-back/internal/cache"
	"github.com/iago/geo-visibility-back/internal/config"
	"github.com/iago/geo-visibility-back/internal/events"
	"github.com/iago/geo-visibility-back/internal/export"
	httpserver "github.com/iago/geo-visibility-back/internal/http"
	"github.com/iago/geo-visibility-back/internal/http/handlers"
	"github.com/iago/geo-visibility-back/internal/notify"
	"github.com/iago/geo-visibility-back/internal/queue"
	"github.com/iago/geo-visibility-back/internal/report"
	"github.com/iago/geo-visibility-back/internal/retry"
	"github.com/iago/geo-visibility-back/internal/search"
	"github.com/iago/geo-visibility-back/internal/service"
	"github.com/iago/geo-visibility-back/internal/worker"
)

func main() {
	logger := log.New(os.Stdout, "[geo-back] ", log.LstdFlags|log.LUTC|log.Lmicroseconds)
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		logger.Printf("failed loading .env files: %v", err)
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, storeCloser := setupReportStore(ctx, cfg, logger)
	defer storeCloser()

	hub := notify.NewHub(0, logger)
	notifier, notifierCloser := setupNotifier(ctx, cfg, hub, logger)
	defer notifierCloser()

	files, filesCloser := setupFiles(ctx, cfg, logger)
	defer filesCloser()

	reports := report.NewService(store, notifier, logger)
	bus := events.NewBus(logger)
	report.NewConsumer(reports, notifier, logger).SubscribeAll(bus)

	retryPolicy := retry.Policy{
		MaxRetries: cfg.RetryMax,
		BaseDelay:  cfg.RetryBaseDelay(),
	}

	modelRouter := ai.NewModelRouter(ai.ModelRouterConfig{
		QuestionsModel: cfg.OpenAIModel,
		AnswerModel:    cfg.OpenAIAnswerModel,
		FallbackModel:  cfg.OpenAIFallbackModel,
	})
	aiClient := ai.NewOpenAIClient(ai.OpenAIClientConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.OpenAITimeout(),
		Retry:   retryPolicy,
		Logger:  logger,
	})
	if !aiClient.Available() {
		logger.Printf("OPENAI_API_KEY not configured, question generation and answers disabled")
	}

	searchClient := search.NewClient(search.Config{
		APIKey:       cfg.SerpAPIKey,
		BaseURL:      cfg.SerpAPIBaseURL,
		Location:     cfg.SerpAPILocation,
		GoogleDomain: cfg.SerpAPIGoogleDomain,
		HL:           cfg.SerpAPIHL,
		GL:           cfg.SerpAPIGL,
		Retry:        retryPolicy,
		Cache: cache.NewTTLCache(cache.Config{
			TTL:        cfg.SearchCacheTTL(),
			MaxEntries: cfg.SearchCacheMaxEntries,
		}),
		Logger: logger,
	})
	if !searchClient.Available() {
		logger.Printf("SERPAPI_KEY not configured, AI overviews will be reported as missing")
	}

	pipeline := worker.NewPipeline(worker.Config{
		Driver:    ai.NewAnswerEngine(aiClient, modelRouter, logger),
		Overviews: searchClient,
		Sink:      files,
		// OpenAI calls are retried inside the client.
		Retry:            retry.Policy{},
		QuestionInterval: cfg.QuestionInterval(),
		CompareThreshold: cfg.BrandCompareThreshold,
		Logger:           logger,
	})

	jobs := queue.New(queue.Config{
		Executor: pipeline,
		Events:   bus,
		Logger:   logger,
		Interval: cfg.QueueTick(),
	})
	if cfg.WorkerEnabled {
		jobs.Start(ctx)
		defer jobs.Stop()
		logger.Printf("queue scheduler started tick=%s", cfg.QueueTick())
	} else {
		logger.Printf("worker disabled by configuration, jobs stay pending")
	}

	api := handlers.NewAPI(handlers.Dependencies{
		Questions: ai.NewQuestionGenerator(aiClient, modelRouter, logger),
		Scraping:  service.NewScrapingService(reports, jobs, logger),
		Reports:   reports,
		Queue:     jobs,
		Files:     files,
		Hub:       hub,
		Logger:    logger,
	})

	handler := httpserver.NewRouter(httpserver.RouterDependencies{
		API:            api,
		Logger:         logger,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	// No WriteTimeout: SSE streams stay open for the life of the client.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Printf("api listening on :%s", cfg.Port)
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Printf("shutdown signal received")
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("server failed: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	}
}

func setupReportStore(ctx context.Context, cfg config.Config, logger *log.Logger) (report.Store, func()) {
	if cfg.DatabaseURL == "" {
		logger.Printf("DATABASE_URL not configured, using in-memory report store")
		return report.NewMemoryStore(), func() {}
	}

	pgStore, err := report.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Printf("failed to initialize postgres report store, fallback to memory: %v", err)
		return report.NewMemoryStore(), func() {}
	}
	logger.Printf("postgres report store initialized")
	return pgStore, pgStore.Close
}

func setupNotifier(ctx context.Context, cfg config.Config, hub *notify.Hub, logger *log.Logger) (notify.Sink, func()) {
	if cfg.RedisAddr == "" {
		return hub, func() {}
	}

	stream, err := notify.NewRedisStreamSink(ctx, notify.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Stream:   cfg.RedisEventStream,
		MaxLen:   cfg.RedisStreamMaxLen,
	}, logger)
	if err != nil {
		logger.Printf("failed to initialize redis event stream, notifications stay in-process: %v", err)
		return hub, func() {}
	}
	logger.Printf("redis event stream initialized stream=%s", cfg.RedisEventStream)
	return notify.Fanout{hub, stream}, func() {
		_ = stream.Close()
	}
}

func setupFiles(ctx context.Context, cfg config.Config, logger *log.Logger) (export.Store, func()) {
	if cfg.GCSBucket == "" {
		logger.Printf("GCS_BUCKET not configured, writing reports to %s", cfg.ReportsDir)
		return export.NewFileSink(cfg.ReportsDir, logger), func() {}
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		logger.Printf("failed to initialize cloud storage client, fallback to %s: %v", cfg.ReportsDir, err)
		return export.NewFileSink(cfg.ReportsDir, logger), func() {}
	}
	logger.Printf("cloud storage report sink initialized bucket=%s prefix=%s", cfg.GCSBucket, cfg.GCSPrefix)
	return export.NewGCSSink(client, cfg.GCSBucket, cfg.GCSPrefix, logger), func() {
		_ = client.Close()
	}
}
