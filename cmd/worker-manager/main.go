// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"festival-workers/internal/common/ai"
	"festival-workers/internal/common/cache"
	"festival-workers/internal/common/camunda"
	"festival-workers/internal/common/catalog"
	"festival-workers/internal/common/config"
	"festival-workers/internal/common/database"
	"festival-workers/internal/common/logger"
	"festival-workers/internal/common/observability"
	"festival-workers/internal/common/repository"
	"festival-workers/internal/common/resilience"

	enrich "festival-workers/internal/workers/artist/enrich-artist"
	extract "festival-workers/internal/workers/festival/extract-lineup"
	recommend "festival-workers/internal/workers/recommendation/recommend-artists"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "worker manager: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	log, err := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}
	log.Info("starting worker manager", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		return fmt.Errorf("observability init failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startup := resilience.RetryPolicy{
		MaxAttempts: cfg.Resilience.RetryAttempts,
		BaseDelay:   config.GetDuration(cfg.Resilience.RetryBaseDelay),
	}

	// --- Response cache ---
	responses, closeCache, err := openCache(ctx, cfg, startup, log)
	if err != nil {
		return err
	}
	defer closeCache()

	// --- AI gateway ---
	gateway, err := ai.New(ctx, ai.ConfigFromApp(cfg.AI), responses, log,
		ai.WithBreaker(ai.NewBreaker(breakerSettings(cfg.Resilience, "ai-"+cfg.AI.Provider, log))),
		ai.WithRetryPolicy(resilience.RetryPolicy{
			MaxAttempts: *cfg.AI.MaxRetries + 1,
			BaseDelay:   config.GetDuration(cfg.Resilience.RetryBaseDelay),
		}),
		ai.WithRecorder(obs),
	)
	if err != nil {
		return fmt.Errorf("AI gateway init failed: %w", err)
	}
	log.Info("AI gateway ready", map[string]interface{}{
		"provider": string(gateway.Provider()),
		"model":    gateway.Model(),
	})

	// --- Music catalog ---
	var catalogClient catalog.Client
	if cfg.Catalog.Enabled() {
		catalogClient = catalog.NewBreakerClient(
			catalog.NewSpotify(catalog.SpotifyConfigFromApp(cfg.Catalog)),
			breakerSettings(cfg.Resilience, "catalog-spotify", log),
		)
		log.Info("catalog client enabled", map[string]interface{}{"catalog": "spotify"})
	} else {
		log.Warn("catalog credentials missing, enrichment runs on AI data only", nil)
	}

	// --- Persistence ---
	var (
		festivals repository.FestivalRepository
		artists   repository.ArtistRepository
	)
	if cfg.Database.Postgres.Enabled {
		pg, err := resilience.Retry(ctx, withRetryLog(startup, log), "PostgreSQL connection",
			func(ctx context.Context) (*database.PostgresClient, error) {
				return database.NewPostgres(ctx, cfg.Database.Postgres)
			}, nil)
		if err != nil {
			return fmt.Errorf("postgres failed after retries: %w", err)
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			return fmt.Errorf("postgres migration failed: %w", err)
		}
		festivals = repository.NewPostgresFestivals(pg.DB)
		artists = repository.NewPostgresArtists(pg.DB)
		log.Info("PostgreSQL connected", nil)
	}

	// --- Zeebe ---
	zeebeClient, err := camunda.Connect(ctx, cfg.Camunda, camunda.ConnectPolicy, log)
	if err != nil {
		return fmt.Errorf("zeebe client failed after retries: %w", err)
	}
	defer zeebeClient.Close()
	log.Info("Zeebe client connected", map[string]interface{}{"broker": cfg.Camunda.BrokerAddress})

	// --- Workers ---
	extractHandler := extract.NewHandler(extract.ConfigFromApp(cfg), gateway, festivals, obs,
		logger.ForWorker(log, extract.TaskType))
	enrichHandler := enrich.NewHandler(enrich.ConfigFromApp(cfg), gateway, catalogClient, artists, obs,
		logger.ForWorker(log, enrich.TaskType))
	recommendHandler := recommend.NewHandler(recommend.ConfigFromApp(cfg), gateway, obs,
		logger.ForWorker(log, recommend.TaskType))

	var workers []worker.JobWorker
	for _, w := range []struct {
		taskType string
		handler  worker.JobHandler
	}{
		{extract.TaskType, extractHandler.Handle},
		{enrich.TaskType, enrichHandler.Handle},
		{recommend.TaskType, recommendHandler.Handle},
	} {
		if jw := camunda.StartWorker(zeebeClient, w.taskType, config.GetWorkerConfig(cfg, w.taskType), w.handler, log); jw != nil {
			workers = append(workers, jw)
		}
	}
	log.Info("workers registered", map[string]interface{}{"count": len(workers)})

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           healthMux(zeebeClient, cfg.Camunda),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("health/metrics server listening", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health/metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	log.Info("shutdown signal received, stopping workers", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, jw := range workers {
		jw.Close()
		jw.AwaitClose()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("health/metrics server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Error("observability shutdown failed", map[string]interface{}{"error": err.Error()})
	}

	log.Info("worker manager stopped gracefully", nil)
	return nil
}

// openCache selects the response cache backend.
func openCache(ctx context.Context, cfg *config.Config, policy resilience.RetryPolicy, log logger.Logger) (cache.Cache, func(), error) {
	if cfg.Cache.Backend != "redis" {
		log.Info("using in-memory response cache", nil)
		return cache.NewMemory(), func() {}, nil
	}

	rdb, err := resilience.Retry(ctx, withRetryLog(policy, log), "Redis connection",
		func(ctx context.Context) (*database.RedisClient, error) {
			return database.NewRedis(ctx, cfg.Database.Redis)
		}, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("redis failed after retries: %w", err)
	}
	log.Info("using redis response cache", map[string]interface{}{"address": cfg.Database.Redis.Address})
	return cache.NewRedis(rdb.Client, cfg.Cache.Prefix), func() { _ = rdb.Close() }, nil
}

func breakerSettings(rc config.ResilienceConfig, name string, log logger.Logger) resilience.BreakerSettings {
	return resilience.BreakerSettings{
		Name:             name,
		FailureThreshold: uint32(rc.FailureThreshold),
		ResetTimeout:     config.GetDuration(rc.ResetTimeout),
		Logger:           log,
	}
}

func withRetryLog(p resilience.RetryPolicy, log logger.Logger) resilience.RetryPolicy {
	p.OnRetry = func(name string, attempt int, delay time.Duration, err error) {
		log.Warn(name+" failed, retrying", map[string]interface{}{
			"attempt":     attempt,
			"maxAttempts": p.MaxAttempts,
			"nextRetryIn": delay.String(),
			"error":       err.Error(),
		})
	}
	return p
}

func healthMux(client zbc.Client, cc config.CamundaConfig) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := camunda.HealthCheck(r.Context(), client, config.GetDuration(cc.RequestTimeout)); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
