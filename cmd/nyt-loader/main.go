package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iJarvis/nyt-article-loader/internal/config"
	"github.com/iJarvis/nyt-article-loader/pkg/cache"
	"github.com/iJarvis/nyt-article-loader/pkg/loader"
	"github.com/iJarvis/nyt-article-loader/pkg/logging"
	"github.com/iJarvis/nyt-article-loader/pkg/metrics"
	"github.com/iJarvis/nyt-article-loader/pkg/nyt"
	"github.com/iJarvis/nyt-article-loader/pkg/pacing"
	"github.com/iJarvis/nyt-article-loader/pkg/sink"
)

func main() {
	configPath := flag.String("config", "nyt-loader.yaml", "path to the loader config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Pretty,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Loader run failed")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	// Optional Redis-backed response cache.
	var cacheManager *cache.Manager
	if cfg.Cache.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisAddr,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()

		cacheManager = cache.NewManager(redisClient, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
		logger.Info().Str("redis_addr", cfg.Cache.RedisAddr).Msg("Response cache enabled")
	}

	client, err := nyt.New(nyt.Config{
		APIKey:  cfg.Credentials.APIKey,
		Query:   cfg.API.Query,
		BaseURL: cfg.API.BaseURL,
		Sort:    cfg.API.Sort,
		Cache:   cacheManager,
	})
	if err != nil {
		return fmt.Errorf("create search client: %w", err)
	}

	source, err := loader.NewSource(client, loader.Config{
		BatchSize: cfg.Loader.BatchSize,
		StartDate: cfg.Loader.StartDate,
		Pacer: pacing.New(
			time.Duration(cfg.Loader.CooldownSeconds)*time.Second,
			time.Duration(cfg.Loader.FaultDelaySeconds)*time.Second,
		),
	})
	if err != nil {
		return fmt.Errorf("create source: %w", err)
	}

	batchSink, err := sink.NewJSONL(cfg.Sink.Path)
	if err != nil {
		return fmt.Errorf("create sink: %w", err)
	}
	defer func() {
		if err := batchSink.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close sink")
		}
	}()

	if cfg.Metrics.Addr != "" {
		serveMetrics(cfg.Metrics.Addr, logger)
	}

	source.Connect("pub_date", cfg.Loader.StartDate)
	defer source.Disconnect()

	logger.Info().
		Str("query", cfg.API.Query).
		Int("batch_size", cfg.Loader.BatchSize).
		Str("schema", fmt.Sprintf("%v", source.Schema())).
		Msg("Starting fetch run")

	fetchRun := source.Run()
	batchCount := 0
	recordCount := 0

	for {
		batch, ok, err := fetchRun.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Info().
					Int("batches", batchCount).
					Int("records", recordCount).
					Msg("Run interrupted")
				return nil
			}
			return fmt.Errorf("next batch: %w", err)
		}
		if !ok {
			break
		}

		if err := batchSink.WriteBatch(ctx, batch); err != nil {
			return fmt.Errorf("write batch: %w", err)
		}

		batchCount++
		recordCount += len(batch)
		logger.Info().
			Int("batch", batchCount).
			Int("batch_size", len(batch)).
			Str("watermark", fetchRun.Watermark()).
			Msg("Batch delivered")
	}

	logger.Info().
		Int("batches", batchCount).
		Int("records", recordCount).
		Str("path", cfg.Sink.Path).
		Msg("Fetch run complete")

	return nil
}

// serveMetrics exposes /metrics in the background; exposition failures are
// logged but never abort the run.
func serveMetrics(addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	logger.Info().Str("addr", addr).Msg("Serving metrics")
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()
}
