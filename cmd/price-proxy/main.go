package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/Manser95/CryptoPair/pkg/breaker"
	"github.com/Manser95/CryptoPair/pkg/cache"
	"github.com/Manser95/CryptoPair/pkg/config"
	"github.com/Manser95/CryptoPair/pkg/fetcher"
	"github.com/Manser95/CryptoPair/pkg/logging"
	"github.com/Manser95/CryptoPair/pkg/upstream"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		logging.Setup(logging.DefaultConfig())
		fallbackLogger := logging.NewLogger("main")
		fallbackLogger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Setup(logging.Config{Level: logging.LogLevel(cfg.Log.Level), Pretty: cfg.Log.Pretty})
	logger := logging.NewLogger("main")

	// Redis is optional. When it is down the service runs memory-only.
	var redisClient *redis.Client
	if cfg.Cache.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisAddr,
			DB:   cfg.Cache.RedisDB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn().
				Err(err).
				Str("addr", cfg.Cache.RedisAddr).
				Msg("Redis unreachable, running with memory cache only")
			redisClient = nil
		} else {
			logger.Info().Str("addr", cfg.Cache.RedisAddr).Msg("Connected to Redis")
		}
	}

	priceCache, err := cache.New(cache.Config{
		TTL:            cfg.Cache.TTL.Std(),
		Capacity:       cfg.Cache.Capacity,
		StaleRetention: cfg.Cache.StaleRetention.Std(),
		Redis:          redisClient,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create cache")
	}

	upstreamClient, err := upstream.NewClient(upstream.Config{
		BaseURL:     cfg.Upstream.BaseURL,
		APIKey:      cfg.Upstream.APIKey,
		CallTimeout: cfg.Upstream.CallTimeout.Std(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create upstream client")
	}

	circuit := breaker.New("upstream",
		breaker.WithFailureThreshold(cfg.Breaker.FailureThreshold),
		breaker.WithRecoveryTimeout(cfg.Breaker.RecoveryTimeout.Std()),
		breaker.WithProbeBudget(cfg.Breaker.ProbeBudget),
	)

	priceFetcher, err := fetcher.New(fetcher.Config{
		Cache:   priceCache,
		Circuit: circuit,
		Retry: fetcher.RetryConfig{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay.Std(),
			MaxDelay:    cfg.Retry.MaxDelay.Std(),
		},
		Fetch: upstreamClient.FetchPrice,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create fetcher")
	}

	srv := &server{
		fetcher: priceFetcher,
		circuit: circuit,
		redis:   redisClient,
		logger:  logging.NewLogger("http"),
	}

	httpServer := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: srv.routes(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", cfg.Server.ListenAddr).Msg("Starting price proxy server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
	if redisClient != nil {
		redisClient.Close()
	}
	logger.Info().Msg("Server stopped")
}
