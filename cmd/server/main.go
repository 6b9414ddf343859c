// Command server exposes the survey loader as a small HTTP API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/statforge/blsload/internal/api"
	"github.com/statforge/blsload/internal/cache"
	"github.com/statforge/blsload/internal/config"
	"github.com/statforge/blsload/internal/dataset"
	"github.com/statforge/blsload/internal/flatfile"
	"github.com/statforge/blsload/internal/pkg/distlock"
	"github.com/statforge/blsload/internal/pkg/logger"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Error("cache init failed", "error", err)
		os.Exit(1)
	}

	opts := []flatfile.Option{flatfile.WithScratchDir(cfg.Archive.ScratchDir)}
	if store != nil {
		opts = append(opts, flatfile.WithCache(store))
	}
	if cfg.Archive.DisableFallback {
		opts = append(opts, flatfile.WithoutFallback())
	}
	collector := dataset.NewCollector(flatfile.NewFetcher(opts...))

	// With a shared Redis cache, serialize survey refreshes across
	// processes so concurrent requests download the archive once.
	var loader api.Loader = collector
	if rs, ok := store.(*cache.RedisStore); ok {
		locks := func(key string) distlock.Lock {
			return distlock.NewRedisLock(rs.Client(), key, 5*time.Minute)
		}
		loader = dataset.NewGuardedCollector(collector, locks, 30*time.Second)
	}

	handlers := api.NewHandlers(loader, cfg.Archive.BaseURL)
	router := api.SetupRoutes(handlers)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // survey fetches are slow
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

func buildStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "none":
		return nil, nil
	case "disk":
		return cache.NewDiskStore(cfg.Cache.Dir)
	case "redis":
		store := cache.NewRedisStore(cfg.Cache.RedisAddr,
			time.Duration(cfg.Cache.RedisTTLMinutes)*time.Minute)
		if err := store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis at %s: %w", cfg.Cache.RedisAddr, err)
		}
		return store, nil
	case "s3":
		return cache.NewS3Store(ctx, cfg.Cache.S3Bucket, cfg.Cache.S3Region)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}
