package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vendia/backend/internal/cache"
	"vendia/backend/internal/config"
	"vendia/backend/internal/httpapi"
	"vendia/backend/internal/logging"
	"vendia/backend/internal/notify"
	"vendia/backend/internal/reconcile"
	"vendia/backend/internal/service"
	"vendia/backend/internal/store"
	"vendia/backend/internal/store/memory"
	pgstore "vendia/backend/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogPretty)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 3)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback")
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Info().Msg("repository: postgres")
	} else {
		repo = memory.New()
		log.Info().Msg("repository: in-memory")
	}

	stockCache := cache.StockCache(cache.NoopStockCache{})
	emitter := notify.Emitter(notify.NewLogEmitter(log))
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisStockCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using noop stock cache and log emitter")
		} else {
			stockCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Info().Msg("stock cache: redis")

			redisEmitter := notify.NewRedisEmitter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.NotifyChannel)
			emitter = redisEmitter
			closers = append(closers, redisEmitter.Close)
			log.Info().Str("channel", cfg.NotifyChannel).Msg("stock events: redis pub/sub")
		}
	} else {
		log.Info().Msg("stock cache: noop, stock events: log")
	}

	engine := reconcile.New(repo, stockCache, emitter, time.Duration(cfg.StockTTLSeconds)*time.Second, cfg.CommitMaxRetries, log)
	svc := service.New(repo, engine, log)
	api := httpapi.New(svc, cfg.AllowedOrigin, log)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Address()).Msg("inventory backend listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Error().Err(err).Msg("close error")
		}
	}

	log.Info().Msg("server stopped")
}
