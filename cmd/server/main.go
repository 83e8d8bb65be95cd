package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"ashiato/journal/internal/clients"
	"ashiato/journal/internal/config"
	internalhttp "ashiato/journal/internal/http"
	"ashiato/journal/internal/jobs"
	"ashiato/journal/internal/session"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(slog.New(newLogHandler(cfg.LogFormat)))
	if cfg.UsesDefaultCSRFKey() {
		slog.Warn("csrf_key_default", "reason", "CSRF_KEY not set; form tokens use the public development key")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := clients.New(cfg.APIBaseURL, cfg.APITimeout)

	var sessions session.Store
	var sweeper jobs.Sweeper
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatalf("redis ping failed: %v", err)
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				slog.Warn("redis_close_failed", "error", err.Error())
			}
		}()
		sessions = session.NewRedisStore(redisClient, cfg.SessionTTL)
	} else {
		memory := session.NewMemoryStore(cfg.SessionTTL)
		sessions, sweeper = memory, memory
		slog.Warn("sessions_in_memory", "reason", "REDIS_ADDR not set")
	}
	jobs.StartSessionSweepJob(ctx, cfg, sweeper)

	server := internalhttp.NewServer(cfg, api, sessions)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("journal http listening", "addr", cfg.HTTPAddr, "api", cfg.APIBaseURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown_failed", "error", err.Error())
	}
}

func newLogHandler(format string) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(os.Stdout, nil)
	}
	return slog.NewTextHandler(os.Stdout, nil)
}
