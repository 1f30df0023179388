package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fabtrain/console/internal/config"
	"github.com/fabtrain/console/internal/database"
	"github.com/fabtrain/console/internal/feed"
	"github.com/fabtrain/console/internal/handler"
	"github.com/fabtrain/console/internal/hub"
	"github.com/fabtrain/console/internal/logger"
	"github.com/fabtrain/console/internal/middleware"
	"github.com/fabtrain/console/internal/router"
	"github.com/fabtrain/console/internal/service"
	"github.com/fabtrain/console/internal/transport"
	"github.com/fabtrain/console/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const janitorInterval = time.Minute

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("backend", cfg.BackendURL).
		Msg("Starting train console")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to Redis (optional) ───────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	var store feed.Store = feed.NewMemoryStore()
	if rdb != nil {
		defer rdb.Close()
		store = feed.NewRedisStore(rdb, config.CacheKey.FeedKey())
	}

	// ─── Event Hub ─────────────────────────────────────────────────────
	eventHub := hub.New(rdb, config.CacheKey.EventsChannel(), log)
	feedService := service.NewFeedService(store, eventHub, eventHub, log)

	// ─── Backend Transport ─────────────────────────────────────────────
	client := transport.NewClient(cfg.BackendURL, transport.Options{
		QueueSize:  cfg.EmitQueueSize,
		MaxBackoff: cfg.ReconnectMaxWait,
		OnFrame:    feedService.HandleFrame,
		OnStatus: func(connected bool) {
			ev := hub.Event{Event: hub.EventStatus, Data: gin.H{"connected": connected}}
			if err := eventHub.Publish(context.Background(), ev); err != nil {
				log.Warn().Err(err).Msg("Publish status failed")
			}
		},
	}, log)

	// ─── Initialize Services ──────────────────────────────────────────
	formService := service.NewFormService(client, eventHub, cfg.FormTTL, log)
	ledgerService := service.NewLedgerService(client, eventHub, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Form:   handler.NewFormHandler(formService),
		Train:  handler.NewTrainHandler(formService, feedService, ledgerService),
		WS:     handler.NewWSHandler(eventHub, feedService, client, log, cfg.AllowedOrigins),
		System: handler.NewSystemHandler(client, eventHub, formService),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		if err := client.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Backend transport stopped")
		}
	}()
	go func() {
		defer wg.Done()
		if err := eventHub.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Event hub stopped")
		}
	}()
	go func() {
		defer wg.Done()
		formService.RunJanitor(workerCtx, janitorInterval)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	submitLimiter := middleware.NewRateLimiter(workerCtx, cfg.SubmitRateLimit, time.Minute)
	r := router.SetupRouter(handlers, submitLimiter, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Close the backend connection and stop the hub and janitor.
	workerCancel()
	wg.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
