package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fuelplanner/internal/app"
	"fuelplanner/internal/config"
	"fuelplanner/internal/log"
	"fuelplanner/internal/telegram"
)

const (
	staleChatAfter = 30 * 24 * time.Hour
	metricsRetain  = 90
)

func main() {
	// 1. Load Configuration
	log.Init(log.Config{})
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("failed to load config")
	}
	log.Init(log.Config{Level: log.Level(cfg.LogLevel), JSONOutput: cfg.LogJSON})
	logger := log.WithComponent("main")

	if err := cfg.RequireTelegram(); err != nil {
		logger.Fatal().Err(err).Msg("telegram is not configured")
	}

	ctx := context.Background()

	// 2. Initialize stores
	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize app")
	}
	defer application.Close()

	sessions := telegram.NewSessionRepository(application.DB())
	if n, err := sessions.CleanupStale(ctx, time.Now().Add(-staleChatAfter)); err != nil {
		logger.Warn().Err(err).Msg("failed to clean up chat sessions")
	} else if n > 0 {
		logger.Info().Int64("removed", n).Msg("stale chat sessions removed")
	}
	if _, err := application.Metrics().Cleanup(ctx, metricsRetain); err != nil {
		logger.Warn().Err(err).Msg("failed to clean up execution metrics")
	}

	// 3. Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg, application, sessions)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize telegram bot")
	}

	mux := http.NewServeMux()
	bot.RegisterHandlers(mux)

	// 4. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("telegram bot server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	// Pending debounced saves are written before the database closes.
	bot.Close(ctxShutdown)

	logger.Info().Msg("server exiting")
}
