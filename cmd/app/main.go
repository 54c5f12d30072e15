package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexivanou/weatherquery-api/internal/api"
	"github.com/alexivanou/weatherquery-api/internal/app"
	"github.com/alexivanou/weatherquery-api/internal/config"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	stack, err := app.Build(context.Background(), cfg, "migrations", logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer stack.Close()

	if cfg.Intent.APIKey == "" {
		logger.Warn("INTENT_API_KEY is not set, intent extraction requests will be rejected upstream")
	}

	var auth *api.TokenAuth
	if cfg.Auth.Enabled() {
		auth = api.NewTokenAuth(cfg.Auth)
	} else {
		logger.Warn("AUTH_JWT_SECRET is not set, API routes are unauthenticated")
	}

	router := api.NewRouter(stack.Service, stack.Stats, auth, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
