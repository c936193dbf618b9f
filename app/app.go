// File: app/app.go
package app

import (
	"context"
	"go-access-gate/config"
	"go-access-gate/logger"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func Run() {
	config.LoadConfig(".")
	cfg := config.AppConfig
	logger.Init()
	logger.SetLevel(cfg.Log.Level)
	logger.Log.Info("Logger initialized")
	logger.Log.WithField("issuance_mode", cfg.Issuance.Mode).Info("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := NewStore(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("Error opening token store: %v", err)
	}
	defer closeStore()

	// Nothing token-dependent is served if the store cannot be read.
	if _, err := store.Load(ctx); err != nil {
		logger.Log.Fatalf("Token store is unreadable: %v", err)
	}

	a, err := New(cfg, store)
	if err != nil {
		logger.Log.Fatalf("Error building application: %v", err)
	}

	if interval := cfg.Tokens.SweepInterval; interval > 0 {
		go a.RunSweeper(ctx, interval)
	}

	// --- Start the Server with Graceful Shutdown ---
	port := cfg.Server.Port
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
