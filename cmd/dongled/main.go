package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dongle-tracker-backend/config"
	"dongle-tracker-backend/internal/api"
	"dongle-tracker-backend/internal/db"
	"dongle-tracker-backend/internal/logs"
	"dongle-tracker-backend/internal/store"
)

func main() {
	// Load configuration. An explicit CONFIG_PATH must exist; otherwise a
	// missing default file means "run with defaults" (local sqlite store).
	configPath := os.Getenv("CONFIG_PATH")
	explicit := configPath != ""
	if !explicit {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		if explicit || !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", configPath, err)
			os.Exit(1)
		}
		cfg = config.Default()
	}

	logger := logs.New(cfg.Logging.Level, cfg.Logging.Format)
	logger.WithField("driver", cfg.Database.Driver).Info("starting dongle tracker")

	// Initialize the storage medium. Unusable storage at startup is fatal.
	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Info("database initialized")

	// The store handle lives for the whole process and is injected into
	// the presentation layer; nothing else touches the tables.
	appStore := store.NewGormStore(gormDB)

	router := api.NewRouter(appStore, &cfg.Server, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Infof("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received, stopping server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("server gracefully stopped")
}
