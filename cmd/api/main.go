package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xelth-com/eckposgo/internal/config"
	"github.com/xelth-com/eckposgo/internal/database"
	"github.com/xelth-com/eckposgo/internal/forecast"
	"github.com/xelth-com/eckposgo/internal/handlers"
	"github.com/xelth-com/eckposgo/internal/logger"
	"github.com/xelth-com/eckposgo/internal/repository"
	"github.com/xelth-com/eckposgo/internal/services/analytics"
	"github.com/xelth-com/eckposgo/internal/services/prediction"
	"github.com/xelth-com/eckposgo/internal/services/pricing"
	"github.com/xelth-com/eckposgo/internal/services/sales"
	"github.com/xelth-com/eckposgo/internal/services/staff"
	"github.com/xelth-com/eckposgo/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer appLog.Sync()

	// 2. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database, appLog)
	if err != nil {
		appLog.Fatal("failed to connect to database", "error", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 3. Auto-Migrate Schema
	appLog.Info("synchronizing database schema")
	if err := database.Migrate(db.DB); err != nil {
		appLog.Warn("migration warning", "error", err)
	}

	// 4. Services
	ctx, stopHub := context.WithCancel(context.Background())
	hub := websocket.NewHub(appLog)
	go hub.Run(ctx)
	notifier := websocket.NewNotifier(hub)

	repos := repository.New(db.DB, appLog)
	prices := pricing.NewService(repos, notifier, cfg.Store.Location, appLog)
	predictions := prediction.NewService(repos, forecast.NewModel(forecast.WithRidgeLambda(cfg.Prediction.RidgeLambda)), appLog)

	if ok, err := predictions.Restore(ctx); err != nil {
		appLog.Warn("could not restore demand model", "error", err)
	} else if !ok {
		appLog.Info("no demand model snapshot yet; train via POST /prediction/train-model")
	}
	predictions.Start(cfg.Prediction.TrainInterval)

	router := handlers.NewRouter(handlers.Deps{
		Config:     cfg,
		Repos:      repos,
		Pricing:    prices,
		Sales:      sales.NewService(repos, prices, notifier, appLog),
		Prediction: predictions,
		Analytics:  analytics.NewService(repos, appLog),
		Staff:      staff.NewService(repos, cfg.JWTSecret, appLog),
		Hub:        hub,
		Log:        appLog,
	})

	// 5. Start server with graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		appLog.Info("server starting", "port", cfg.Port, "timezone", cfg.Store.Location.String())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("failed to start server", "error", err)
		}
	}()

	sig := <-shutdown
	appLog.Info("shutting down gracefully", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Error("http server shutdown error", "error", err)
	}

	predictions.Stop()
	stopHub()

	// Close database (this also stops embedded PostgreSQL)
	appLog.Info("closing database connection")
	if err := db.Close(); err != nil {
		appLog.Error("database close error", "error", err)
	}

	appLog.Info("shutdown complete")
}
