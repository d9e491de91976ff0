package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fenilmodi00/ipo-analytics/config"
	"github.com/fenilmodi00/ipo-analytics/database"
	"github.com/fenilmodi00/ipo-analytics/handlers"
	"github.com/fenilmodi00/ipo-analytics/services"
	"github.com/fenilmodi00/ipo-analytics/shared"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load config
	cfg := config.LoadConfig()
	cfg.ApplyLogging()

	ctx := context.Background()

	// Prediction log is optional
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		conn, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			logrus.WithError(err).Warn("Prediction log disabled: database unavailable")
		} else {
			db = conn
			defer database.Close(db)

			if err := database.Migrate(ctx, db); err != nil {
				logrus.Warnf("Migration warning: %v", err)
			}
		}
	}

	collectors := shared.NewAnalyticsCollectors()

	// Load, engineer, label and train before serving
	engine := services.NewAnalyticsEngine(ctx, services.EngineConfig{
		DataPath:    cfg.IPODataPath,
		WarrantPath: cfg.WarrantDataPath,
		Model:       cfg.Model,
		Collectors:  collectors,
	})
	logrus.WithField("stage", engine.Stage()).Info("Model ready")

	app := handlers.NewApp(handlers.AppDeps{
		Engine:        engine,
		PredictionLog: services.NewPredictionLogService(db),
		Collectors:    collectors,
		DB:            db,
		AccessLog:     true,
	})

	// Start server
	go func() {
		logrus.Infof("Server starting on port %s", cfg.ServerPort)
		if err := app.Listen(":" + cfg.ServerPort); err != nil {
			logrus.Fatalf("Server failed to start: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logrus.Info("Shutting down server")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logrus.WithError(err).Error("Server shutdown failed")
	}
	engine.LogMetricsSummary()
}
