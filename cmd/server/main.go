package main

// Entry point for the pump failure scoring service.
//
// Responsibilities:
//   - Load and validate configuration from YAML and environment variables
//   - Build the structured logger
//   - Open the artifact store and restore the most recent trained model
//   - Train an initial model in the background when none is persisted
//     (the rule-based fallback serves predictions until it completes)
//   - Start the HTTP server and the live score feed
//   - Implement graceful shutdown with signal handling

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/neuramaint/pumpml/internal/config"
	"github.com/neuramaint/pumpml/internal/logging"
	"github.com/neuramaint/pumpml/internal/predictor"
	"github.com/neuramaint/pumpml/internal/server"
	"github.com/neuramaint/pumpml/internal/store"
)

func main() {
	configPath := os.Getenv("PUMPML_CONFIG")
	if configPath == "" {
		configPath = "/etc/pumpml/config.yaml"
	}

	ctx := context.Background()

	mgr := config.NewManager(configPath)
	if err := mgr.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := mgr.Validate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := mgr.Get(ctx)

	log, err := logging.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	artifacts, err := store.Open(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatal("failed to open artifact store", zap.Error(err))
	}
	defer artifacts.Close()

	engine := predictor.NewEngine(log, artifacts)

	if err := engine.LoadArtifacts(ctx); err != nil {
		if errors.Is(err, store.ErrArtifactNotFound) {
			if cfg.Model.AutoTrain {
				log.Info("no persisted model found, training initial model in background")
				go trainInitial(cfg, log, engine)
			} else {
				log.Warn("no persisted model found, serving rule-based predictions")
			}
		} else {
			log.Error("failed to load model artifacts, serving rule-based predictions", zap.Error(err))
		}
	}

	srv := server.New(cfg, log, engine)
	if err := srv.Start(); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info("received shutdown signal")

	if err := srv.Stop(); err != nil {
		log.Error("error stopping server", zap.Error(err))
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// trainInitial runs the startup training under the configured deadline.
// Failure is non-fatal: scoring keeps degrading to the rule-based fallback.
func trainInitial(cfg *config.Config, log *zap.Logger, engine *predictor.Engine) {
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.RetrainTimeoutS)*time.Second)
	defer cancel()

	if _, err := engine.Retrain(ctx, cfg.Model.SampleCount, cfg.Model.Contamination); err != nil {
		log.Error("initial model training failed", zap.Error(err))
	}
}
