package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/lmoretti/voxgate/internal/config"
	"github.com/lmoretti/voxgate/internal/gateway"
	"github.com/lmoretti/voxgate/internal/httpapi"
	"github.com/lmoretti/voxgate/internal/logging"
	"github.com/lmoretti/voxgate/internal/observability"
	"github.com/lmoretti/voxgate/internal/tts"
	"github.com/lmoretti/voxgate/internal/whisper"
)

func main() {
	// A local .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.New(logging.Options{JSON: cfg.LogJSON, Verbose: cfg.LogVerbose})
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	manager := whisper.NewManager(whisper.ManagerConfig{
		CLI:      cfg.WhisperCLI,
		Size:     cfg.WhisperModel,
		ModelDir: cfg.WhisperModelDir,
		Device:   cfg.WhisperDevice,
		Threads:  cfg.WhisperThreads,
	}, logger)
	pool := whisper.NewPool(cfg.AlignMaxConcurrency)
	engine := whisper.NewEngine(manager, pool, cfg.AlignTimeout, metrics, logger)

	backend := tts.NewClient(cfg.TTSBackendURL, cfg.TTSBackendTimeout, metrics, logger)
	orchestrator := gateway.New(backend, engine, logger)

	api := httpapi.New(cfg, backend, engine, orchestrator, metrics, logger)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		logger.Info("gateway listening",
			zap.String("addr", cfg.BindAddr),
			zap.String("tts_backend", cfg.TTSBackendURL),
			zap.String("whisper_model", cfg.WhisperModel),
			zap.String("whisper_device", cfg.WhisperDevice))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		_ = httpServer.Close()
	}
	logger.Info("shutdown complete")
}
