// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"loan-journey/internal/common/camunda"
	"loan-journey/internal/common/config"
	"loan-journey/internal/common/logger"
	"loan-journey/internal/common/observability"
	"loan-journey/internal/common/random"
	"loan-journey/internal/store"

	// Journey agents (5)
	ma "loan-journey/internal/workers/journey/master-agent"
	sa "loan-journey/internal/workers/journey/sales-agent"
	sca "loan-journey/internal/workers/journey/sanction-agent"
	ua "loan-journey/internal/workers/journey/underwriting-agent"
	va "loan-journey/internal/workers/journey/verification-agent"

	// Application workers (2)
	pa "loan-journey/internal/workers/application/persist-application"
	sn "loan-journey/internal/workers/application/send-notification"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New("worker-manager")
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer obs.Shutdown()
	camunda.SetJobRecorder(obs)

	ctx := context.Background()

	// --- Init Zeebe Client (retries until the topology answers) ---
	zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		RetryConfig: &camunda.RetryConfig{
			MaxRetries: 10,
			BaseDelay:  2 * time.Second,
			MaxDelay:   30 * time.Second,
		},
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init application store ---
	appStore, closeStore, err := store.Open(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("application store failed", zap.Error(err))
	}
	defer closeStore()

	// --- Init notification clients ---
	notifier, err := sn.NewFromConfig(ctx, cfg.Notifications, log)
	if err != nil {
		zapLog.Fatal("notification clients failed", zap.Error(err))
	}

	rnd := random.New(cfg.Journey.RandomSeed)
	client := zeebe.GetClient()

	// --- Register workers ---
	handlers := []struct {
		taskType string
		handle   worker.JobHandler
	}{
		{ma.TaskType, ma.NewHandler(ma.LoadConfig(), log).Handle},
		{sa.TaskType, sa.NewHandler(sa.LoadConfig(), log).Handle},
		{va.TaskType, va.NewHandler(va.LoadConfig(cfg.Journey), rnd, log).Handle},
		{ua.TaskType, ua.NewHandler(ua.LoadConfig(), rnd, log).Handle},
		{sca.TaskType, sca.NewHandler(sca.LoadConfig(), nil, log).Handle},
		{pa.TaskType, pa.NewHandler(pa.LoadConfig(), appStore, log).Handle},
		{sn.TaskType, notifier.Handle},
	}

	var workers []worker.JobWorker
	for _, h := range handlers {
		wcfg := config.GetWorkerConfig(cfg, h.taskType)
		if w := camunda.StartWorker(client, h.taskType, wcfg, h.handle, log); w != nil {
			workers = append(workers, w)
		}
	}
	zapLog.Info("workers registered", zap.Int("started", len(workers)), zap.Int("known", len(handlers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := zeebe.HealthCheck(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "zeebe unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	if cfg.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	srv := &http.Server{Addr: cfg.Metrics.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
