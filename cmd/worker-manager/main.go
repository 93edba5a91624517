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

	"ghostjob-workers/internal/bootstrap"
	"ghostjob-workers/internal/common/camunda"
	"ghostjob-workers/internal/common/config"
	"ghostjob-workers/internal/common/logger"
	"ghostjob-workers/internal/common/observability"
	"ghostjob-workers/internal/detection/fleet"
	"ghostjob-workers/internal/detection/pattern"
	"ghostjob-workers/internal/judge"
	"ghostjob-workers/pkg/registry"

	app "ghostjob-workers/internal/workers/ghostjob/analyze-posting-pattern"
	gpr "ghostjob-workers/internal/workers/ghostjob/get-posting-record"
	jpa "ghostjob-workers/internal/workers/ghostjob/judge-posting-authenticity"
	lsc "ghostjob-workers/internal/workers/ghostjob/list-suspicious-companies"
	rps "ghostjob-workers/internal/workers/ghostjob/record-posting-sighting"
)

var taskTypes = []string{app.TaskType, lsc.TaskType, jpa.TaskType, gpr.TaskType, rps.TaskType}

func main() {
	bootLog := logger.New("info", "console", "stdout")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("storeBackend", cfg.Store.Backend),
	)

	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.String("path", cfg.Registry.Path), zap.Error(err))
	}
	if err := reg.Validate(taskTypes...); err != nil {
		zapLog.Fatal("activity registry is inconsistent", zap.Error(err))
	}

	obs := observability.New(cfg.App.Name, zapLog)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = bootstrap.Retry(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
		return err
	}, bootstrap.DefaultOptions(), log, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init posting history ---
	res, err := bootstrap.Open(ctx, cfg, bootstrap.Options{Attempts: 15, Delay: 2 * time.Second}, log)
	if err != nil {
		zapLog.Fatal("posting history unavailable", zap.Error(err))
	}
	defer res.Close()

	policy := pattern.Policy{
		SimilarityThreshold: cfg.Detection.SimilarityThreshold,
		RecentWindow:        time.Duration(cfg.Detection.RecentWindowDays) * 24 * time.Hour,
	}
	service := pattern.NewService(res.Store, policy, log)
	aggregator := fleet.NewAggregator(res.Store, cfg.Store.PageSize, log)

	// --- Register workers ---
	var workers []worker.JobWorker
	mustValidate := func(taskType string, err error) {
		if err != nil {
			zapLog.Fatal("invalid worker config", zap.String("taskType", taskType), zap.Error(err))
		}
	}
	register := func(taskType string, handler worker.JobHandler) {
		if w := camunda.StartWorker(zeebe.GetClient(), taskType, bootstrap.WorkerConfig(cfg, reg, taskType), handler, log); w != nil {
			workers = append(workers, w)
		}
	}

	analyzeCfg := app.FromWorkerConfig(bootstrap.WorkerConfig(cfg, reg, app.TaskType))
	mustValidate(app.TaskType, analyzeCfg.Validate())
	register(app.TaskType, app.NewHandler(analyzeCfg, service, log, obs).Handle)

	fleetCfg := lsc.FromWorkerConfig(bootstrap.WorkerConfig(cfg, reg, lsc.TaskType))
	mustValidate(lsc.TaskType, fleetCfg.Validate())
	register(lsc.TaskType, lsc.NewHandler(fleetCfg, aggregator, res.Redis, log, obs).Handle)

	getCfg := gpr.FromWorkerConfig(bootstrap.WorkerConfig(cfg, reg, gpr.TaskType))
	mustValidate(gpr.TaskType, getCfg.Validate())
	register(gpr.TaskType, gpr.NewHandler(getCfg, service, log, obs).Handle)

	sightCfg := rps.FromWorkerConfig(bootstrap.WorkerConfig(cfg, reg, rps.TaskType))
	mustValidate(rps.TaskType, sightCfg.Validate())
	register(rps.TaskType, rps.NewHandler(sightCfg, service, log, obs).Handle)

	if cfg.Judge.Enabled {
		gen, err := judge.NewGeminiGenerator(ctx, cfg.Judge.APIKey, cfg.Judge.Model, cfg.Judge.Temperature)
		if err != nil {
			zapLog.Fatal("judge init failed", zap.Error(err))
		}
		j := judge.New(gen, judge.Options{
			Timeout:           config.GetDuration(cfg.Judge.Timeout),
			RequestsPerMinute: cfg.Judge.RequestsPerMinute,
			Burst:             cfg.Judge.Burst,
		}, log)
		judgeCfg := jpa.FromWorkerConfig(bootstrap.WorkerConfig(cfg, reg, jpa.TaskType))
		mustValidate(jpa.TaskType, judgeCfg.Validate())
		register(jpa.TaskType, jpa.NewHandler(judgeCfg, j, log, obs).Handle)
		zapLog.Info("authenticity judge enabled", zap.String("model", gen.Model()))
	} else {
		zapLog.Info("authenticity judge disabled, not starting worker", zap.String("taskType", jpa.TaskType))
	}

	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err)
			return
		}
		writeStatus(w, http.StatusOK, "ready", nil)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Metrics.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
		w.AwaitClose()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func writeStatus(w http.ResponseWriter, code int, status string, err error) {
	body := map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if err != nil {
		body["error"] = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
