// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"matching-workers/internal/bootstrap"
	"matching-workers/internal/common/camunda"
	"matching-workers/internal/common/config"
	"matching-workers/internal/common/logger"
	"matching-workers/internal/common/observability"
	"matching-workers/internal/common/validation"
	"matching-workers/internal/matching"
	"matching-workers/pkg/registry"

	ac "matching-workers/internal/workers/matching/assign-contractors"
	ca "matching-workers/internal/workers/matching/check-contractor-availability"
	cr "matching-workers/internal/workers/matching/contractor-response"
	gm "matching-workers/internal/workers/matching/generate-matches"
	gcl "matching-workers/internal/workers/matching/get-contractor-leads"
	gw "matching-workers/internal/workers/matching/get-contractor-workload"
	glq "matching-workers/internal/workers/matching/get-lead-queue"
	om "matching-workers/internal/workers/matching/override-match"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "worker-manager: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output).
		WithFields(map[string]interface{}{"service": cfg.App.Name, "version": cfg.App.Version})
	log.Info("starting worker manager", map[string]interface{}{"environment": cfg.App.Environment})

	obs, err := observability.New(observability.Config{
		ServiceName:    cfg.Observability.ServiceName,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		return fmt.Errorf("load activity registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return err
	}
	validator, err := validation.NewValidator(reg)
	if err != nil {
		return err
	}

	svc, err := bootstrap.Build(ctx, cfg, log, obs.Tracer(), bootstrap.DefaultRetry)
	if err != nil {
		return err
	}
	defer svc.Close()

	zc, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	}, log)
	if err != nil {
		return err
	}
	defer zc.Close()
	log.Info("zeebe client connected", map[string]interface{}{"gateway": cfg.Camunda.BrokerAddress})

	workers := camunda.NewRegistry(zc.Zeebe(), log, obs)
	registerWorkers(workers, reg, cfg, svc.Engine, validator, log)
	log.Info("workers registered", map[string]interface{}{"count": workers.Count()})

	srv := newHealthServer(cfg.App.HTTPAddress, svc, zc)
	go func() {
		log.Info("health/metrics server listening", map[string]interface{}{"address": cfg.App.HTTPAddress})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health/metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, stopping workers", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workers.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("health server shutdown", map[string]interface{}{"error": err.Error()})
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Warn("observability shutdown", map[string]interface{}{"error": err.Error()})
	}

	log.Info("worker manager stopped", nil)
	return nil
}

func registerWorkers(workers *camunda.Registry, reg *registry.ActivityRegistry, cfg *config.Config, engine *matching.Engine, validator *validation.Validator, log logger.Logger) {
	handlers := map[string]camunda.JobHandler{
		gm.TaskType:  gm.NewHandler(gm.NewConfig(config.GetWorkerConfig(cfg, gm.TaskType)), engine, validator, log),
		om.TaskType:  om.NewHandler(om.NewConfig(config.GetWorkerConfig(cfg, om.TaskType)), engine, validator, log),
		ac.TaskType:  ac.NewHandler(ac.NewConfig(config.GetWorkerConfig(cfg, ac.TaskType)), engine, validator, log),
		cr.TaskType:  cr.NewHandler(cr.NewConfig(config.GetWorkerConfig(cfg, cr.TaskType)), engine, validator, log),
		ca.TaskType:  ca.NewHandler(ca.NewConfig(config.GetWorkerConfig(cfg, ca.TaskType)), engine, validator, log),
		gw.TaskType:  gw.NewHandler(gw.NewConfig(config.GetWorkerConfig(cfg, gw.TaskType)), engine, validator, log),
		glq.TaskType: glq.NewHandler(glq.NewConfig(config.GetWorkerConfig(cfg, glq.TaskType)), engine, validator, log),
		gcl.TaskType: gcl.NewHandler(gcl.NewConfig(config.GetWorkerConfig(cfg, gcl.TaskType)), engine, validator, log),
	}

	// registry order keeps startup logs stable
	for _, taskType := range reg.TaskTypes() {
		if activity, _ := reg.Find(taskType); !activity.Implemented() {
			log.Info("activity not implemented, skipping", map[string]interface{}{
				"taskType": taskType,
				"status":   string(activity.Status),
			})
			delete(handlers, taskType)
			continue
		}
		handler, ok := handlers[taskType]
		if !ok {
			log.Warn("activity has no worker implementation", map[string]interface{}{"taskType": taskType})
			continue
		}
		workers.Register(taskType, config.GetWorkerConfig(cfg, taskType), handler)
		delete(handlers, taskType)
	}
	for taskType := range handlers {
		log.Error("worker not registered: task type missing from activity registry", map[string]interface{}{"taskType": taskType})
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

func newHealthServer(addr string, stores pinger, zeebe healthChecker) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", "")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := stores.Ping(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err.Error())
			return
		}
		if err := zeebe.HealthCheck(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err.Error())
			return
		}
		writeStatus(w, http.StatusOK, "ready", "")
	})
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func writeStatus(w http.ResponseWriter, code int, status, reason string) {
	body := map[string]string{"status": status}
	if reason != "" {
		body["reason"] = reason
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
