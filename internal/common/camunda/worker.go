// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"matching-workers/internal/common/config"
	"matching-workers/internal/common/errors"
	"matching-workers/internal/common/logger"
	"matching-workers/internal/common/metrics"
	"matching-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler processes one activated job. A returned error has already been
// reported to the broker; it is only used for instrumentation.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

// Registry opens job workers and keeps them for shutdown.
type Registry struct {
	client  zbc.Client
	logger  logger.Logger
	obs     *observability.Observability
	workers map[string]worker.JobWorker
}

func NewRegistry(client zbc.Client, log logger.Logger, obs *observability.Observability) *Registry {
	return &Registry{
		client:  client,
		logger:  log,
		obs:     obs,
		workers: make(map[string]worker.JobWorker),
	}
}

// Register opens a worker for taskType unless it is disabled in config.
func (r *Registry) Register(taskType string, wcfg config.WorkerConfig, handler JobHandler) bool {
	if !wcfg.Enabled {
		r.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	r.workers[taskType] = r.client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler, r.obs)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	r.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return true
}

// Count returns the number of open workers.
func (r *Registry) Count() int {
	return len(r.workers)
}

// Close stops polling on every worker and waits for in-flight handlers.
func (r *Registry) Close() {
	for taskType, w := range r.workers {
		w.Close()
		w.AwaitClose()
		r.logger.Info("worker stopped", map[string]interface{}{"taskType": taskType})
	}
}

// Instrument wraps a handler with prometheus and otel job metrics.
func Instrument(taskType string, handler JobHandler, obs *observability.Observability) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()

		start := time.Now()
		err := handler.Handle(client, job)
		elapsed := time.Since(start)

		status := "success"
		if err != nil {
			status = "error"
			metrics.WorkerJobsFailed.WithLabelValues(taskType, string(errors.Normalize(err).Code)).Inc()
		} else {
			metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		}
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())

		ctx := context.Background()
		obs.RecordJobProcessed(ctx, taskType, status)
		obs.RecordJobDuration(ctx, taskType, elapsed, status)
	}
}

// CompleteJob sends the job's output variables back to the broker.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		return errors.NewInternalError(err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		return errors.NewExternalServiceError("zeebe", err)
	}
	return nil
}
