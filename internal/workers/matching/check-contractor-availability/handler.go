// internal/workers/matching/check-contractor-availability/handler.go
package checkavailability

import (
	"context"
	"encoding/json"

	"matching-workers/internal/common/camunda"
	apperrors "matching-workers/internal/common/errors"
	"matching-workers/internal/common/logger"
	"matching-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "check-contractor-availability"

type AvailabilityChecker interface {
	CheckContractorAvailability(ctx context.Context, contractorID string) (*models.AvailabilitySnapshot, error)
}

type InputValidator interface {
	ValidateInput(taskType string, input map[string]interface{}) error
}

type Handler struct {
	config       *Config
	engine       AvailabilityChecker
	validator    InputValidator
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(cfg *Config, engine AvailabilityChecker, validator InputValidator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       cfg,
		engine:       engine,
		validator:    validator,
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := h.parseJob(job)
	if err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return err
	}

	if err := camunda.CompleteJob(context.Background(), client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{"jobKey": job.Key, "error": err.Error()})
		return err
	}
	return nil
}

func (h *Handler) parseJob(job entities.Job) (*Input, error) {
	vars, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, apperrors.NewInvalidInputError("job variables are not a JSON object: " + err.Error())
	}
	if err := h.validator.ValidateInput(TaskType, vars); err != nil {
		return nil, err
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	return &input, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	snapshot, err := h.engine.CheckContractorAvailability(ctx, input.ContractorID)
	if err != nil {
		return nil, err
	}
	return &Output{Availability: snapshot}, nil
}
