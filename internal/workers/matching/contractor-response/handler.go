// internal/workers/matching/contractor-response/handler.go
package contractorresponse

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

const TaskType = "contractor-response"

// ResponseRecorder records the answer and, on a decline, runs the reassignment
// cascade. A cascade failure comes back in the result, not as an error.
type ResponseRecorder interface {
	HandleContractorResponse(ctx context.Context, assignmentID string, response models.AssignmentResponse, declineReason *string) (*models.ResponseResult, error)
}

type InputValidator interface {
	ValidateInput(taskType string, input map[string]interface{}) error
}

type Handler struct {
	config       *Config
	engine       ResponseRecorder
	validator    InputValidator
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(cfg *Config, engine ResponseRecorder, validator InputValidator, log logger.Logger) *Handler {
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
	result, err := h.engine.HandleContractorResponse(ctx, input.AssignmentID, input.Response, input.DeclineReason)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"assignmentId": input.AssignmentID,
		"leadId":       result.Assignment.LeadID,
		"response":     string(input.Response),
	}
	// cascade is nil for ACCEPTED
	if result.Cascade != nil {
		fields["cascade"] = string(result.Cascade.Outcome)
	}
	h.logger.Info("contractor response recorded", fields)

	return &Output{Assignment: result.Assignment, Cascade: result.Cascade}, nil
}
