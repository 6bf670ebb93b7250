package getworkload

import (
	"context"
	"testing"
	"time"

	apperrors "matching-workers/internal/common/errors"
	"matching-workers/internal/common/logger"
	"matching-workers/internal/common/validation"
	"matching-workers/internal/models"
	"matching-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, engine *fakeEngine) *Handler {
	t.Helper()
	reg, err := registry.Default()
	require.NoError(t, err)
	v, err := validation.NewValidator(reg)
	require.NoError(t, err)
	return NewHandler(&Config{Timeout: 5 * time.Second}, engine, v, logger.NewTestLogger(t))
}

func job(vars string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Type: TaskType, Variables: vars, Retries: 3}}
}

type fakeEngine struct {
	err error
}

func (f *fakeEngine) GetContractorWorkload(_ context.Context, contractorID string) (*models.WorkloadSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.WorkloadSnapshot{
		ContractorID:      contractorID,
		ActiveJobs:        3,
		MaxJobs:           3,
		UtilizationRate:   100,
		PendingMilestones: 2,
		IsAvailable:       false,
	}, nil
}

func TestParseJob(t *testing.T) {
	h := newTestHandler(t, &fakeEngine{})

	input, err := h.parseJob(job(`{"contractorId":"c-1","leadId":"lead-1"}`))
	require.NoError(t, err)
	assert.Equal(t, "c-1", input.ContractorID)

	_, err = h.parseJob(job(`{}`))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

func TestExecute(t *testing.T) {
	h := newTestHandler(t, &fakeEngine{})

	out, err := h.Execute(context.Background(), &Input{ContractorID: "c-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Workload.PendingMilestones)
	assert.False(t, out.Workload.IsAvailable)
}

func TestExecute_Error(t *testing.T) {
	h := newTestHandler(t, &fakeEngine{err: apperrors.NewContractorNotFoundError("c-404")})

	_, err := h.Execute(context.Background(), &Input{ContractorID: "c-404"})
	assert.True(t, apperrors.IsNotFound(err))
}
