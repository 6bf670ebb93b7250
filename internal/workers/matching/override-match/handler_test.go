package overridematch

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
	leadID        string
	contractorIDs []string
	reason        string
	err           error
}

func (f *fakeEngine) OverrideMatch(_ context.Context, leadID string, contractorIDs []string, reason string) (*models.AssignmentResult, error) {
	f.leadID, f.contractorIDs, f.reason = leadID, contractorIDs, reason
	if f.err != nil {
		return nil, f.err
	}
	result := &models.AssignmentResult{
		Lead:           models.Lead{ID: leadID, Status: models.LeadAssigned},
		OverrideReason: reason,
	}
	for _, id := range contractorIDs {
		result.Assignments = append(result.Assignments, models.LeadAssignment{ID: "a-" + id, LeadID: leadID, ContractorID: id})
	}
	return result, nil
}

func TestParseJob(t *testing.T) {
	h := newTestHandler(t, &fakeEngine{})

	input, err := h.parseJob(job(`{"leadId":"lead-1","contractorIds":["c-1","c-2"],"reason":"Customer asked for Siam Builders"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"c-1", "c-2"}, input.ContractorIDs)
	assert.Equal(t, "Customer asked for Siam Builders", input.Reason)

	for _, vars := range []string{
		`{"leadId":"lead-1","contractorIds":[],"reason":"x"}`,
		`{"leadId":"lead-1","contractorIds":["c-1"]}`,
		`{"contractorIds":["c-1"],"reason":"x"}`,
	} {
		_, err := h.parseJob(job(vars))
		require.Error(t, err, vars)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput), vars)
	}
}

func TestExecute(t *testing.T) {
	engine := &fakeEngine{}
	h := newTestHandler(t, engine)

	out, err := h.Execute(context.Background(), &Input{LeadID: "lead-1", ContractorIDs: []string{"c-1", "c-2"}, Reason: "VIP"})
	require.NoError(t, err)
	assert.Equal(t, "lead-1", engine.leadID)
	assert.Equal(t, "VIP", engine.reason)
	assert.Equal(t, models.LeadAssigned, out.Lead.Status)
	assert.Len(t, out.Assignments, 2)
	assert.Equal(t, "VIP", out.OverrideReason)
}

func TestExecute_Unavailable(t *testing.T) {
	h := newTestHandler(t, &fakeEngine{err: apperrors.NewContractorsUnavailableError([]string{"c-3"})})

	_, err := h.Execute(context.Background(), &Input{LeadID: "lead-1", ContractorIDs: []string{"c-3"}, Reason: "VIP"})
	require.Error(t, err)
	assert.True(t, apperrors.IsBadRequest(err))
}
