package validation

import (
	"testing"

	apperrors "matching-workers/internal/common/errors"
	"matching-workers/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	reg, err := registry.Default()
	require.NoError(t, err)
	v, err := NewValidator(reg)
	require.NoError(t, err)
	return v
}

func TestValidateInput(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name     string
		taskType string
		input    map[string]interface{}
		wantErr  string
	}{
		{
			name:     "generate matches minimal",
			taskType: "generate-matches",
			input:    map[string]interface{}{"leadId": "lead-1"},
		},
		{
			name:     "process variables are tolerated",
			taskType: "generate-matches",
			input:    map[string]interface{}{"leadId": "lead-1", "maxMatches": float64(3), "customerEmail": "x@example.co.th"},
		},
		{
			name:     "missing lead id",
			taskType: "generate-matches",
			input:    map[string]interface{}{"maxMatches": float64(3)},
			wantErr:  "leadId",
		},
		{
			name:     "fractional max matches",
			taskType: "generate-matches",
			input:    map[string]interface{}{"leadId": "lead-1", "maxMatches": 2.5},
			wantErr:  "maxMatches",
		},
		{
			name:     "unknown response",
			taskType: "contractor-response",
			input:    map[string]interface{}{"assignmentId": "a-1", "response": "NO_RESPONSE"},
			wantErr:  "response",
		},
		{
			name:     "null decline reason",
			taskType: "contractor-response",
			input:    map[string]interface{}{"assignmentId": "a-1", "response": "ACCEPTED", "declineReason": nil},
		},
		{
			name:     "override needs contractors",
			taskType: "override-match",
			input:    map[string]interface{}{"leadId": "lead-1", "contractorIds": []interface{}{}, "reason": "VIP"},
			wantErr:  "contractorIds",
		},
		{
			name:     "queue limit out of range",
			taskType: "get-lead-queue",
			input:    map[string]interface{}{"limit": float64(1000)},
			wantErr:  "limit",
		},
		{
			name:     "queue without variables",
			taskType: "get-lead-queue",
			input:    nil,
		},
		{
			name:     "unregistered task type",
			taskType: "send-notification",
			input:    map[string]interface{}{},
			wantErr:  "no input schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateInput(tt.taskType, tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
			std, ok := apperrors.AsStandardError(err)
			require.True(t, ok)
			assert.Contains(t, std.Details, tt.wantErr)
		})
	}
}

func TestCheck_CollectsAllErrors(t *testing.T) {
	v := newValidator(t)

	result, err := v.Check("contractor-response", map[string]interface{}{"response": "MAYBE"})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "(root)", result.Errors[0].Field)
	assert.Equal(t, "required", result.Errors[0].Code)
	assert.Equal(t, "response", result.Errors[1].Field)
}

func TestNewValidator_RejectsBrokenSchema(t *testing.T) {
	reg := &registry.ActivityRegistry{Activities: []registry.Activity{
		{ID: "matching.lead.generate", TaskType: "generate-matches", InputSchema: map[string]interface{}{"type": 42}},
	}}
	_, err := NewValidator(reg)
	assert.Error(t, err)
}
