package camunda

import (
	"errors"
	"testing"
	"time"

	apperrors "matching-workers/internal/common/errors"
	"matching-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type stubHandler struct {
	err   error
	calls int
}

func (s *stubHandler) Handle(worker.JobClient, entities.Job) error {
	s.calls++
	return s.err
}

func testJob() entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 42, Type: "generate-matches", Retries: 3}}
}

func TestInstrument_Success(t *testing.T) {
	taskType := "instrument-success-test"
	h := &stubHandler{}

	before := testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(taskType))
	Instrument(taskType, h, nil)(nil, testJob())

	assert.Equal(t, 1, h.calls)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(taskType)))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
}

func TestInstrument_FailureUsesErrorCode(t *testing.T) {
	taskType := "instrument-failure-test"

	Instrument(taskType, &stubHandler{err: apperrors.NewLeadNotFoundError("l-1")}, nil)(nil, testJob())
	Instrument(taskType, &stubHandler{err: errors.New("raw")}, nil)(nil, testJob())

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.WorkerJobsFailed.WithLabelValues(taskType, "LEAD_NOT_FOUND")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.WorkerJobsFailed.WithLabelValues(taskType, "INTERNAL_ERROR")))
}

func TestBackoff(t *testing.T) {
	rc := &RetryConfig{BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	assert.Equal(t, time.Second, backoff(rc, 0))
	assert.Equal(t, 2*time.Second, backoff(rc, 1))
	assert.Equal(t, 4*time.Second, backoff(rc, 2))
	assert.Equal(t, 5*time.Second, backoff(rc, 3))
	assert.Equal(t, 5*time.Second, backoff(rc, 62))
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(errors.New("rpc error: code = Unavailable desc = connection refused")))
	assert.True(t, isRetryableZeebeError(errors.New("context deadline exceeded")))
	assert.False(t, isRetryableZeebeError(errors.New("permission denied")))
}

func TestMapZeebeError(t *testing.T) {
	assert.True(t, apperrors.HasCode(mapZeebeError(errors.New("deadline exceeded"), "connect"), apperrors.ErrCodeTimeout))
	assert.True(t, apperrors.HasCode(mapZeebeError(errors.New("unauthorized"), "connect"), apperrors.ErrCodeAuthentication))
	assert.True(t, apperrors.HasCode(mapZeebeError(errors.New("connection refused"), "connect"), apperrors.ErrCodeExternalService))
}
