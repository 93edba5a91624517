package errors_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghostjob-workers/internal/common/camunda/camundatest"
	apperrors "ghostjob-workers/internal/common/errors"
	"ghostjob-workers/internal/common/logger"
)

func TestHandleJobError_RetryableFailsJob(t *testing.T) {
	client := camundatest.NewJobClient()
	job := camundatest.NewJob(7, "analyze-posting-pattern", map[string]interface{}{})

	h := apperrors.NewErrorHandler(logger.NewTestLogger(t))
	h.HandleJobError(context.Background(), client, job, apperrors.NewStoreUnavailableError("append", stderrors.New("down")))

	require.Len(t, client.Gateway.Failed, 1)
	assert.Empty(t, client.Gateway.Thrown)

	failed := client.Gateway.Failed[0]
	assert.Equal(t, int64(7), failed.JobKey)
	assert.Equal(t, int32(2), failed.Retries)
	assert.Contains(t, failed.Variables, "STORE_UNAVAILABLE")
}

func TestHandleJobError_BusinessErrorThrows(t *testing.T) {
	client := camundatest.NewJobClient()
	job := camundatest.NewJob(8, "get-posting-record", map[string]interface{}{})

	h := apperrors.NewErrorHandler(logger.NewTestLogger(t))
	h.HandleJobError(context.Background(), client, job, apperrors.NewAccessDeniedError("owner mismatch"))

	require.Len(t, client.Gateway.Thrown, 1)
	assert.Empty(t, client.Gateway.Failed)
	assert.Equal(t, "ACCESS_DENIED", client.Gateway.Thrown[0].ErrorCode)
	assert.Equal(t, "Access denied", client.Gateway.Thrown[0].ErrorMessage)
}

func TestHandleJobError_UnknownErrorThrowsInternal(t *testing.T) {
	client := camundatest.NewJobClient()
	job := camundatest.NewJob(9, "list-suspicious-companies", map[string]interface{}{})

	apperrors.NewErrorHandler(logger.NewNoOpLogger()).
		HandleJobError(context.Background(), client, job, stderrors.New("nil map"))

	require.Len(t, client.Gateway.Thrown, 1)
	assert.Equal(t, "INTERNAL_ERROR", client.Gateway.Thrown[0].ErrorCode)
}

func TestHandleJobError_LastRetryRaisesIncident(t *testing.T) {
	client := camundatest.NewJobClient()
	job := camundatest.NewJob(10, "analyze-posting-pattern", map[string]interface{}{})
	job.Retries = 1

	apperrors.NewErrorHandler(logger.NewNoOpLogger()).
		HandleJobError(context.Background(), client, job, apperrors.NewTimeoutError("history-store", context.DeadlineExceeded))

	require.Len(t, client.Gateway.Failed, 1)
	assert.Equal(t, int32(0), client.Gateway.Failed[0].Retries)
}
