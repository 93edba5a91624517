package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghostjob-workers/internal/common/camunda/camundatest"
	"ghostjob-workers/internal/common/config"
	"ghostjob-workers/internal/common/errors"
	"ghostjob-workers/internal/common/logger"
)

type echoOutput struct {
	Echo string `json:"echo"`
}

func TestRunner_CompletesJob(t *testing.T) {
	client := camundatest.NewJobClient()
	job := camundatest.NewJob(1, "echo", map[string]interface{}{"message": "hi"})

	runner := NewRunner("echo", time.Second, logger.NewTestLogger(t), nil)
	runner.Run(client, job, func(ctx context.Context, vars map[string]interface{}) (interface{}, error) {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return echoOutput{Echo: vars["message"].(string)}, nil
	})

	vars := client.CompletedVariables()
	require.NotNil(t, vars)
	assert.Equal(t, "hi", vars["echo"])
	assert.Empty(t, client.Gateway.Failed)
	assert.Empty(t, client.Gateway.Thrown)
}

func TestRunner_BusinessErrorIsThrown(t *testing.T) {
	client := camundatest.NewJobClient()
	job := camundatest.NewJob(2, "echo", map[string]interface{}{})

	runner := NewRunner("echo", time.Second, logger.NewNoOpLogger(), nil)
	runner.Run(client, job, func(context.Context, map[string]interface{}) (interface{}, error) {
		return nil, errors.NewInvalidInputError("message is required")
	})

	assert.Empty(t, client.Gateway.Completed)
	require.Len(t, client.Gateway.Thrown, 1)
	assert.Equal(t, "INVALID_INPUT", client.Gateway.Thrown[0].ErrorCode)
}

func TestRunner_RetryableErrorFailsJob(t *testing.T) {
	client := camundatest.NewJobClient()
	job := camundatest.NewJob(3, "echo", map[string]interface{}{})

	runner := NewRunner("echo", time.Second, logger.NewNoOpLogger(), nil)
	runner.Run(client, job, func(context.Context, map[string]interface{}) (interface{}, error) {
		return nil, errors.NewStoreUnavailableError("query_by_company", stderrors.New("down"))
	})

	require.Len(t, client.Gateway.Failed, 1)
	assert.Equal(t, int32(2), client.Gateway.Failed[0].Retries)
}

func TestRunner_BadVariables(t *testing.T) {
	client := camundatest.NewJobClient()
	job := camundatest.NewJob(4, "echo", nil)
	job.Variables = "[1,2]"

	called := false
	runner := NewRunner("echo", time.Second, logger.NewNoOpLogger(), nil)
	runner.Run(client, job, func(context.Context, map[string]interface{}) (interface{}, error) {
		called = true
		return nil, nil
	})

	assert.False(t, called)
	require.Len(t, client.Gateway.Thrown, 1)
	assert.Equal(t, "INVALID_INPUT", client.Gateway.Thrown[0].ErrorCode)
}

func TestDecode(t *testing.T) {
	var dst struct {
		RecordID string `json:"recordId"`
		Count    int    `json:"count"`
	}
	require.NoError(t, Decode(map[string]interface{}{"recordId": "r1", "count": 3.0}, &dst))
	assert.Equal(t, "r1", dst.RecordID)
	assert.Equal(t, 3, dst.Count)

	err := Decode(map[string]interface{}{"count": "three"}, &dst)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
}

func TestMapZeebeError(t *testing.T) {
	tests := []struct {
		msg  string
		code errors.ErrorCode
	}{
		{"rpc error: code = DeadlineExceeded desc = context deadline exceeded", errors.ErrCodeTimeout},
		{"rpc error: code = NotFound desc = job not found", errors.ErrCodeNotFound},
		{"rpc error: code = Unauthenticated desc = unauthenticated", errors.ErrCodeAccessDenied},
		{"rpc error: code = Unavailable desc = connection refused", errors.ErrCodeExternalServiceFailed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, errors.CodeOf(mapZeebeError(stderrors.New(tt.msg), "topology")), tt.msg)
	}
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(configWithTimeout(0))
	assert.Equal(t, 10*time.Second, cfg.ConnectionTimeout)
	assert.Equal(t, "localhost:26500", cfg.GatewayAddress)

	assert.Equal(t, 2*time.Second, ConfigFrom(configWithTimeout(2000)).ConnectionTimeout)
}

func configWithTimeout(ms int) config.CamundaConfig {
	return config.CamundaConfig{BrokerAddress: "localhost:26500", RequestTimeout: ms}
}
