package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewNotFoundError("posting record", "abc"))

	assert.True(t, stderrors.Is(err, Kind(ErrCodeNotFound)))
	assert.False(t, stderrors.Is(err, Kind(ErrCodeAccessDenied)))
	assert.Equal(t, ErrCodeNotFound, CodeOf(err))
	assert.Equal(t, ErrCodeInternal, CodeOf(stderrors.New("plain")))
}

func TestStandardError_UnwrapsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewStoreUnavailableError("append", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, err.Retryable)
	assert.Contains(t, err.Error(), "STORE_UNAVAILABLE")
	assert.Contains(t, err.Details, "operation: append")
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name    string
		err     *StandardError
		code    string
		retries int
	}{
		{"invalid input", NewInvalidInputError("companyName is required"), "INVALID_INPUT", 0},
		{"store unavailable", NewStoreUnavailableError("query", stderrors.New("down")), "STORE_UNAVAILABLE", 3},
		{"timeout", NewTimeoutError("history-store", context.DeadlineExceeded), "TIMEOUT", 2},
		{"judge invalid", NewJudgeResponseInvalidError("score 11"), "JUDGE_RESPONSE_INVALID", 0},
		{"access denied", NewAccessDeniedError("owner mismatch"), "ACCESS_DENIED", 0},
		{"external", NewExternalServiceError("gemini", stderrors.New("500")), "EXTERNAL_SERVICE_FAILED", 3},
		{"unmapped code", &StandardError{Code: "CUSTOM"}, "CUSTOM", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.code, bpmn.Code)
			assert.Equal(t, tt.retries, bpmn.Retries)

			vars := bpmn.ToErrorVariables()
			assert.Equal(t, tt.code, vars["errorCode"])
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
		})
	}
}

func TestConvertToBPMNError_NonRetryableOverride(t *testing.T) {
	err := NewStoreUnavailableError("append", stderrors.New("constraint"))
	err.Retryable = false

	assert.Equal(t, 0, ConvertToBPMNError(err).Retries)
}

func TestNormalize(t *testing.T) {
	std := NewInvalidInputError("x")
	assert.Same(t, std, Normalize(fmt.Errorf("ctx: %w", std)))

	timeout := Normalize(context.DeadlineExceeded)
	assert.Equal(t, ErrCodeTimeout, timeout.Code)

	internal := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, internal.Code)
	assert.Equal(t, "boom", internal.Details)
	assert.False(t, internal.Retryable)
}

func TestWithMetadata(t *testing.T) {
	err := NewNotFoundError("posting record", "r1").WithMetadata("recordId", "r1")
	require.NotNil(t, err.Metadata)
	assert.Equal(t, "r1", err.Metadata["recordId"])
}

func TestErrorCategories(t *testing.T) {
	assert.Equal(t, "STORAGE", GetErrorCategory(ErrCodeStoreUnavailable))
	assert.Equal(t, "COLLABORATOR", GetErrorCategory(ErrCodeJudgeResponseInvalid))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidInput))
	assert.Equal(t, "AUTHORIZATION", GetErrorCategory(ErrCodeAccessDenied))
	assert.Equal(t, "LOOKUP", GetErrorCategory(ErrCodeNotFound))

	assert.True(t, IsClientError(ErrCodeAccessDenied))
	assert.False(t, IsClientError(ErrCodeStoreUnavailable))
	assert.True(t, IsRetryableErrorCode(ErrCodeTimeout))
	assert.False(t, IsRetryableErrorCode(ErrCodeJudgeResponseInvalid))
}
