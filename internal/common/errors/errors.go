// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput          ErrorCode = "INVALID_INPUT"
	ErrCodeStoreUnavailable      ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeJudgeResponseInvalid  ErrorCode = "JUDGE_RESPONSE_INVALID"
	ErrCodeNotFound              ErrorCode = "NOT_FOUND"
	ErrCodeAccessDenied          ErrorCode = "ACCESS_DENIED"
	ErrCodeTimeout               ErrorCode = "TIMEOUT"
	ErrCodeExternalServiceFailed ErrorCode = "EXTERNAL_SERVICE_FAILED"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a StandardError with the same code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Kind returns a bare StandardError usable as an errors.Is target:
//
//	errors.Is(err, apperrors.Kind(apperrors.ErrCodeNotFound))
func Kind(code ErrorCode) *StandardError {
	return &StandardError{Code: code}
}

// CodeOf returns the code of the first StandardError in err's chain, or
// ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// WithMetadata attaches a key to the error metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidInputError creates a non-retryable validation error.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreUnavailableError creates a retryable history store error.
func NewStoreUnavailableError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   "History store unavailable",
		Details:   fmt.Sprintf("operation: %s, error: %v", operation, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewJudgeResponseInvalidError creates a non-retryable judge payload error.
func NewJudgeResponseInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeJudgeResponseInvalid,
		Message:   "Authenticity judge returned invalid data",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotFoundError creates a non-retryable lookup error.
func NewNotFoundError(resource, id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   "Resource not found",
		Details:   fmt.Sprintf("%s: %s", resource, id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAccessDeniedError creates a non-retryable ownership error.
func NewAccessDeniedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAccessDenied,
		Message:   "Access denied",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTimeoutError creates a retryable timeout error.
func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimeout,
		Message:   "Operation timed out",
		Details:   fmt.Sprintf("service: %s, error: %v", service, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewExternalServiceError creates a retryable collaborator error.
func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExternalServiceFailed,
		Message:   "External service error",
		Details:   fmt.Sprintf("service: %s, error: %v", service, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the BPMN error codes caught by
// boundary events in the calling process.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:          "INVALID_INPUT",
	ErrCodeStoreUnavailable:      "STORE_UNAVAILABLE",
	ErrCodeJudgeResponseInvalid:  "JUDGE_RESPONSE_INVALID",
	ErrCodeNotFound:              "NOT_FOUND",
	ErrCodeAccessDenied:          "ACCESS_DENIED",
	ErrCodeTimeout:               "TIMEOUT",
	ErrCodeExternalServiceFailed: "EXTERNAL_SERVICE_FAILED",
}

// GetRetryCount returns how many times the workflow engine may re-run the job.
// The workers themselves never retry.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreUnavailable, ErrCodeExternalServiceFailed:
		return 3
	case ErrCodeTimeout:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "STORE"):
		return "STORAGE"
	case strings.Contains(codeStr, "JUDGE"), strings.Contains(codeStr, "EXTERNAL"):
		return "COLLABORATOR"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "ACCESS"):
		return "AUTHORIZATION"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "LOOKUP"
	case strings.Contains(codeStr, "TIMEOUT"):
		return "TIMEOUT"
	default:
		return "OTHER"
	}
}

// IsClientError reports whether the code maps to a client-side failure at the
// request boundary.
func IsClientError(code ErrorCode) bool {
	switch code {
	case ErrCodeInvalidInput, ErrCodeNotFound, ErrCodeAccessDenied:
		return true
	}
	return false
}
