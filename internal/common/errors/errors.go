// internal/common/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeUserInputInvalid      ErrorCode = "USER_INPUT_INVALID"
	ErrCodeBusinessRejection     ErrorCode = "BUSINESS_REJECTION"
	ErrCodeVerificationFailed    ErrorCode = "VERIFICATION_FAILED"
	ErrCodePreconditionViolation ErrorCode = "PRECONDITION_VIOLATION"

	ErrCodeStorePersistFailed ErrorCode = "STORE_PERSIST_FAILED"
	ErrCodeStoreReadFailed    ErrorCode = "STORE_READ_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInvalidJobVariables ErrorCode = "INVALID_JOB_VARIABLES"
	ErrCodeWorkflowEngine      ErrorCode = "WORKFLOW_ENGINE_ERROR"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// Sentinels wrapped with %w by the packages that detect the condition.
var (
	ErrPreconditionViolation = stderrors.New(string(ErrCodePreconditionViolation))
	ErrStorePersistFailed    = stderrors.New(string(ErrCodeStorePersistFailed))
	ErrStoreReadFailed       = stderrors.New(string(ErrCodeStoreReadFailed))
	ErrApplicationNotFound   = stderrors.New("APPLICATION_NOT_FOUND")
	ErrNotificationFailed    = stderrors.New(string(ErrCodeNotificationSendFailed))
	ErrInvalidJobVariables   = stderrors.New(string(ErrCodeInvalidJobVariables))
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

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

func NewBusinessRejectionError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBusinessRejection,
		Message:   "Application rejected",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewVerificationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeVerificationFailed,
		Message:   "Applicant verification failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewPreconditionViolationError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePreconditionViolation,
		Message:   "Application record is missing required fields",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewStorePersistFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorePersistFailed,
		Message:   "Application could not be stored",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewStoreReadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreReadFailed,
		Message:   "Stored applications could not be read",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidJobVariablesError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidJobVariables,
		Message:   "Job variables failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewWorkflowEngineError(operation string, err error, retryable bool) *StandardError {
	return &StandardError{
		Code:      ErrCodeWorkflowEngine,
		Message:   fmt.Sprintf("Zeebe operation '%s' failed", operation),
		Details:   err.Error(),
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// FromError maps a wrapped sentinel onto its StandardError. Anything
// unrecognised becomes a non-retryable INTERNAL_ERROR.
func FromError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}

	switch {
	case stderrors.Is(err, ErrPreconditionViolation):
		return NewPreconditionViolationError(err)
	case stderrors.Is(err, ErrStorePersistFailed):
		return NewStorePersistFailedError(err)
	case stderrors.Is(err, ErrStoreReadFailed), stderrors.Is(err, ErrApplicationNotFound):
		return NewStoreReadFailedError(err)
	case stderrors.Is(err, ErrNotificationFailed):
		return NewNotificationSendFailedError("unknown", err)
	case stderrors.Is(err, ErrInvalidJobVariables):
		return NewInvalidJobVariablesError(err.Error())
	}

	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeUserInputInvalid:       "USER_INPUT_INVALID",
	ErrCodeBusinessRejection:      "BUSINESS_REJECTION",
	ErrCodeVerificationFailed:     "VERIFICATION_FAILED",
	ErrCodePreconditionViolation:  "PRECONDITION_VIOLATION",
	ErrCodeStorePersistFailed:     "STORE_PERSIST_FAILED",
	ErrCodeStoreReadFailed:        "STORE_READ_FAILED",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
	ErrCodeInvalidJobVariables:    "INVALID_JOB_VARIABLES",
	ErrCodeWorkflowEngine:         "WORKFLOW_ENGINE_ERROR",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStorePersistFailed,
		ErrCodeStoreReadFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeWorkflowEngine:
		return 3

	default:
		return 0 // business outcomes and bad input are never retried
	}
}

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

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "WORKFLOW"):
		return "WORKFLOW"
	case strings.HasPrefix(codeStr, "STORE"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "REJECTION") || strings.Contains(codeStr, "VERIFICATION"):
		return "DECISION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "PRECONDITION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
