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
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"

	ErrCodeProviderCallFailed ErrorCode = "PROVIDER_CALL_FAILED"
	ErrCodeLLMTimeout         ErrorCode = "LLM_TIMEOUT"
	ErrCodeCircuitOpen        ErrorCode = "CIRCUIT_OPEN"
	ErrCodeAIValidation       ErrorCode = "AI_VALIDATION_FAILED"

	ErrCodeCatalogLookupFailed ErrorCode = "CATALOG_LOOKUP_FAILED"
	ErrCodeMergeConflict       ErrorCode = "MERGE_CONFLICT"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error {
	return e.Cause
}

// Is matches another *StandardError by code, so a bare
// &StandardError{Code: ...} can be used as a target for errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the first StandardError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code, true
	}
	return "", false
}

// HasCode reports whether err's chain carries a StandardError with code.
func HasCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// IsRetryable reports whether err is a StandardError flagged retryable.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
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

// NewConfigurationError is raised before any call is attempted.
func NewConfigurationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfiguration,
		Message:   "Invalid or missing configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError creates a non-retryable input error.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderCallError creates a retryable provider/network error.
func NewProviderCallError(provider string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderCallFailed,
		Message:   fmt.Sprintf("AI provider '%s' call failed", provider),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// NewLLMTimeoutError creates a retryable provider timeout error.
func NewLLMTimeoutError(provider string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   fmt.Sprintf("AI provider '%s' call timed out", provider),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// NewCircuitOpenError is returned while a breaker refuses calls.
func NewCircuitOpenError(name string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCircuitOpen,
		Message:   fmt.Sprintf("Circuit '%s' is open", name),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// NewAIValidationError is a hard failure: the provider answered but the
// answer does not satisfy the requested schema.
func NewAIValidationError(schemaName string, problems []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAIValidation,
		Message:   fmt.Sprintf("AI response does not satisfy schema '%s'", schemaName),
		Details:   strings.Join(problems, "; "),
		Retryable: false,
		Metadata:  map[string]interface{}{"problems": problems},
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogLookupError wraps a music catalog failure.
func NewCatalogLookupError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogLookupFailed,
		Message:   "Music catalog lookup failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// NewMergeConflictError is returned when merged partial results leave a
// required field unresolved.
func NewMergeConflictError(field string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMergeConflict,
		Message:   "Partial results could not be reconciled",
		Details:   fmt.Sprintf("no chunk produced a value for required field '%s'", field),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeConfiguration:            "CONFIGURATION_ERROR",
	ErrCodeInvalidInput:             "INVALID_INPUT",
	ErrCodeProviderCallFailed:       "AI_PROVIDER_FAILED",
	ErrCodeLLMTimeout:               "LLM_TIMEOUT",
	ErrCodeCircuitOpen:              "AI_PROVIDER_FAILED",
	ErrCodeAIValidation:             "AI_VALIDATION_FAILED",
	ErrCodeCatalogLookupFailed:      "CATALOG_LOOKUP_FAILED",
	ErrCodeMergeConflict:            "MERGE_CONFLICT",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeDatabaseInsertFailed:     "DATABASE_INSERT_FAILED",
}

// GetRetryCount returns the job retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProviderCallFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed:
		return 3

	case ErrCodeLLMTimeout, ErrCodeCircuitOpen:
		return 1

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
	if !stdErr.Retryable && stdErr.Code != ErrCodeCircuitOpen {
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

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CONFIGURATION"):
		return "CONFIGURATION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.Contains(codeStr, "LLM") || strings.Contains(codeStr, "PROVIDER") ||
		strings.Contains(codeStr, "AI_") || strings.Contains(codeStr, "CIRCUIT"):
		return "AI"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "MERGE"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
