package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardErrorMatchesByCode(t *testing.T) {
	err := fmt.Errorf("extract: %w", NewProviderCallError("openai", stderrors.New("connection reset")))

	assert.True(t, stderrors.Is(err, &StandardError{Code: ErrCodeProviderCallFailed}))
	assert.False(t, stderrors.Is(err, &StandardError{Code: ErrCodeAIValidation}))
	assert.True(t, HasCode(err, ErrCodeProviderCallFailed))
	assert.True(t, IsRetryable(err))
}

func TestStandardErrorUnwrapsCause(t *testing.T) {
	err := NewLLMTimeoutError("gemini", context.DeadlineExceeded)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, err.Retryable)
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantCode    string
		wantRetries int
	}{
		{"provider failure retries", NewProviderCallError("openai", stderrors.New("502")), "AI_PROVIDER_FAILED", 3},
		{"validation is terminal", NewAIValidationError("festival", []string{"name is required"}), "AI_VALIDATION_FAILED", 0},
		{"config is terminal", NewConfigurationError("missing apiKey"), "CONFIGURATION_ERROR", 0},
		{"open circuit retries once", NewCircuitOpenError("ai-gateway", stderrors.New("open")), "AI_PROVIDER_FAILED", 1},
		{"merge conflict", NewMergeConflictError("name"), "MERGE_CONFLICT", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)
			assert.Equal(t, string(tt.err.Code), bpmn.ToErrorVariables()["originalErrorCode"])
		})
	}
}

func TestNormalizeWrapsForeignErrors(t *testing.T) {
	std := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), std.Code)
	assert.False(t, std.Retryable)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "AI", GetErrorCategory(ErrCodeCircuitOpen))
	assert.Equal(t, "CATALOG", GetErrorCategory(ErrCodeCatalogLookupFailed))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryExecutionFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeMergeConflict))
}
