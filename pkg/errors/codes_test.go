package errors

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "COMMON_001", ErrCodeInternal.String())
}

func TestExitStatusForCode(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeInternal, ExitFailure},
		{ErrCodeInvalidParam, ExitUsage},
		{ErrCodeNotFound, ExitNotFound},
		{ErrCodeTimeout, ExitTimeout},
		{ErrCodeVisualUnavailable, ExitUnavailable},
		{ErrCodePDFParse, ExitDocument},
		{ErrorCode("UNKNOWN"), ExitFailure},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ExitStatusForCode(tt.code))
	}
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "internal error", DefaultMessageForCode(ErrCodeInternal))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("UNKNOWN")))
}

func TestIsUsageError(t *testing.T) {
	assert.True(t, IsUsageError(ErrCodeInvalidParam))
	assert.True(t, IsUsageError(ErrCodeSchemaEmpty))
	assert.False(t, IsUsageError(ErrCodeInternal))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrCodeTimeout))
	assert.True(t, IsRetryable(ErrCodeVisualUnavailable))
	assert.False(t, IsRetryable(ErrCodeValidation))
	assert.False(t, IsRetryable(ErrCodeDocumentRead))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "COMMON", ModuleForCode(ErrCodeInternal))
	assert.Equal(t, "SCH", ModuleForCode(ErrCodeSchemaEmpty))
	assert.Equal(t, "DOC", ModuleForCode(ErrCodeDocumentRead))
	assert.Equal(t, "EXT", ModuleForCode(ErrCodeExtractionFailed))
	assert.Equal(t, "VIS", ModuleForCode(ErrCodeVisualUnavailable))
	assert.Equal(t, "RPT", ModuleForCode(ErrCodeReportWrite))
	assert.Equal(t, "UNKNOWN", ModuleForCode(ErrorCode("")))
}

func TestErrorCodeFormat_Convention(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z]+_\d{3}$`)
	allCodes := []ErrorCode{
		ErrCodeInternal, ErrCodeInvalidParam, ErrCodeNotFound, ErrCodeConflict,
		ErrCodeTimeout, ErrCodeServiceUnavailable, ErrCodeValidation,
		ErrCodeSerialization, ErrCodeCacheError, ErrCodeNotImplemented,
		ErrCodeSchemaEmpty, ErrCodeSchemaNotFound,
		ErrCodeDocumentRead, ErrCodeDocumentEmpty, ErrCodeDocumentUnsupported, ErrCodePDFParse,
		ErrCodeExtractionFailed, ErrCodeBatchAborted,
		ErrCodeVisualUnavailable, ErrCodeVisualBadResponse,
		ErrCodeReportWrite,
	}
	for _, code := range allCodes {
		assert.Regexp(t, re, string(code))
	}
}

func TestErrorCodeMappings_Completeness(t *testing.T) {
	for code := range ErrorCodeExitStatus {
		_, hasMessage := ErrorCodeMessage[code]
		assert.True(t, hasMessage, "missing message for %s", code)
	}
	for code := range ErrorCodeMessage {
		_, hasStatus := ErrorCodeExitStatus[code]
		assert.True(t, hasStatus, "missing exit status for %s", code)
	}
}
