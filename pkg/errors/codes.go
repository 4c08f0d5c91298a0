package errors

import (
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeInvalidParam       ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTimeout            ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_006"
	ErrCodeValidation         ErrorCode = "COMMON_007"
	ErrCodeSerialization      ErrorCode = "COMMON_008"
	ErrCodeCacheError         ErrorCode = "COMMON_009"
	ErrCodeNotImplemented     ErrorCode = "COMMON_010"
)

// Schema Module Error Codes
const (
	ErrCodeSchemaEmpty    ErrorCode = "SCH_001"
	ErrCodeSchemaNotFound ErrorCode = "SCH_002"
)

// Document Module Error Codes
const (
	ErrCodeDocumentRead        ErrorCode = "DOC_001"
	ErrCodeDocumentEmpty       ErrorCode = "DOC_002"
	ErrCodeDocumentUnsupported ErrorCode = "DOC_003"
	ErrCodePDFParse            ErrorCode = "DOC_004"
)

// Extraction Module Error Codes
const (
	ErrCodeExtractionFailed ErrorCode = "EXT_001"
	ErrCodeBatchAborted     ErrorCode = "EXT_002"
)

// Visual Extractor Service Error Codes
const (
	ErrCodeVisualUnavailable ErrorCode = "VIS_001"
	ErrCodeVisualBadResponse ErrorCode = "VIS_002"
)

// Report Module Error Codes
const (
	ErrCodeReportWrite ErrorCode = "RPT_001"
)

// Aliases kept short for high-traffic call sites.
const (
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeInvalidParam
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeTimeout        = ErrCodeTimeout
	CodeUnavailable    = ErrCodeServiceUnavailable
	CodeValidation     = ErrCodeValidation
	CodeSerialization  = ErrCodeSerialization
	CodeCacheError     = ErrCodeCacheError
	CodeNotImplemented = ErrCodeNotImplemented

	CodeUnknown = ErrorCode("UNKNOWN")
	CodeOK      = ErrorCode("OK")
)

// CLI exit codes. The sdsmatch binary maps every failure onto one of these so
// that shell pipelines and batch schedulers can branch on the failure class.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitNotFound    = 3
	ExitTimeout     = 4
	ExitUnavailable = 5
	ExitDocument    = 6
)

// ErrorCodeExitStatus maps ErrorCodes to CLI exit codes.
var ErrorCodeExitStatus = map[ErrorCode]int{
	ErrCodeInternal:           ExitFailure,
	ErrCodeInvalidParam:       ExitUsage,
	ErrCodeNotFound:           ExitNotFound,
	ErrCodeConflict:           ExitFailure,
	ErrCodeTimeout:            ExitTimeout,
	ErrCodeServiceUnavailable: ExitUnavailable,
	ErrCodeValidation:         ExitUsage,
	ErrCodeSerialization:      ExitFailure,
	ErrCodeCacheError:         ExitFailure,
	ErrCodeNotImplemented:     ExitUsage,

	ErrCodeSchemaEmpty:    ExitUsage,
	ErrCodeSchemaNotFound: ExitNotFound,

	ErrCodeDocumentRead:        ExitDocument,
	ErrCodeDocumentEmpty:       ExitDocument,
	ErrCodeDocumentUnsupported: ExitDocument,
	ErrCodePDFParse:            ExitDocument,

	ErrCodeExtractionFailed: ExitFailure,
	ErrCodeBatchAborted:     ExitFailure,

	ErrCodeVisualUnavailable: ExitUnavailable,
	ErrCodeVisualBadResponse: ExitUnavailable,

	ErrCodeReportWrite: ExitFailure,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal error",
	ErrCodeInvalidParam:       "invalid parameter",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTimeout:            "operation timed out",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeCacheError:         "cache error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeSchemaEmpty:    "schema contains no fields",
	ErrCodeSchemaNotFound: "schema file not found",

	ErrCodeDocumentRead:        "failed to read document",
	ErrCodeDocumentEmpty:       "document contains no extractable text",
	ErrCodeDocumentUnsupported: "unsupported document format",
	ErrCodePDFParse:            "failed to parse PDF",

	ErrCodeExtractionFailed: "extraction failed",
	ErrCodeBatchAborted:     "batch run aborted",

	ErrCodeVisualUnavailable: "visual extractor service unavailable",
	ErrCodeVisualBadResponse: "visual extractor returned an invalid response",

	ErrCodeReportWrite: "failed to write report",
}

// ExitStatusForCode returns the CLI exit code for an ErrorCode.
func ExitStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeExitStatus[code]; ok {
		return status
	}
	return ExitFailure
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsUsageError returns true if the ErrorCode signals bad input from the caller
// rather than a fault inside the engine or its dependencies.
func IsUsageError(code ErrorCode) bool {
	return ExitStatusForCode(code) == ExitUsage
}

// IsRetryable returns true for transient conditions where retrying the same
// operation may succeed: timeouts and unavailable external services.
func IsRetryable(code ErrorCode) bool {
	switch ExitStatusForCode(code) {
	case ExitTimeout, ExitUnavailable:
		return true
	}
	return false
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
