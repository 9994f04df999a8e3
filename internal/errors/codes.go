// Package errors provides structured error handling for the log checker.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Decode errors: the log artifact itself is unusable.
	CodeBadFraming Code = "LOG_BAD_FRAMING"
	CodeBadRecord  Code = "LOG_BAD_RECORD"
	CodeBadPayload Code = "OPERATION_BAD_PAYLOAD"

	// Protocol violations: the log decoded fine but does not follow the
	// expected call sequence.
	CodeUnexpectedMethod     Code = "PROTOCOL_UNEXPECTED_METHOD"
	CodeLookupDigestMissing  Code = "PROTOCOL_LOOKUP_DIGEST_MISSING"
	CodeNoCompletedOperation Code = "PROTOCOL_NO_COMPLETED_OPERATION"
	CodeOperationFailed      Code = "PROTOCOL_OPERATION_FAILED"
	CodeOutputDigestMissing  Code = "PROTOCOL_OUTPUT_DIGEST_MISSING"
	CodeLogExhausted         Code = "PROTOCOL_LOG_EXHAUSTED"

	// Invocation errors
	CodeUsage Code = "USAGE"
)

// Process exit statuses for the CLI tools.
const (
	ExitPass    = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitStatus maps error codes to process exit statuses.
func (c Code) ExitStatus() int {
	switch c {
	case CodeUsage:
		return ExitUsage
	default:
		return ExitFailure
	}
}
