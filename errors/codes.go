// Package errors provides the error taxonomy for release workflows.
// It extends Go's standard error handling with structured error codes and
// context preservation so callers can tell configuration mistakes apart from
// conflicts, classification failures and external-system errors.
package errors

// ErrorCode represents a specific class of release failure.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Configuration errors.

	// CodeInvalidConfig indicates missing or invalid configuration (stable branch,
	// pre-release id, changelog writer context, initial version).
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// CodeInvalidInput indicates a malformed argument passed to an operation.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Conflict errors.

	// CodeConflict indicates a version, tag or branch already exists locally or remotely.
	CodeConflict ErrorCode = "CONFLICT"

	// Classification errors.

	// CodeClassification indicates a commit could not be classified by the release predicate.
	CodeClassification ErrorCode = "CLASSIFICATION_FAILED"

	// External errors.

	// CodeExternal indicates a subprocess or HTTP call returned a failure status.
	CodeExternal ErrorCode = "EXTERNAL_CALL_FAILED"

	// CodeNotFound indicates a requested resource does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// Compensation errors.

	// CodeCompensation indicates an undo step failed. These are logged, never escalated.
	CodeCompensation ErrorCode = "COMPENSATION_FAILED"

	// System errors.

	// CodeInternal indicates an internal invariant was violated.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)
