// Package errors provides the toolkit's domain error sentinels and a
// small set of helpers for wrapping and classifying them.
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard errors package functions.
var (
	As     = errors.As
	Is     = errors.Is
	New    = errors.New
	Unwrap = errors.Unwrap
)

// Usage errors (exit 2).
var (
	ErrMissingFlag      = errors.New("missing required flag")
	ErrInvalidFlagValue = errors.New("invalid flag value")
	ErrInvalidADNumber  = errors.New("invalid availability domain number")
	ErrConfigUnreadable = errors.New("config file not readable")
)

// Config / tenancy-OCID discovery errors.
var (
	ErrConfigNotFound     = errors.New("config file not found")
	ErrProfileNotFound    = errors.New("profile section not found")
	ErrTenancyLineMissing = errors.New("tenancy line missing")
	ErrEmptyOCID          = errors.New("empty OCID")
)

// Snapshot store errors.
var (
	ErrLockTimeout     = errors.New("file mutex acquisition timed out")
	ErrSpliceFailed    = errors.New("json splice failed")
	ErrTempFileFailed  = errors.New("temp file creation failed")
	ErrSnapshotInvalid = errors.New("snapshot is not valid JSON")
)

// Discovery / section errors.
var (
	ErrSectionFailed = errors.New("section extraction failed")
)

// CLI invocation errors.
var (
	ErrNonJSONResponse = errors.New("NonJsonResponse")
	ErrCLIInvocation   = errors.New("oci cli invocation failed")
)

// Provisioning classification / control-flow errors.
var (
	ErrFatalAuth            = errors.New("authentication error")
	ErrFatalConfig          = errors.New("configuration error")
	ErrMaxCyclesReached     = errors.New("max cycles reached")
	ErrTooManyTransientErrs = errors.New("too many transient errors")
	ErrSpecInvalid          = errors.New("launch spec is not valid JSON")
)

// Process lock errors.
var (
	ErrAnotherInstanceRunning = errors.New("another instance is already running")
	ErrLockStale              = errors.New("stale lock recovered")
)

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// WrapWithCode wraps an error with a specific sentinel error code.
func WrapWithCode(err error, code error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	wrapped := fmt.Errorf(format+": %w", append(args, err)...)
	return fmt.Errorf("%w: %v", code, wrapped)
}

// errorCodes lists all sentinel errors considered by GetErrorCode.
var errorCodes = []error{
	ErrMissingFlag,
	ErrInvalidFlagValue,
	ErrInvalidADNumber,
	ErrConfigUnreadable,
	ErrConfigNotFound,
	ErrProfileNotFound,
	ErrTenancyLineMissing,
	ErrEmptyOCID,
	ErrLockTimeout,
	ErrSpliceFailed,
	ErrTempFileFailed,
	ErrSnapshotInvalid,
	ErrSectionFailed,
	ErrNonJSONResponse,
	ErrCLIInvocation,
	ErrFatalAuth,
	ErrFatalConfig,
	ErrMaxCyclesReached,
	ErrTooManyTransientErrs,
	ErrSpecInvalid,
	ErrAnotherInstanceRunning,
	ErrLockStale,
}

// GetErrorCode extracts the sentinel error wrapped by err, if any.
func GetErrorCode(err error) error {
	if err == nil {
		return nil
	}
	for _, code := range errorCodes {
		if errors.Is(err, code) {
			return code
		}
	}
	return nil
}

// ExitCode maps a toolkit error to its process exit code: nil is 0,
// usage errors are 2, and every other error is 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch GetErrorCode(err) {
	case ErrMissingFlag, ErrInvalidFlagValue, ErrInvalidADNumber, ErrConfigUnreadable:
		return 2
	default:
		return 1
	}
}
