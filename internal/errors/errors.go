package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Tier errors (TIER-001 to TIER-099)
	ErrCodeUnknownTier     ErrorCode = "TIER-001"
	ErrCodeTierNotNested   ErrorCode = "TIER-002"
	ErrCodeOverrideInvalid ErrorCode = "TIER-003"

	// Assembly errors (ASM-001 to ASM-099)
	ErrCodePrerequisiteMissing ErrorCode = "ASM-001"
	ErrCodeInstallFailed       ErrorCode = "ASM-002"
	ErrCodeSelfCheckFailed     ErrorCode = "ASM-003"
	ErrCodeLauncherFailed      ErrorCode = "ASM-004"

	// Network errors (NET-001 to NET-099)
	ErrCodeDownloadFailure  ErrorCode = "NET-001"
	ErrCodeChecksumMismatch ErrorCode = "NET-002"

	// Process errors (PROC-001 to PROC-099)
	ErrCodeProcessTimeout    ErrorCode = "PROC-001"
	ErrCodeProcessFailed     ErrorCode = "PROC-002"
	ErrCodeProcessNotStarted ErrorCode = "PROC-003"

	// Verification errors (VERIFY-001 to VERIFY-099)
	ErrCodePackageNotFound  ErrorCode = "VERIFY-001"
	ErrCodeManifestMissing  ErrorCode = "VERIFY-002"
	ErrCodePlatformUnknown  ErrorCode = "VERIFY-003"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
	ErrCodeDirectoryFailed ErrorCode = "IO-004"
)

// DistkitError represents an enhanced error with code, suggestions, and a cause
type DistkitError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *DistkitError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *DistkitError) Unwrap() error {
	return e.Cause
}

// New creates a new DistkitError
func New(code ErrorCode, message string) *DistkitError {
	return &DistkitError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new DistkitError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *DistkitError {
	return &DistkitError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *DistkitError) WithSuggestion(suggestion string) *DistkitError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *DistkitError) WithSuggestions(suggestions ...string) *DistkitError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// Common error constructors for frequently used errors

// NewUnknownTierError creates an error for an unregistered tier name
func NewUnknownTierError(name string, known []string) *DistkitError {
	return New(ErrCodeUnknownTier, fmt.Sprintf("unknown component tier: %s", name)).
		WithSuggestion(fmt.Sprintf("Use one of: %s", strings.Join(known, ", "))).
		WithSuggestion("Run 'distkit tiers' to list registered tiers")
}

// NewPrerequisiteMissingError creates a fatal missing-prerequisite error.
// Prerequisite errors are never retried.
func NewPrerequisiteMissingError(what, path string) *DistkitError {
	return New(ErrCodePrerequisiteMissing, fmt.Sprintf("%s not found: %s", what, path)).
		WithSuggestion("Fetch the embedded runtime before assembling (see --runtime)").
		WithSuggestion("Check that the path is correct and readable")
}

// NewDownloadFailureError creates a retryable download error
func NewDownloadFailureError(component string, cause error) *DistkitError {
	return Wrap(ErrCodeDownloadFailure, fmt.Sprintf("failed to fetch component: %s", component), cause).
		WithSuggestion("Check network connectivity to the component source").
		WithSuggestion("Re-run assembly; component prefetch is retried independently")
}

// NewChecksumMismatchError creates a fatal checksum validation error
func NewChecksumMismatchError(file, expected, actual string) *DistkitError {
	return New(ErrCodeChecksumMismatch, fmt.Sprintf("checksum mismatch for %s", file)).
		WithSuggestion(fmt.Sprintf("Expected %s, got %s", expected, actual)).
		WithSuggestion("Delete the cached copy and fetch the component again")
}

// NewProcessTimeoutError creates an error for a supervised process that
// failed to initialize within its startup budget
func NewProcessTimeoutError(executable string, timeout string) *DistkitError {
	return New(ErrCodeProcessTimeout, fmt.Sprintf("process did not initialize within %s: %s", timeout, executable)).
		WithSuggestion("Inspect the process log for partial startup output").
		WithSuggestion("Increase the startup timeout if the host is slow")
}

// NewPackageNotFoundError creates an error for a missing package tree
func NewPackageNotFoundError(path string) *DistkitError {
	return New(ErrCodePackageNotFound, fmt.Sprintf("package directory not found: %s", path)).
		WithSuggestion("Run 'distkit assemble' to produce a package first").
		WithSuggestion("Check that the --package path is correct")
}
