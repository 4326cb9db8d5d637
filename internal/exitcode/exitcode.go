package exitcode

import (
	stderrors "errors"
	"os"

	"github.com/distkit/distkit/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// PrerequisiteMissing indicates a required input (e.g. the embedded
	// runtime) was absent before assembly started
	PrerequisiteMissing = 3

	// UnknownTier indicates an unregistered component tier name
	UnknownTier = 4

	// DownloadFailure indicates component prefetch exhausted its retries
	DownloadFailure = 5

	// ChecksumMismatch indicates a fetched component failed integrity validation
	ChecksumMismatch = 6

	// ProcessTimeout indicates a supervised process missed its startup deadline
	ProcessTimeout = 7

	// VerificationFailed indicates one or more verification test cases failed
	VerificationFailed = 8

	// Interrupted indicates the run was cancelled by the user (Ctrl-C)
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	Exit(DetermineExitCode(err))
}

// DetermineExitCode analyzes an error and returns the appropriate exit code.
// Typed errors map to their distinct per-class code; everything else is a
// general error.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	var dkErr *errors.DistkitError
	if !stderrors.As(err, &dkErr) {
		return GeneralError
	}

	switch dkErr.Code {
	case errors.ErrCodePrerequisiteMissing:
		return PrerequisiteMissing
	case errors.ErrCodeUnknownTier, errors.ErrCodeTierNotNested, errors.ErrCodeOverrideInvalid:
		return UnknownTier
	case errors.ErrCodeDownloadFailure:
		return DownloadFailure
	case errors.ErrCodeChecksumMismatch:
		return ChecksumMismatch
	case errors.ErrCodeProcessTimeout:
		return ProcessTimeout
	case errors.ErrCodePackageNotFound, errors.ErrCodeManifestMissing, errors.ErrCodePlatformUnknown:
		return UsageError
	default:
		return GeneralError
	}
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case PrerequisiteMissing:
		return "Required prerequisite missing"
	case UnknownTier:
		return "Unknown component tier"
	case DownloadFailure:
		return "Component download failed"
	case ChecksumMismatch:
		return "Component checksum mismatch"
	case ProcessTimeout:
		return "Supervised process startup timeout"
	case VerificationFailed:
		return "Verification test failures"
	case Interrupted:
		return "Interrupted by user"
	default:
		return "Unknown error"
	}
}
