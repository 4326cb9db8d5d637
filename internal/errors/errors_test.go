package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormat(t *testing.T) {
	err := New(ErrCodeUnknownTier, "unknown component tier: huge")
	assert.Contains(t, err.Error(), "[TIER-001]")
	assert.Contains(t, err.Error(), "unknown component tier: huge")
}

func TestErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCodeDownloadFailure, "failed to fetch component: rust", cause)

	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, cause, stderrors.Unwrap(err))
}

func TestErrorWithSuggestions(t *testing.T) {
	err := New(ErrCodePrerequisiteMissing, "embedded runtime not found").
		WithSuggestion("fetch the runtime first").
		WithSuggestions("check the path", "check permissions")

	require.Len(t, err.Suggestions, 3)
	assert.Contains(t, err.Error(), "Suggestions:")
	assert.Contains(t, err.Error(), "fetch the runtime first")
}

func TestErrorsAs(t *testing.T) {
	var wrapped error = fmt.Errorf("assembly aborted: %w",
		NewPrerequisiteMissingError("embedded runtime", "/tmp/missing"))

	var dkErr *DistkitError
	require.True(t, stderrors.As(wrapped, &dkErr))
	assert.Equal(t, ErrCodePrerequisiteMissing, dkErr.Code)
}

func TestChecksumMismatchError(t *testing.T) {
	err := NewChecksumMismatchError("components/rust.tar.gz", "blake3:aaaa", "blake3:bbbb")
	assert.Equal(t, ErrCodeChecksumMismatch, err.Code)
	assert.Contains(t, err.Error(), "blake3:aaaa")
	assert.Contains(t, err.Error(), "blake3:bbbb")
}

func TestUnknownTierErrorListsKnownTiers(t *testing.T) {
	err := NewUnknownTierError("huge", []string{"minimal", "standard", "full"})
	assert.Contains(t, err.Error(), "minimal, standard, full")
}
