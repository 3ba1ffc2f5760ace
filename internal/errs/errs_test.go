package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorStringIncludesCodeAndCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Database(CodeDBQuery, "upsert failed", cause)
	assert.Equal(t, "DB_QUERY: upsert failed: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", Resilience(CodeResCircuitOpen, "breaker open"))
	assert.True(t, errors.Is(err, &Error{Code: CodeResCircuitOpen}))
	assert.False(t, errors.Is(err, &Error{Code: CodeResTimeout}))
}

func TestRetryableClassification(t *testing.T) {
	assert.True(t, IsRetryable(Database(CodeDBConnection, "dial tcp refused", nil)))
	assert.False(t, IsRetryable(Database(CodeDBQuery, "bad filter", nil)))
	assert.True(t, IsRetryable(Embedding(CodeEmbedRateLimit, "429", nil)))
	assert.False(t, IsRetryable(Embedding(CodeEmbedDimensionMismatch, "768 != 384", nil)))
	assert.False(t, IsRetryable(Validation(CodeValidationRequired, "text missing")))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestWithDetailDoesNotMutateOriginal(t *testing.T) {
	base := Validation(CodeValidationRequired, "text missing")
	derived := base.WithDetail("field", "text")
	require.Empty(t, base.Details)
	require.Equal(t, "text", derived.Details["field"])
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeSearchNoResults, CodeOf(Search(CodeSearchNoResults, "nothing matched")))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
}

func TestSearchNoResultsIsInformational(t *testing.T) {
	assert.Equal(t, SeverityInfo, Search(CodeSearchNoResults, "nothing matched").Severity)
	assert.Equal(t, SeverityError, Search(CodeSearchTimeout, "deadline").Severity)
}
