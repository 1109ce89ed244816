package doerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_SetsKindAndMessage(t *testing.T) {
	err := New(NotFound, "file missing")

	assert.Equal(t, NotFound, err.Kind)
	assert.Equal(t, "file missing", err.Message)
	assert.Contains(t, err.Error(), "file missing")
}

func TestWrap_PreservesUnderlyingError(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(ToolExecution, "write failed", cause)

	assert.Equal(t, ToolExecution, err.Kind)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "write failed")
}

func TestIs_MatchesKind(t *testing.T) {
	err := New(PathEscape, "outside project root")

	assert.True(t, Is(err, PathEscape))
	assert.False(t, Is(err, NotFound))
	assert.False(t, Is(errors.New("plain error"), PathEscape))
}

func TestRetryable_ClassifiesKinds(t *testing.T) {
	cases := []struct {
		kind      Kind
		retryable bool
	}{
		{Network, true},
		{Timeout, true},
		{Server, true},
		{RateLimited, true},
		{ClientBadRequest, false},
		{ToolArgInvalid, false},
		{Cancelled, false},
		{ContextLengthExceeded, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			assert.Equal(t, tc.retryable, Retryable(New(tc.kind, "x")))
		})
	}
}
