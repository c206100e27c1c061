package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := NewMissingFieldError("name")
	assert.Equal(t, "[MISSING_FIELD] Missing required field 'name'", err.Error())

	wrapped := Wrap(fmt.Errorf("dial tcp: refused"), ErrCodeCacheError, "hget failed")
	assert.Equal(t, "[CACHE_ERROR] hget failed: dial tcp: refused", wrapped.Error())
}

func TestAppError_IsMatchesByCode(t *testing.T) {
	sentinel := New(ErrCodeMissingField, "missing required field")
	err := fmt.Errorf("decode user: %w", NewMissingFieldError("times_picked"))

	assert.True(t, stderrors.Is(err, sentinel))
	assert.False(t, stderrors.Is(err, New(ErrCodeValidation, "other")))
}

func TestAsAppError_Unwraps(t *testing.T) {
	inner := NewUserNotFoundError("alice")
	err := fmt.Errorf("outer: %w", inner)

	appErr, ok := AsAppError(err)
	require.True(t, ok)
	assert.Same(t, inner, appErr)
	assert.True(t, appErr.IsNotFound())
	assert.Equal(t, "alice", appErr.Details["name"])

	_, ok = AsAppError(stderrors.New("plain"))
	assert.False(t, ok)
	_, ok = AsAppError(nil)
	assert.False(t, ok)
}

func TestClassifiers(t *testing.T) {
	assert.True(t, NewMissingFieldError("name").IsValidation())
	assert.True(t, NewValidationError("times_picked", "not an integer").IsValidation())
	assert.True(t, NewCacheError("hgetall", stderrors.New("boom")).IsInternal())
	assert.False(t, NewConflictError("user", "exists").IsInternal())
	assert.True(t, HasCode(NewNoCandidatesError(), ErrCodeNoCandidates))
}

func TestWithStack(t *testing.T) {
	err := New(ErrCodeInternal, "boom").WithStack()
	require.NotEmpty(t, err.Stack)
	for _, frame := range err.Stack {
		assert.NotContains(t, frame, "errors.(*AppError).WithStack")
	}

	raw, jsonErr := json.Marshal(err)
	require.NoError(t, jsonErr)
	assert.NotContains(t, string(raw), "stack")
}

func TestWrapf(t *testing.T) {
	err := Wrapf(stderrors.New("http: request body too large"), ErrCodeBadRequest, "failed to read body (limit %d bytes)", 64)
	assert.Equal(t, "[BAD_REQUEST] failed to read body (limit 64 bytes): http: request body too large", err.Error())
}
