package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeInternal, "broken")
	assert.Equal(t, ErrCodeInternal, err.Code)
	assert.Equal(t, "broken", err.Message)
	assert.EqualError(t, err, "INTERNAL_ERROR: broken")
}

func TestAppError_InvalidConfiguration(t *testing.T) {
	err := InvalidConfiguration("degree", "must not be negative")
	assert.Equal(t, ErrCodeInvalidConfiguration, err.Code)
	assert.Equal(t, "degree", err.Details["field"])
	assert.Contains(t, err.Message, "must not be negative")
}

func TestAppError_InvalidConfiguration_EmptyField(t *testing.T) {
	err := InvalidConfiguration("", "conflict")
	assert.NotContains(t, err.Details, "field")
}

func TestAppError_StageFailed(t *testing.T) {
	cause := fmt.Errorf("city is empty")
	err := StageFailed("where#1", 4, cause)
	assert.Equal(t, ErrCodeStageFailed, err.Code)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 4, Index(err))
	assert.True(t, IsStage(err))
}

func TestAppError_Cancelled_DefaultCause(t *testing.T) {
	err := Cancelled(nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, IsCancelled(err))
}

func TestAppError_Cancelled_Deadline(t *testing.T) {
	assert.ErrorIs(t, Cancelled(context.DeadlineExceeded), context.DeadlineExceeded)
}

func TestAppError_SourceFailed(t *testing.T) {
	cause := fmt.Errorf("read failed")
	err := SourceFailed(cause)
	assert.Equal(t, cause, err.Cause)
	assert.Contains(t, err.Error(), "read failed")
}

func TestAppError_WithDetails(t *testing.T) {
	err := Internal("x").WithDetails(map[string]any{"a": 1}).WithDetail("b", 2)
	assert.Equal(t, 1, err.Details["a"])
	assert.Equal(t, 2, err.Details["b"])
}

func TestAppError_WithCause(t *testing.T) {
	cause := fmt.Errorf("root")
	err := Internal("x").WithCause(cause)
	assert.Equal(t, cause, err.Unwrap())
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("wrapped: %w", Configuration("bad"))
	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeInvalidConfiguration, appErr.Code)
	assert.True(t, IsConfiguration(wrapped))

	_, ok = AsAppError(fmt.Errorf("plain"))
	assert.False(t, ok)
	assert.False(t, IsAppError(nil))
}

func TestIndex_NotStage(t *testing.T) {
	assert.Equal(t, -1, Index(fmt.Errorf("plain")))
	assert.Equal(t, -1, Index(Internal("x")), "no index detail")
}

func TestIsTerminalCode(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want bool
	}{
		{ErrCodeAggregatedFailure, true},
		{ErrCodeCancelled, true},
		{ErrCodeInvalidConfiguration, true},
		{ErrCodeStageFailed, false},
		{ErrCodeSourceFailed, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			assert.Equal(t, tc.want, IsTerminalCode(tc.code))
		})
	}
}
