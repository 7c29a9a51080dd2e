package errors

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_IsMatchesByCode(t *testing.T) {
	err := NotFound("organization", "abc")
	assert.True(t, stdErrors.Is(err, ErrNotFound))
	assert.False(t, stdErrors.Is(err, ErrValidation))
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "abc", err.Details()["id"])
}

func TestWrapError_NilCause(t *testing.T) {
	assert.Nil(t, WrapError(nil, ErrCodeDatabase, "x"))
}

func TestWrapError_UnwrapsCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := WrapError(cause, ErrCodeDatabase, "query")
	require.Error(t, err)
	assert.True(t, stdErrors.Is(err, cause))
	assert.Contains(t, err.Error(), "DATABASE_ERROR")
}

func TestNotFoundOnNoRows(t *testing.T) {
	err := NotFoundOnNoRows(fmt.Errorf("scan: %w", sql.ErrNoRows), "versioning", 1)
	assert.True(t, IsNotFound(err))
	assert.True(t, stdErrors.Is(err, sql.ErrNoRows))

	other := fmt.Errorf("connection reset")
	assert.Same(t, other, NotFoundOnNoRows(other, "versioning", 1))
	assert.NoError(t, NotFoundOnNoRows(nil, "versioning", 1))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrorCode(""), GetErrorCode(nil))
	assert.Equal(t, ErrCodeInternal, GetErrorCode(fmt.Errorf("plain")))
	assert.Equal(t, ErrCodeUnsupportedVariant, GetErrorCode(UnsupportedVariant("address include", "Phone")))

	wrapped := fmt.Errorf("outer: %w", NewError(ErrCodeLockTimeout, "timeout"))
	assert.True(t, IsErrorCode(wrapped, ErrCodeLockTimeout))
}

func TestWithContext_DoesNotMutateOriginal(t *testing.T) {
	base := NewError(ErrCodeConflict, "state")
	derived := base.WithContext("from", "Published")
	assert.Empty(t, base.Details())
	assert.Equal(t, "Published", derived.Details()["from"])
}

func TestWrapWithLog(t *testing.T) {
	err := WrapWithLog(context.Background(), fmt.Errorf("io"), ErrCodeQueue, "publish failed")
	assert.True(t, IsErrorCode(err, ErrCodeQueue))
	assert.NoError(t, WrapWithLog(context.Background(), nil, ErrCodeQueue, "noop"))
}
