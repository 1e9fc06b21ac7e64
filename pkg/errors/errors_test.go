package errors

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrPreconditionFailed, "no academic period available"))

	appErr := FromError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusPreconditionFailed, appErr.Status)
	assert.Equal(t, "no academic period available", appErr.Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.ErrorIs(t, appErr, sql.ErrConnDone)
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrUnprocessable, "invalid course code: 12")
	assert.Equal(t, "unprocessable payload", ErrUnprocessable.Message)
	assert.Equal(t, "invalid course code: 12", clone.Error())
	assert.Nil(t, FromError(nil))
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("load period: %w", Clone(ErrNotFound, "period not found"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrConflict)

	wrapped := Wrap(sql.ErrNoRows, ErrNotFound.Code, ErrNotFound.Status, "room not found")
	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.ErrorIs(t, wrapped, sql.ErrNoRows)
}
