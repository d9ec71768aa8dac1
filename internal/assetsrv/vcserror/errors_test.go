package vcserror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodes(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, ErrAssetNotFound.StatusCode())
	assert.Equal(t, http.StatusConflict, ErrAlreadyLocked.StatusCode())
	assert.Equal(t, http.StatusForbidden, ErrNotLocked.StatusCode())
	assert.Equal(t, http.StatusForbidden, ErrNotHolder.StatusCode())
	assert.Equal(t, http.StatusBadRequest, ErrInvalidFileName.StatusCode())
	assert.Equal(t, http.StatusServiceUnavailable, ErrStorageUnavailable.StatusCode())
	assert.Equal(t, http.StatusConflict, ErrConflict.StatusCode())
	assert.True(t, errors.Is(ErrCommitNotFound, ErrNotFound))
}

func TestAlreadyLockedError(t *testing.T) {
	var err error = NewAlreadyLockedError("redApple", "js123")
	assert.True(t, errors.Is(err, ErrAlreadyLocked))

	var locked *AlreadyLockedError
	require.True(t, errors.As(err, &locked))
	assert.Equal(t, "js123", locked.Holder)
	assert.Equal(t, http.StatusConflict, locked.StatusCode())
	assert.Equal(t, map[string]any{"checkedOutBy": "js123"}, locked.Details())
}

func TestInvalidFileNameError(t *testing.T) {
	err := NewInvalidFileNameError("skateboard", []string{"wheels.obj", "skateboard.obj"})
	assert.True(t, errors.Is(err, ErrInvalidFileName))
	assert.Equal(t, []string{"skateboard.obj", "wheels.obj"}, err.Names)
	assert.Contains(t, err.Error(), "skateboard.obj, wheels.obj")
}
