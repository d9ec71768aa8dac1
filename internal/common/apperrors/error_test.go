package apperrors

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	t.Run("TestError", func(t *testing.T) {
		ErrBaseErr := New("base error")
		assert.Equal(t, "base error", ErrBaseErr.Error())
		assert.Equal(t, "msg", ErrBaseErr.New("msg").Error())
		assert.ErrorIs(t, ErrBaseErr, ErrBaseErr)

		ErrFirstLevel := ErrBaseErr.New("first level")
		assert.Equal(t, "first level", ErrFirstLevel.Error())
		assert.ErrorIs(t, ErrFirstLevel, ErrBaseErr)

		ErrAnotherErr := New("another error")
		ErrWrappedErr := ErrFirstLevel.Err(ErrAnotherErr)
		assert.Equal(t, "first level", ErrWrappedErr.Error())
		assert.ErrorIs(t, ErrWrappedErr, ErrBaseErr)
		assert.ErrorIs(t, ErrWrappedErr, ErrAnotherErr)

		err := errors.New("error")
		ErrWrappedErr = ErrFirstLevel.Err(err)
		assert.Equal(t, "first level", ErrWrappedErr.Error())
		assert.ErrorIs(t, ErrWrappedErr, ErrBaseErr)
		assert.ErrorIs(t, ErrWrappedErr, err)

		ErrWrappedErr = ErrFirstLevel.MsgErr("msg", err)
		assert.Equal(t, "msg", ErrWrappedErr.Error())
		assert.ErrorIs(t, ErrWrappedErr, ErrBaseErr)
		assert.ErrorIs(t, ErrWrappedErr, err)
	})

	t.Run("SentinelsAreNotMutated", func(t *testing.T) {
		ErrBase := New("not found").SetStatusCode(http.StatusNotFound)
		derived := ErrBase.Msg("asset not found")
		assert.Equal(t, "not found", ErrBase.Error())
		assert.Equal(t, "asset not found", derived.Error())
		assert.Equal(t, http.StatusNotFound, derived.StatusCode())
		assert.ErrorIs(t, derived, ErrBase)

		prefixed := ErrBase.Prefix("commit 7")
		assert.Equal(t, "commit 7: not found", prefixed.Error())
		assert.Equal(t, "commit 7: not found", prefixed.Error())
	})

	t.Run("ErrorAll", func(t *testing.T) {
		ErrBase := New("storage unavailable")
		err := ErrBase.Err(errors.New("timeout")).SetExpandError(true)
		assert.Equal(t, "storage unavailable: timeout", err.ErrorAll())
		assert.Equal(t, "storage unavailable", ErrBase.ErrorAll())
	})
}
