package dberror

import (
	"net/http"

	"github.com/tansive/assetvault/internal/common/apperrors"
)

var (
	ErrDatabase           apperrors.Error = apperrors.New("db error").SetStatusCode(http.StatusInternalServerError)
	ErrAlreadyExists      apperrors.Error = ErrDatabase.New("already exists").SetStatusCode(http.StatusConflict)
	ErrNotFound           apperrors.Error = ErrDatabase.New("not found").SetStatusCode(http.StatusNotFound)
	ErrInvalidInput       apperrors.Error = ErrDatabase.New("invalid input").SetStatusCode(http.StatusBadRequest)
	ErrUnavailable        apperrors.Error = ErrDatabase.New("document store unavailable").SetStatusCode(http.StatusServiceUnavailable)
	ErrUnsupportedBackend apperrors.Error = ErrDatabase.New("unsupported document store backend")
)
