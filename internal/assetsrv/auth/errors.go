package auth

import (
	"net/http"

	"github.com/tansive/assetvault/internal/common/apperrors"
)

var (
	ErrAuth          apperrors.Error = apperrors.New("auth error").SetStatusCode(http.StatusInternalServerError)
	ErrUnauthorized  apperrors.Error = ErrAuth.New("unauthorized access").SetStatusCode(http.StatusUnauthorized)
	ErrInvalidToken  apperrors.Error = ErrUnauthorized.New("invalid token").SetStatusCode(http.StatusUnauthorized)
	ErrTokenCreation apperrors.Error = ErrAuth.New("failed to generate token").SetStatusCode(http.StatusInternalServerError)
)
