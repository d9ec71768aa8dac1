package apis

import (
	"net/http"

	"github.com/tansive/assetvault/internal/common/apperrors"
)

var (
	ErrAPI              apperrors.Error = apperrors.New("api error").SetStatusCode(http.StatusInternalServerError)
	ErrInvalidBody      apperrors.Error = ErrAPI.New("invalid request body").SetStatusCode(http.StatusBadRequest)
	ErrIdentityMismatch apperrors.Error = ErrAPI.New("requester does not match the authenticated user").SetStatusCode(http.StatusForbidden)
)
