// Package vcserror holds the errors returned by the registry, ledger and
// check-out/check-in operations. Each error carries the HTTP status the API
// layer responds with.
package vcserror

import (
	"net/http"
	"sort"
	"strings"

	"github.com/tansive/assetvault/internal/common/apperrors"
)

var (
	ErrVCS                apperrors.Error = apperrors.New("version control error").SetStatusCode(http.StatusInternalServerError)
	ErrNotFound           apperrors.Error = ErrVCS.New("not found").SetStatusCode(http.StatusNotFound)
	ErrAssetNotFound      apperrors.Error = ErrNotFound.New("asset not found").SetStatusCode(http.StatusNotFound)
	ErrCommitNotFound     apperrors.Error = ErrNotFound.New("commit not found").SetStatusCode(http.StatusNotFound)
	ErrFileNotFound       apperrors.Error = ErrNotFound.New("file not found").SetStatusCode(http.StatusNotFound)
	ErrAssetExists        apperrors.Error = ErrVCS.New("asset already exists").SetStatusCode(http.StatusConflict)
	ErrAlreadyLocked      apperrors.Error = ErrVCS.New("asset is already checked out").SetStatusCode(http.StatusConflict)
	ErrNotLocked          apperrors.Error = ErrVCS.New("asset is not checked out").SetStatusCode(http.StatusForbidden)
	ErrNotHolder          apperrors.Error = ErrVCS.New("asset is checked out by another user").SetStatusCode(http.StatusForbidden)
	ErrInvalidFileName    apperrors.Error = ErrVCS.New("invalid file name").SetStatusCode(http.StatusBadRequest)
	ErrInvalidInput       apperrors.Error = ErrVCS.New("invalid input").SetStatusCode(http.StatusBadRequest)
	ErrInvalidVersion     apperrors.Error = ErrInvalidInput.New("invalid version number").SetStatusCode(http.StatusBadRequest)
	ErrStorageUnavailable apperrors.Error = ErrVCS.New("storage unavailable").SetStatusCode(http.StatusServiceUnavailable)
	ErrConflict           apperrors.Error = ErrVCS.New("concurrent update conflict").SetStatusCode(http.StatusConflict)
)

// appError is embedded under a lower case name so that the Error method is
// promoted instead of being shadowed by a field called Error.
type appError = apperrors.Error

// AlreadyLockedError reports who holds the lock that blocked a check-out.
type AlreadyLockedError struct {
	appError
	Holder string
}

func NewAlreadyLockedError(asset, holder string) *AlreadyLockedError {
	return &AlreadyLockedError{
		appError: ErrAlreadyLocked.Msg("asset " + asset + " is already checked out by " + holder),
		Holder:   holder,
	}
}

func (e *AlreadyLockedError) Details() map[string]any {
	return map[string]any{"checkedOutBy": e.Holder}
}

// InvalidFileNameError lists every file name that broke the naming contract.
type InvalidFileNameError struct {
	appError
	Names []string
}

func NewInvalidFileNameError(asset string, names []string) *InvalidFileNameError {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return &InvalidFileNameError{
		appError: ErrInvalidFileName.Msg("invalid file names for asset " + asset + ": " + strings.Join(sorted, ", ") +
			"; allowed are " + asset + ".usda, " + asset + "_<variant>.usda and thumbnail.png"),
		Names:    sorted,
	}
}

func (e *InvalidFileNameError) Details() map[string]any {
	return map[string]any{"invalidFiles": e.Names}
}
