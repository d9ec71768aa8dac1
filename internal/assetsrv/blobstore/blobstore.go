// Package blobstore is the blob side of the storage gateway. Keys are slash
// separated relative paths; a locator stored in a CommitFile is a key.
package blobstore

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/tansive/assetvault/internal/common/apperrors"
)

var (
	ErrBlobStore          apperrors.Error = apperrors.New("blob store error").SetStatusCode(http.StatusInternalServerError)
	ErrBlobNotFound       apperrors.Error = ErrBlobStore.New("blob not found").SetStatusCode(http.StatusNotFound)
	ErrInvalidKey         apperrors.Error = ErrBlobStore.New("invalid blob key").SetStatusCode(http.StatusBadRequest)
	ErrStorageUnavailable apperrors.Error = ErrBlobStore.New("blob storage unavailable").SetStatusCode(http.StatusServiceUnavailable)
)

type BlobStore interface {
	// Put stores the reader's bytes under key, replacing any previous blob, and returns the size written.
	Put(ctx context.Context, key string, r io.Reader) (int64, apperrors.Error)
	// Get opens the blob for reading. The caller closes the returned reader.
	Get(ctx context.Context, key string) (io.ReadCloser, apperrors.Error)
	Exists(ctx context.Context, key string) (bool, apperrors.Error)
	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) apperrors.Error
	// List returns every key starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, apperrors.Error)
}

// ValidateKey rejects keys that are empty, absolute, or escape the store root.
func ValidateKey(key string) apperrors.Error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return ErrInvalidKey.Msg("invalid blob key: " + key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return ErrInvalidKey.Msg("invalid blob key: " + key)
		}
	}
	return nil
}
