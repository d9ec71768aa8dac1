// Package memblob keeps blobs in memory. Used by tests and development setups.
package memblob

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/tansive/assetvault/internal/assetsrv/blobstore"
	"github.com/tansive/assetvault/internal/common/apperrors"
)

type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

var _ blobstore.BlobStore = (*Store)(nil)

func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

func (s *Store) Put(ctx context.Context, key string, r io.Reader) (int64, apperrors.Error) {
	if err := blobstore.ValidateKey(key); err != nil {
		return 0, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, blobstore.ErrStorageUnavailable.Err(err)
	}
	if err := ctx.Err(); err != nil {
		return 0, blobstore.ErrStorageUnavailable.Err(err)
	}
	s.mu.Lock()
	s.blobs[key] = data
	s.mu.Unlock()
	return int64(len(data)), nil
}

func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, apperrors.Error) {
	if err := ctx.Err(); err != nil {
		return nil, blobstore.ErrStorageUnavailable.Err(err)
	}
	s.mu.RLock()
	data, ok := s.blobs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, blobstore.ErrBlobNotFound.Msg("blob not found: " + key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, apperrors.Error) {
	if err := ctx.Err(); err != nil {
		return false, blobstore.ErrStorageUnavailable.Err(err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[key]
	return ok, nil
}

func (s *Store) Delete(ctx context.Context, key string) apperrors.Error {
	s.mu.Lock()
	delete(s.blobs, key)
	s.mu.Unlock()
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, apperrors.Error) {
	s.mu.RLock()
	keys := make([]string, 0)
	for k := range s.blobs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys, nil
}
