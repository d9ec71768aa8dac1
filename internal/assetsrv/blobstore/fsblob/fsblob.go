// Package fsblob stores blobs as files under a data directory. Writes go to a
// temporary file that is fsynced and renamed into place, so a reader never sees
// a partially written blob.
package fsblob

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/snappy"
	"github.com/rs/zerolog/log"
	"github.com/tansive/assetvault/internal/assetsrv/blobstore"
	"github.com/tansive/assetvault/internal/common/apperrors"
)

const tmpPrefix = ".upload-"

// magic chunk that starts every snappy framed stream
var snappyMagic = []byte("\xff\x06\x00\x00sNaPpY")

type Store struct {
	dataDir  string
	compress bool
}

var _ blobstore.BlobStore = (*Store)(nil)

// New creates the data directory if needed. With compress set, new blobs are
// written as snappy framed streams; reads detect the format per blob.
func New(dataDir string, compress bool) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}
	return &Store{dataDir: dataDir, compress: compress}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dataDir, filepath.FromSlash(key))
}

func (s *Store) Put(ctx context.Context, key string, r io.Reader) (int64, apperrors.Error) {
	if err := blobstore.ValidateKey(key); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, blobstore.ErrStorageUnavailable.Err(err)
	}
	fullPath := s.path(key)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return 0, unavailable(ctx, "mkdir", key, err)
	}
	f, err := os.CreateTemp(filepath.Dir(fullPath), tmpPrefix+"*")
	if err != nil {
		return 0, unavailable(ctx, "create", key, err)
	}
	tmpPath := f.Name()
	fail := func(op string, err error) (int64, apperrors.Error) {
		f.Close()
		os.Remove(tmpPath)
		return 0, unavailable(ctx, op, key, err)
	}

	var size int64
	if s.compress {
		w := snappy.NewBufferedWriter(f)
		if size, err = io.Copy(w, contextReader{ctx, r}); err != nil {
			return fail("write", err)
		}
		if err = w.Close(); err != nil {
			return fail("write", err)
		}
	} else if size, err = io.Copy(f, contextReader{ctx, r}); err != nil {
		return fail("write", err)
	}
	if err := f.Sync(); err != nil {
		return fail("fsync", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, unavailable(ctx, "close", key, err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return 0, unavailable(ctx, "rename", key, err)
	}
	return size, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, apperrors.Error) {
	if err := blobstore.ValidateKey(key); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, blobstore.ErrBlobNotFound.Msg("blob not found: " + key)
		}
		return nil, unavailable(ctx, "open", key, err)
	}
	br := bufio.NewReader(f)
	head, _ := br.Peek(len(snappyMagic))
	if bytes.Equal(head, snappyMagic) {
		return readCloser{Reader: snappy.NewReader(br), Closer: f}, nil
	}
	return readCloser{Reader: br, Closer: f}, nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, apperrors.Error) {
	if err := blobstore.ValidateKey(key); err != nil {
		return false, err
	}
	_, err := os.Stat(s.path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, unavailable(ctx, "stat", key, err)
}

func (s *Store) Delete(ctx context.Context, key string) apperrors.Error {
	if err := blobstore.ValidateKey(key); err != nil {
		return err
	}
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return unavailable(ctx, "remove", key, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, apperrors.Error) {
	keys := make([]string, 0)
	err := filepath.WalkDir(s.dataDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tmpPrefix) {
			return nil
		}
		rel, err := filepath.Rel(s.dataDir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return ctx.Err()
	})
	if err != nil {
		return nil, unavailable(ctx, "list", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

func unavailable(ctx context.Context, op, key string, err error) apperrors.Error {
	log.Ctx(ctx).Error().Err(err).Str("op", op).Str("key", key).Msg("blob store operation failed")
	return blobstore.ErrStorageUnavailable.Err(err)
}

// contextReader stops a long copy once the request context is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
