// Package blobmanager selects and opens the configured blob store backend.
package blobmanager

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tansive/assetvault/internal/assetsrv/blobstore"
	"github.com/tansive/assetvault/internal/assetsrv/blobstore/fsblob"
	"github.com/tansive/assetvault/internal/assetsrv/blobstore/memblob"
	"github.com/tansive/assetvault/internal/assetsrv/blobstore/s3blob"
	"github.com/tansive/assetvault/internal/assetsrv/config"
)

func NewBlobStore(ctx context.Context, cfg config.BlobStoreConfig) (blobstore.BlobStore, error) {
	var (
		store blobstore.BlobStore
		err   error
	)
	switch cfg.Backend {
	case "memory":
		store = memblob.New()
	case "filesystem":
		store, err = fsblob.New(cfg.DataDir, cfg.Compress)
	case "s3":
		store, err = s3blob.New(ctx, s3blob.Options{
			Bucket:           cfg.Bucket,
			Region:           cfg.Region,
			Endpoint:         cfg.Endpoint,
			AccessKeyID:      cfg.AccessKeyID,
			SecretAccessKey:  cfg.SecretAccessKey,
			OperationTimeout: cfg.OperationTimeout.Duration,
		})
	default:
		return nil, fmt.Errorf("unsupported blob store backend: %s", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("backend", cfg.Backend).Msg("blob store ready")
	return store, nil
}
