// Package dbmanager selects and opens the configured document store backend.
package dbmanager

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/tansive/assetvault/internal/assetsrv/config"
	"github.com/tansive/assetvault/internal/assetsrv/db"
	"github.com/tansive/assetvault/internal/assetsrv/db/dberror"
	"github.com/tansive/assetvault/internal/assetsrv/db/memstore"
	"github.com/tansive/assetvault/internal/assetsrv/db/models"
	"github.com/tansive/assetvault/internal/assetsrv/db/mongostore"
	"github.com/tansive/assetvault/internal/assetsrv/db/pgstore"
)

// NewDocStore opens the backend named in cfg and ensures the lookup indexes exist.
func NewDocStore(ctx context.Context, cfg config.DocStoreConfig) (db.DocStore, error) {
	var (
		store db.DocStore
		err   error
	)
	switch cfg.Backend {
	case "memory":
		store = memstore.New()
	case "mongodb":
		store, err = mongostore.Connect(ctx, mongostore.Options{
			URI:              cfg.URI,
			Database:         cfg.Database,
			OperationTimeout: cfg.OperationTimeout.Duration,
		})
	case "postgres":
		store, err = pgstore.Open(ctx, pgstore.Options{
			DSN:              cfg.URI,
			OperationTimeout: cfg.OperationTimeout.Duration,
		})
	default:
		return nil, dberror.ErrUnsupportedBackend.Msg("unsupported document store backend: " + cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if err := EnsureIndexes(ctx, store); err != nil {
		store.Close(ctx)
		return nil, err
	}
	log.Ctx(ctx).Info().Str("backend", cfg.Backend).Msg("document store ready")
	return store, nil
}

// EnsureIndexes creates the secondary indexes the registry and ledger query on.
func EnsureIndexes(ctx context.Context, store db.DocStore) error {
	indexes := []struct{ collection, field string }{
		{db.CollectionAssets, models.AssetFieldName},
		{db.CollectionCommits, models.CommitFieldCommitID},
		{db.CollectionCommits, models.CommitFieldAssetName},
		{db.CollectionCommits, models.CommitFieldAuthor},
		{db.CollectionCommitFiles, models.CommitFieldCommitID},
	}
	for _, idx := range indexes {
		if err := store.EnsureIndex(ctx, idx.collection, idx.field); err != nil {
			return err
		}
	}
	return nil
}
