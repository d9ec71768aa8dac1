package db

import (
	"context"

	"github.com/tansive/assetvault/internal/common/apperrors"
)

// Collections used by the asset server.
const (
	CollectionAssets      = "assets"
	CollectionCommits     = "commits"
	CollectionCommitFiles = "commitfiles"
)

// SequenceCommitID names the counter that hands out commit ids.
const SequenceCommitID = "commitId"

// Filter matches documents whose top-level fields equal every given value.
type Filter map[string]any

// Patch lists top-level fields to overwrite.
type Patch map[string]any

type FindOptions struct {
	SortBy     string
	Descending bool
	Limit      int64
}

// DocStore is the document side of the storage gateway. Every write is a single
// document operation; UpdateOne and FindOneAndUpdate apply the patch only when
// the filter still matches, which makes them usable as compare-and-set.
type DocStore interface {
	// InsertOne stores doc under id. Returns dberror.ErrAlreadyExists when id is taken.
	InsertOne(ctx context.Context, collection, id string, doc any) apperrors.Error
	// FindOne decodes the first match into out. Returns dberror.ErrNotFound when nothing matches.
	FindOne(ctx context.Context, collection string, filter Filter, out any) apperrors.Error
	// Find decodes all matches into out, which must point to a slice.
	Find(ctx context.Context, collection string, filter Filter, opts FindOptions, out any) apperrors.Error
	// UpdateOne patches one matching document and reports whether one matched.
	UpdateOne(ctx context.Context, collection string, filter Filter, patch Patch) (bool, apperrors.Error)
	// FindOneAndUpdate patches one matching document and decodes the updated document into out.
	// Returns dberror.ErrNotFound when nothing matches.
	FindOneAndUpdate(ctx context.Context, collection string, filter Filter, patch Patch, out any) apperrors.Error
	// DeleteOne removes one matching document and reports whether one matched.
	DeleteOne(ctx context.Context, collection string, filter Filter) (bool, apperrors.Error)
	// NextSequence atomically increments and returns the named counter. The first value is 1.
	NextSequence(ctx context.Context, name string) (int64, apperrors.Error)
	// EnsureIndex creates a secondary index on a top-level field if the backend supports it.
	EnsureIndex(ctx context.Context, collection, field string) apperrors.Error
	Close(ctx context.Context) error
}
