// Package registry owns the Asset records and their lock state. Every lock
// transition is a single conditional document update whose filter carries the
// expected lock state, so concurrent callers on any number of server instances
// cannot both win.
package registry

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tansive/assetvault/internal/assetsrv/db"
	"github.com/tansive/assetvault/internal/assetsrv/db/dberror"
	"github.com/tansive/assetvault/internal/assetsrv/db/models"
	"github.com/tansive/assetvault/internal/assetsrv/vcserror"
	"github.com/tansive/assetvault/internal/common/apperrors"
)

// ErrStaleRead is returned when a conditional update missed but the re-read
// state would have matched; the caller may retry.
var ErrStaleRead apperrors.Error = vcserror.ErrConflict.New("asset changed during update")

const maxLockAttempts = 3

type Registry struct {
	store db.DocStore
	now   func() time.Time
}

func New(store db.DocStore) *Registry {
	return &Registry{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *Registry) FindByName(ctx context.Context, name string) (*models.Asset, apperrors.Error) {
	var asset models.Asset
	err := r.store.FindOne(ctx, db.CollectionAssets, db.Filter{models.AssetFieldName: name}, &asset)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, vcserror.ErrAssetNotFound.Msg("asset not found: " + name)
		}
		return nil, err
	}
	return &asset, nil
}

func (r *Registry) List(ctx context.Context) ([]models.Asset, apperrors.Error) {
	assets := []models.Asset{}
	err := r.store.Find(ctx, db.CollectionAssets, db.Filter{}, db.FindOptions{SortBy: models.AssetFieldName}, &assets)
	if err != nil {
		return nil, err
	}
	return assets, nil
}

// Create stores a new asset in the Available state.
func (r *Registry) Create(ctx context.Context, asset *models.Asset) apperrors.Error {
	if asset.Name == "" {
		return vcserror.ErrInvalidInput.Msg("asset name is required")
	}
	now := r.now()
	asset.CheckedOut = false
	asset.CheckedOutBy = ""
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = now
	}
	asset.UpdatedAt = now
	if asset.Keywords == nil {
		asset.Keywords = []string{}
	}
	if err := r.store.InsertOne(ctx, db.CollectionAssets, asset.Name, asset); err != nil {
		if errors.Is(err, dberror.ErrAlreadyExists) {
			return vcserror.ErrAssetExists.Msg("asset already exists: " + asset.Name)
		}
		return err
	}
	log.Ctx(ctx).Info().Str("asset", asset.Name).Str("creator", asset.CreatedBy).Msg("asset registered")
	return nil
}

// AcquireLock moves the asset from Available to CheckedOut(holder).
func (r *Registry) AcquireLock(ctx context.Context, name, holder string) (*models.Asset, apperrors.Error) {
	if holder == "" {
		return nil, vcserror.ErrInvalidInput.Msg("requester is required")
	}
	filter := db.Filter{
		models.AssetFieldName:       name,
		models.AssetFieldCheckedOut: false,
	}
	for attempt := 1; ; attempt++ {
		patch := db.Patch{
			models.AssetFieldCheckedOut:   true,
			models.AssetFieldCheckedOutBy: holder,
			models.AssetFieldUpdatedAt:    r.now(),
		}
		var asset models.Asset
		err := r.store.FindOneAndUpdate(ctx, db.CollectionAssets, filter, patch, &asset)
		if err == nil {
			log.Ctx(ctx).Info().Str("asset", name).Str("holder", holder).Msg("lock acquired")
			return &asset, nil
		}
		if !errors.Is(err, dberror.ErrNotFound) {
			return nil, err
		}

		current, findErr := r.FindByName(ctx, name)
		if findErr != nil {
			return nil, findErr
		}
		if current.CheckedOut {
			log.Ctx(ctx).Info().Str("asset", name).Str("holder", current.CheckedOutBy).Str("requester", holder).Msg("asset already locked")
			return nil, vcserror.NewAlreadyLockedError(name, current.CheckedOutBy)
		}
		// released between the update and the re-read
		if attempt >= maxLockAttempts {
			return nil, ErrStaleRead
		}
	}
}

// Release describes how a lock is given back.
type Release struct {
	Holder string
	// BaseCommitID is the latestCommitId the holder worked from. Checked only
	// when NewCommitID is set.
	BaseCommitID int64
	// NewCommitID advances latestCommitId. Zero releases without advancing.
	NewCommitID int64
	// Approve also moves lastApprovedId to NewCommitID.
	Approve bool
}

// ReleaseLock moves the asset from CheckedOut(holder) back to Available,
// optionally advancing its commit pointers in the same update.
func (r *Registry) ReleaseLock(ctx context.Context, name string, rel Release) (*models.Asset, apperrors.Error) {
	if rel.Holder == "" {
		return nil, vcserror.ErrInvalidInput.Msg("requester is required")
	}
	filter := db.Filter{
		models.AssetFieldName:         name,
		models.AssetFieldCheckedOut:   true,
		models.AssetFieldCheckedOutBy: rel.Holder,
	}
	patch := db.Patch{
		models.AssetFieldCheckedOut:   false,
		models.AssetFieldCheckedOutBy: "",
		models.AssetFieldUpdatedAt:    r.now(),
	}
	if rel.NewCommitID != 0 {
		filter[models.AssetFieldLatestCommitID] = rel.BaseCommitID
		patch[models.AssetFieldLatestCommitID] = rel.NewCommitID
		if rel.Approve {
			patch[models.AssetFieldLastApprovedID] = rel.NewCommitID
		}
	}

	var asset models.Asset
	err := r.store.FindOneAndUpdate(ctx, db.CollectionAssets, filter, patch, &asset)
	if err == nil {
		log.Ctx(ctx).Info().Str("asset", name).Str("holder", rel.Holder).Int64("commit_id", rel.NewCommitID).Msg("lock released")
		return &asset, nil
	}
	if !errors.Is(err, dberror.ErrNotFound) {
		return nil, err
	}

	current, findErr := r.FindByName(ctx, name)
	if findErr != nil {
		return nil, findErr
	}
	if err := classifyRelease(current, rel); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("asset", name).Str("holder", rel.Holder).Int64("commit_id", rel.NewCommitID).
		Msg("lock already released by an earlier attempt")
	return current, nil
}

// CheckHolder verifies that holder may release the asset's lock.
func CheckHolder(asset *models.Asset, holder string) apperrors.Error {
	if !asset.CheckedOut {
		return vcserror.ErrNotLocked.Msg("asset is not checked out: " + asset.Name)
	}
	if asset.CheckedOutBy != holder {
		return vcserror.ErrNotHolder.Msg("asset " + asset.Name + " is checked out by another user")
	}
	return nil
}

// classifyRelease explains why a release missed. An asset that is available
// and already points at the new commit was advanced by an earlier attempt whose
// reply was lost; that counts as success.
func classifyRelease(current *models.Asset, rel Release) apperrors.Error {
	if rel.NewCommitID != 0 && !current.CheckedOut && current.LatestCommitID == rel.NewCommitID {
		return nil
	}
	if err := CheckHolder(current, rel.Holder); err != nil {
		return err
	}
	if rel.NewCommitID != 0 && current.LatestCommitID != rel.BaseCommitID {
		return vcserror.ErrConflict.Msg("asset " + current.Name + " moved past the checked out commit")
	}
	return ErrStaleRead
}

// SetLastApproved moves lastApprovedId forward to commitID. Older commits leave
// the pointer unchanged.
func (r *Registry) SetLastApproved(ctx context.Context, name string, commitID int64) (*models.Asset, apperrors.Error) {
	for attempt := 1; ; attempt++ {
		current, err := r.FindByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if current.LastApprovedID >= commitID {
			return current, nil
		}
		filter := db.Filter{
			models.AssetFieldName:           name,
			models.AssetFieldLastApprovedID: current.LastApprovedID,
		}
		patch := db.Patch{
			models.AssetFieldLastApprovedID: commitID,
			models.AssetFieldUpdatedAt:      r.now(),
		}
		var asset models.Asset
		err = r.store.FindOneAndUpdate(ctx, db.CollectionAssets, filter, patch, &asset)
		if err == nil {
			log.Ctx(ctx).Info().Str("asset", name).Int64("commit_id", commitID).Msg("last approved commit moved")
			return &asset, nil
		}
		if !errors.Is(err, dberror.ErrNotFound) {
			return nil, err
		}
		if attempt >= maxLockAttempts {
			return nil, ErrStaleRead
		}
	}
}
