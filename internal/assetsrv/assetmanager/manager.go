// Package assetmanager runs the check-out and check-in transactions on top of
// the registry, the ledger and the blob store, and builds the asset views the
// API returns.
package assetmanager

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"github.com/tansive/assetvault/internal/assetsrv/blobstore"
	"github.com/tansive/assetvault/internal/assetsrv/config"
	"github.com/tansive/assetvault/internal/assetsrv/db"
	"github.com/tansive/assetvault/internal/assetsrv/db/dberror"
	"github.com/tansive/assetvault/internal/assetsrv/db/models"
	"github.com/tansive/assetvault/internal/assetsrv/ledger"
	"github.com/tansive/assetvault/internal/assetsrv/registry"
	"github.com/tansive/assetvault/internal/assetsrv/vcserror"
	"github.com/tansive/assetvault/internal/common/apperrors"
	"github.com/tansive/assetvault/pkg/api"
)

type Options struct {
	// AutoApprove moves lastApprovedId to every new check-in commit.
	AutoApprove     bool
	ResetPolicy     ledger.ResetPolicy
	AdvanceAttempts uint
	AdvanceDelay    time.Duration
	CacheSize       int
	CacheTTL        time.Duration
}

func OptionsFromConfig(cfg *config.ConfigParam) Options {
	return Options{
		AutoApprove:     cfg.VCS.AutoApproveCheckin,
		ResetPolicy:     ledger.ResetPolicy(cfg.VCS.VersionResetPolicy),
		AdvanceAttempts: cfg.VCS.AdvanceRetryAttempts,
		AdvanceDelay:    cfg.VCS.AdvanceRetryDelay.Duration,
		CacheSize:       cfg.VCS.CommitCacheSize,
		CacheTTL:        cfg.VCS.CommitCacheTTL.Duration,
	}
}

type Manager struct {
	registry *registry.Registry
	ledger   *ledger.Ledger
	blobs    blobstore.BlobStore
	opts     Options
}

func New(store db.DocStore, blobs blobstore.BlobStore, opts Options) *Manager {
	if opts.AdvanceAttempts == 0 {
		opts.AdvanceAttempts = 3
	}
	if opts.ResetPolicy == "" {
		opts.ResetPolicy = ledger.ResetNone
	}
	return &Manager{
		registry: registry.New(store),
		ledger:   ledger.New(store, ledger.Options{CacheSize: opts.CacheSize, CacheTTL: opts.CacheTTL}),
		blobs:    blobs,
		opts:     opts,
	}
}

func (m *Manager) GetAsset(ctx context.Context, name string) (*api.AssetView, apperrors.Error) {
	asset, err := m.registry.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return m.view(ctx, asset)
}

// DownloadRef is the path a client fetches to get the files of a commit.
func DownloadRef(name string, commitID int64) string {
	return "/assets/" + name + "/download?commit=" + strconv.FormatInt(commitID, 10)
}

// CheckOut locks the asset for requester and returns its view together with a
// reference to the files of the commit that was checked out.
func (m *Manager) CheckOut(ctx context.Context, name, requester string) (view *api.AssetView, downloadRef string, err apperrors.Error) {
	defer func() { checkoutsTotal.WithLabelValues(resultLabel(err)).Inc() }()

	asset, err := m.registry.AcquireLock(ctx, name, requester)
	if err != nil {
		return nil, "", err
	}
	view, err = m.view(ctx, asset)
	if err != nil {
		return nil, "", err
	}
	return view, DownloadRef(name, asset.LatestCommitID), nil
}

// CancelCheckout releases the requester's lock without recording a commit.
func (m *Manager) CancelCheckout(ctx context.Context, name, requester string) (*api.AssetView, apperrors.Error) {
	asset, err := m.registry.ReleaseLock(ctx, name, registry.Release{Holder: requester})
	if err != nil {
		return nil, err
	}
	return m.view(ctx, asset)
}

type CheckInRequest struct {
	AssetName   string
	Requester   string
	Notes       string
	VersionBump string
	Files       map[string]string
}

// CheckIn records a new commit for an asset held by requester and releases the
// lock. Preconditions are checked in order: the asset exists, it is checked
// out, requester holds it, the manifest names are valid. The request shape is
// checked after that. The commit stays pending until the asset points at it;
// if the asset cannot be advanced the commit is rolled back.
func (m *Manager) CheckIn(ctx context.Context, req CheckInRequest) (view *api.AssetView, err apperrors.Error) {
	defer func() { checkinsTotal.WithLabelValues(resultLabel(err)).Inc() }()

	asset, err := m.registry.FindByName(ctx, req.AssetName)
	if err != nil {
		return nil, err
	}
	if err := registry.CheckHolder(asset, req.Requester); err != nil {
		return nil, err
	}
	if err := ledger.ValidateManifest(asset.Name, req.Files); err != nil {
		return nil, err
	}
	if req.Notes == "" {
		return nil, vcserror.ErrInvalidInput.Msg("notes are required")
	}
	bump, err := ledger.ParseBump(req.VersionBump)
	if err != nil {
		return nil, err
	}
	if err := m.verifyLocators(ctx, asset.Name, req.Files); err != nil {
		return nil, err
	}

	base, err := m.ledger.Resolve(ctx, asset.LatestCommitID)
	if err != nil {
		return nil, err
	}
	if base.Pending {
		// the previous check-in advanced the asset but did not publish its commit
		m.publish(ctx, base)
	}
	version, err := ledger.NextVersion(base.VersionNumber, bump, m.opts.ResetPolicy)
	if err != nil {
		return nil, err
	}
	baseID := asset.LatestCommitID
	commit, err := m.ledger.Append(ctx, ledger.AppendRequest{
		AssetName:    asset.Name,
		Author:       req.Requester,
		Notes:        req.Notes,
		Version:      version,
		BaseCommitID: &baseID,
		Files:        req.Files,
		Approved:     m.opts.AutoApprove,
	})
	if err != nil {
		return nil, err
	}

	updated, err := m.advance(ctx, asset.Name, registry.Release{
		Holder:       req.Requester,
		BaseCommitID: baseID,
		NewCommitID:  commit.CommitID,
		Approve:      m.opts.AutoApprove,
	})
	if err != nil {
		var advanced bool
		updated, advanced = m.abandon(ctx, commit)
		if !advanced {
			if errors.Is(err, vcserror.ErrNotLocked) || errors.Is(err, vcserror.ErrNotHolder) || errors.Is(err, vcserror.ErrNotFound) {
				return nil, err
			}
			return nil, vcserror.ErrConflict.MsgErr("check-in of "+asset.Name+" could not be completed", err)
		}
	}
	m.publish(ctx, commit)
	return m.view(ctx, updated)
}

// abandon rolls back a commit whose asset advance failed. The asset is read
// again first: if it already points at the commit, the advance was applied and
// the asset is returned with advanced set. If the asset cannot be read the
// commit is left pending, where readers do not see it.
func (m *Manager) abandon(ctx context.Context, commit *models.Commit) (asset *models.Asset, advanced bool) {
	current, err := m.registry.FindByName(ctx, commit.AssetName)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("asset", commit.AssetName).Int64("commit_id", commit.CommitID).
			Msg("cannot confirm asset state, leaving commit pending")
		return nil, false
	}
	if current.LatestCommitID == commit.CommitID {
		log.Ctx(ctx).Warn().Str("asset", commit.AssetName).Int64("commit_id", commit.CommitID).
			Msg("asset advance was applied despite the reported failure")
		return current, true
	}
	checkinRollbacksTotal.Inc()
	if rbErr := m.ledger.Rollback(ctx, commit.CommitID); rbErr != nil {
		log.Ctx(ctx).Error().Err(rbErr).Str("asset", commit.AssetName).Int64("commit_id", commit.CommitID).
			Msg("failed to roll back commit")
	}
	return nil, false
}

// publish clears the pending mark of a commit the asset points at. A failure
// is only logged: the commit stays visible as the asset's head and the next
// check-in publishes it again.
func (m *Manager) publish(ctx context.Context, commit *models.Commit) {
	if err := m.ledger.Publish(ctx, commit.CommitID); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("asset", commit.AssetName).Int64("commit_id", commit.CommitID).
			Msg("failed to publish commit")
	}
}

// advance retries the registry update on transient failures.
func (m *Manager) advance(ctx context.Context, name string, rel registry.Release) (*models.Asset, apperrors.Error) {
	var (
		asset  *models.Asset
		appErr apperrors.Error
	)
	err := retry.Do(func() error {
		asset, appErr = m.registry.ReleaseLock(ctx, name, rel)
		if appErr != nil {
			return appErr
		}
		return nil
	},
		retry.Attempts(m.opts.AdvanceAttempts),
		retry.Delay(m.opts.AdvanceDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warn().Err(err).Str("asset", name).Int64("commit_id", rel.NewCommitID).
				Uint("attempt", n+1).Msg("retrying asset advance")
		}))
	if err != nil {
		if appErr != nil {
			return nil, appErr
		}
		return nil, vcserror.ErrConflict.Err(err)
	}
	return asset, nil
}

func isTransient(err error) bool {
	return errors.Is(err, registry.ErrStaleRead) || errors.Is(err, dberror.ErrUnavailable)
}

// verifyLocators checks that every manifest entry points at a stored blob that
// belongs to the asset.
func (m *Manager) verifyLocators(ctx context.Context, asset string, files map[string]string) apperrors.Error {
	for name, locator := range files {
		if err := blobstore.ValidateKey(locator); err != nil {
			return vcserror.ErrInvalidInput.Msg("invalid storage locator for " + name)
		}
		if !strings.HasPrefix(locator, asset+"/") {
			return vcserror.ErrInvalidInput.Msg("storage locator for " + name + " does not belong to " + asset)
		}
		ok, err := m.blobs.Exists(ctx, locator)
		if err != nil {
			return storageError(err)
		}
		if !ok {
			return vcserror.ErrFileNotFound.Msg("no uploaded content for " + name + " at " + locator)
		}
	}
	return nil
}

// storageError maps blob store failures onto the version control taxonomy.
func storageError(err apperrors.Error) apperrors.Error {
	switch {
	case errors.Is(err, blobstore.ErrBlobNotFound):
		return vcserror.ErrFileNotFound.MsgErr(err.Error(), err)
	case errors.Is(err, blobstore.ErrInvalidKey):
		return vcserror.ErrInvalidInput.MsgErr(err.Error(), err)
	default:
		return vcserror.ErrStorageUnavailable.Err(err)
	}
}
