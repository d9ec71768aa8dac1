// Package ledger owns the append-only commit history. Commits and their file
// manifests are written once; only the approval state and the pending mark of
// a commit change afterwards.
package ledger

import (
	"context"
	"errors"
	"iter"
	"slices"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
	"github.com/tansive/assetvault/internal/assetsrv/db"
	"github.com/tansive/assetvault/internal/assetsrv/db/dberror"
	"github.com/tansive/assetvault/internal/assetsrv/db/models"
	"github.com/tansive/assetvault/internal/assetsrv/vcserror"
	"github.com/tansive/assetvault/internal/common/apperrors"
)

type Options struct {
	CacheSize int
	CacheTTL  time.Duration
}

type Ledger struct {
	store db.DocStore
	// cache holds only commits that can no longer change: approved and published.
	cache *expirable.LRU[int64, models.Commit]
	now   func() time.Time
}

func New(store db.DocStore, opts Options) *Ledger {
	size := opts.CacheSize
	if size <= 0 {
		size = 1024
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Ledger{
		store: store,
		cache: expirable.NewLRU[int64, models.Commit](size, nil, ttl),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func commitKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

type AppendRequest struct {
	AssetName string
	Author    string
	Notes     string
	Version   string
	// BaseCommitID is nil for an asset's root commit.
	BaseCommitID *int64
	Files        map[string]string
	Approved     bool
}

// Append allocates a commit id and stores the commit with its file manifest.
// The commit is pending until Publish. If the manifest cannot be stored the
// commit is removed again.
func (l *Ledger) Append(ctx context.Context, req AppendRequest) (*models.Commit, apperrors.Error) {
	if err := ValidateManifest(req.AssetName, req.Files); err != nil {
		return nil, err
	}
	id, err := l.store.NextSequence(ctx, db.SequenceCommitID)
	if err != nil {
		return nil, err
	}
	commit := &models.Commit{
		CommitID:      id,
		AssetName:     req.AssetName,
		Author:        req.Author,
		VersionNumber: req.Version,
		Notes:         req.Notes,
		PrevCommitID:  req.BaseCommitID,
		CommitDate:    l.now(),
		HasMaterials:  HasMaterials(req.AssetName, req.Files),
		State:         []string{},
		Pending:       true,
	}
	if req.Approved {
		commit.State = append(commit.State, models.CommitStateApproved)
	}
	if err := l.store.InsertOne(ctx, db.CollectionCommits, commitKey(id), commit); err != nil {
		return nil, err
	}
	files := &models.CommitFile{CommitID: id, Files: req.Files}
	if err := l.store.InsertOne(ctx, db.CollectionCommitFiles, commitKey(id), files); err != nil {
		if _, delErr := l.store.DeleteOne(ctx, db.CollectionCommits, db.Filter{models.CommitFieldCommitID: id}); delErr != nil {
			log.Ctx(ctx).Error().Err(delErr).Int64("commit_id", id).Msg("failed to remove commit after manifest insert failed")
		}
		return nil, err
	}
	log.Ctx(ctx).Info().Str("asset", req.AssetName).Int64("commit_id", id).Str("author", req.Author).
		Str("version", req.Version).Msg("commit appended")
	return commit, nil
}

// Rollback removes a commit that never became reachable from its asset.
func (l *Ledger) Rollback(ctx context.Context, commitID int64) apperrors.Error {
	l.cache.Remove(commitID)
	filter := db.Filter{models.CommitFieldCommitID: commitID}
	if _, err := l.store.DeleteOne(ctx, db.CollectionCommitFiles, filter); err != nil {
		return err
	}
	if _, err := l.store.DeleteOne(ctx, db.CollectionCommits, filter); err != nil {
		return err
	}
	log.Ctx(ctx).Warn().Int64("commit_id", commitID).Msg("commit rolled back")
	return nil
}

// Publish clears the pending mark once the asset points at the commit.
func (l *Ledger) Publish(ctx context.Context, commitID int64) apperrors.Error {
	_, err := l.store.UpdateOne(ctx, db.CollectionCommits,
		db.Filter{models.CommitFieldCommitID: commitID},
		db.Patch{models.CommitFieldPending: false})
	if err != nil {
		return err
	}
	log.Ctx(ctx).Debug().Int64("commit_id", commitID).Msg("commit published")
	return nil
}

func (l *Ledger) Resolve(ctx context.Context, commitID int64) (*models.Commit, apperrors.Error) {
	if c, ok := l.cache.Get(commitID); ok {
		c.State = slices.Clone(c.State)
		return &c, nil
	}
	var commit models.Commit
	err := l.store.FindOne(ctx, db.CollectionCommits, db.Filter{models.CommitFieldCommitID: commitID}, &commit)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, vcserror.ErrCommitNotFound.Msg("commit not found: " + commitKey(commitID))
		}
		return nil, err
	}
	if commit.IsApproved() && !commit.Pending {
		l.cache.Add(commitID, commit)
		commit.State = slices.Clone(commit.State)
	}
	return &commit, nil
}

func (l *Ledger) CommitFiles(ctx context.Context, commitID int64) (*models.CommitFile, apperrors.Error) {
	var files models.CommitFile
	err := l.store.FindOne(ctx, db.CollectionCommitFiles, db.Filter{models.CommitFieldCommitID: commitID}, &files)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, vcserror.ErrFileNotFound.Msg("no files recorded for commit " + commitKey(commitID))
		}
		return nil, err
	}
	return &files, nil
}

// HistoryOf walks the prevCommitId chain from the asset's latest commit back
// to its root. Every range over the returned sequence starts again from the
// head. A chain that revisits a commit or leaves the asset ends with an error.
func (l *Ledger) HistoryOf(ctx context.Context, asset *models.Asset) iter.Seq2[*models.Commit, error] {
	head := asset.LatestCommitID
	name := asset.Name
	return func(yield func(*models.Commit, error) bool) {
		seen := make(map[int64]struct{})
		next := &head
		for next != nil {
			if _, ok := seen[*next]; ok {
				yield(nil, vcserror.ErrConflict.Msg("commit chain of "+name+" loops at commit "+commitKey(*next)))
				return
			}
			seen[*next] = struct{}{}
			commit, err := l.Resolve(ctx, *next)
			if err != nil {
				yield(nil, err)
				return
			}
			if commit.AssetName != name {
				yield(nil, vcserror.ErrConflict.Msg("commit "+commitKey(commit.CommitID)+" does not belong to "+name))
				return
			}
			if !yield(commit, nil) {
				return
			}
			next = commit.PrevCommitID
		}
	}
}

// CollectHistory drains HistoryOf, stopping after limit commits when limit > 0.
func (l *Ledger) CollectHistory(ctx context.Context, asset *models.Asset, limit int) ([]models.Commit, apperrors.Error) {
	commits := []models.Commit{}
	for c, err := range l.HistoryOf(ctx, asset) {
		if err != nil {
			var appErr apperrors.Error
			if errors.As(err, &appErr) {
				return nil, appErr
			}
			return nil, vcserror.ErrVCS.Err(err)
		}
		commits = append(commits, *c)
		if limit > 0 && len(commits) >= limit {
			break
		}
	}
	return commits, nil
}

type CommitQuery struct {
	AssetName string
	Author    string
	Limit     int64
}

// ListCommits returns matching commits, newest first.
func (l *Ledger) ListCommits(ctx context.Context, q CommitQuery) ([]models.Commit, apperrors.Error) {
	filter := db.Filter{}
	if q.AssetName != "" {
		filter[models.CommitFieldAssetName] = q.AssetName
	}
	if q.Author != "" {
		filter[models.CommitFieldAuthor] = q.Author
	}
	commits := []models.Commit{}
	opts := db.FindOptions{SortBy: models.CommitFieldCommitID, Descending: true, Limit: q.Limit}
	if err := l.store.Find(ctx, db.CollectionCommits, filter, opts, &commits); err != nil {
		return nil, err
	}
	return commits, nil
}

// Approve tags the commit as approved. Approving twice is a no-op.
func (l *Ledger) Approve(ctx context.Context, commitID int64) (*models.Commit, apperrors.Error) {
	commit, err := l.Resolve(ctx, commitID)
	if err != nil {
		return nil, err
	}
	if commit.IsApproved() {
		return commit, nil
	}
	state := append(slices.Clone(commit.State), models.CommitStateApproved)
	var updated models.Commit
	err = l.store.FindOneAndUpdate(ctx, db.CollectionCommits,
		db.Filter{models.CommitFieldCommitID: commitID},
		db.Patch{models.CommitFieldState: state}, &updated)
	l.cache.Remove(commitID)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, vcserror.ErrCommitNotFound.Msg("commit not found: " + commitKey(commitID))
		}
		return nil, err
	}
	log.Ctx(ctx).Info().Int64("commit_id", commitID).Str("asset", updated.AssetName).Msg("commit approved")
	return &updated, nil
}
