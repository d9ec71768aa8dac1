package assetmanager

import (
	"context"
	"errors"
	"strconv"

	"github.com/tansive/assetvault/internal/assetsrv/db/models"
	"github.com/tansive/assetvault/internal/assetsrv/ledger"
	"github.com/tansive/assetvault/internal/assetsrv/vcserror"
	"github.com/tansive/assetvault/internal/common/apperrors"
	"github.com/tansive/assetvault/pkg/api"
)

// History returns the asset's commit chain, newest first.
func (m *Manager) History(ctx context.Context, name string, limit int) ([]api.Commit, apperrors.Error) {
	asset, err := m.registry.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	commits, err := m.ledger.CollectHistory(ctx, asset, limit)
	if err != nil {
		return nil, err
	}
	out := make([]api.Commit, 0, len(commits))
	for i := range commits {
		out = append(out, commitView(&commits[i]))
	}
	return out, nil
}

// ListCommits returns matching commits, newest first. Commits that are still
// pending behind their asset's head are left out.
func (m *Manager) ListCommits(ctx context.Context, assetName, author string, limit int64) ([]api.Commit, apperrors.Error) {
	q := ledger.CommitQuery{AssetName: assetName, Author: author, Limit: limit}
	heads := map[string]int64{}
	out := []api.Commit{}
	for {
		commits, err := m.ledger.ListCommits(ctx, q)
		if err != nil {
			return nil, err
		}
		out = out[:0]
		for i := range commits {
			ok, err := m.visible(ctx, &commits[i], heads)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, commitView(&commits[i]))
			}
		}
		if limit <= 0 || int64(len(out)) >= limit || int64(len(commits)) < q.Limit {
			break
		}
		q.Limit += limit - int64(len(out))
	}
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Manager) GetCommit(ctx context.Context, commitID int64) (*api.Commit, apperrors.Error) {
	c, err := m.resolveVisible(ctx, commitID)
	if err != nil {
		return nil, err
	}
	v := commitView(c)
	return &v, nil
}

func (m *Manager) GetCommitFiles(ctx context.Context, commitID int64) (*api.CommitFiles, apperrors.Error) {
	if _, err := m.resolveVisible(ctx, commitID); err != nil {
		return nil, err
	}
	files, err := m.ledger.CommitFiles(ctx, commitID)
	if err != nil {
		return nil, err
	}
	return &api.CommitFiles{CommitID: files.CommitID, Files: files.Files}, nil
}

// ApproveCommit tags the commit as approved and moves the asset's
// lastApprovedId forward to it. Pending commits cannot be approved.
func (m *Manager) ApproveCommit(ctx context.Context, commitID int64) (*api.Commit, apperrors.Error) {
	if _, err := m.resolveVisible(ctx, commitID); err != nil {
		return nil, err
	}
	c, err := m.ledger.Approve(ctx, commitID)
	if err != nil {
		return nil, err
	}
	if _, err := m.registry.SetLastApproved(ctx, c.AssetName, c.CommitID); err != nil {
		return nil, err
	}
	v := commitView(c)
	return &v, nil
}

// resolveVisible resolves a commit and reports a pending one as not found.
func (m *Manager) resolveVisible(ctx context.Context, commitID int64) (*models.Commit, apperrors.Error) {
	c, err := m.ledger.Resolve(ctx, commitID)
	if err != nil {
		return nil, err
	}
	ok, err := m.visible(ctx, c, map[string]int64{})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, vcserror.ErrCommitNotFound.Msg("commit not found: " + strconv.FormatInt(commitID, 10))
	}
	return c, nil
}

// visible reports whether readers may see c. A pending commit is visible only
// once its asset points at it. heads memoizes asset head lookups.
func (m *Manager) visible(ctx context.Context, c *models.Commit, heads map[string]int64) (bool, apperrors.Error) {
	if !c.Pending {
		return true, nil
	}
	head, ok := heads[c.AssetName]
	if !ok {
		asset, err := m.registry.FindByName(ctx, c.AssetName)
		switch {
		case err == nil:
			head = asset.LatestCommitID
		case errors.Is(err, vcserror.ErrAssetNotFound):
			// root commit of a registration still in flight
		default:
			return false, err
		}
		heads[c.AssetName] = head
	}
	return head == c.CommitID, nil
}
