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

// FileRef is the path a client fetches to get one file of a commit.
func FileRef(name, filename string, commitID int64) string {
	return "/assets/" + name + "/files/" + filename + "?commit=" + strconv.FormatInt(commitID, 10)
}

func (m *Manager) view(ctx context.Context, asset *models.Asset) (*api.AssetView, apperrors.Error) {
	commit, err := m.ledger.Resolve(ctx, asset.LatestCommitID)
	if err != nil {
		return nil, err
	}
	thumbnail := ""
	files, err := m.ledger.CommitFiles(ctx, commit.CommitID)
	if err != nil && !errors.Is(err, vcserror.ErrFileNotFound) {
		return nil, err
	}
	if files != nil {
		if _, ok := files.Files[ledger.ThumbnailFile]; ok {
			thumbnail = FileRef(asset.Name, ledger.ThumbnailFile, commit.CommitID)
		}
	}
	keywords := asset.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return &api.AssetView{
		Name:           asset.Name,
		ThumbnailRef:   thumbnail,
		Version:        commit.VersionNumber,
		Creator:        asset.CreatedBy,
		LastModifiedBy: commit.Author,
		CheckedOutBy:   asset.CheckedOutBy,
		IsCheckedOut:   asset.CheckedOut,
		HasMaterials:   commit.HasMaterials,
		Keywords:       keywords,
		Description:    commit.Notes,
		CreatedAt:      asset.CreatedAt,
		UpdatedAt:      asset.UpdatedAt,
		LatestCommitID: asset.LatestCommitID,
		LastApprovedID: asset.LastApprovedID,
	}, nil
}

func commitView(c *models.Commit) api.Commit {
	state := c.State
	if state == nil {
		state = []string{}
	}
	return api.Commit{
		CommitID:      c.CommitID,
		AssetName:     c.AssetName,
		Author:        c.Author,
		VersionNumber: c.VersionNumber,
		Notes:         c.Notes,
		PrevCommitID:  c.PrevCommitID,
		CommitDate:    c.CommitDate,
		HasMaterials:  c.HasMaterials,
		State:         state,
	}
}
