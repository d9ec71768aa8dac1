package assetmanager

import (
	"context"
	"errors"

	"github.com/tansive/assetvault/internal/assetsrv/db/models"
	"github.com/tansive/assetvault/internal/assetsrv/ledger"
	"github.com/tansive/assetvault/internal/assetsrv/schemavalidator"
	"github.com/tansive/assetvault/internal/assetsrv/vcserror"
	"github.com/tansive/assetvault/internal/common/apperrors"
	"github.com/tansive/assetvault/pkg/api"
)

const initialNotes = "Initial version"

type RegisterRequest struct {
	Name     string
	Creator  string
	Keywords []string
	Notes    string
	Files    map[string]string
}

// Register creates an asset in the Available state together with its approved
// root commit.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) (*api.AssetView, apperrors.Error) {
	if !schemavalidator.ValidateAssetName(req.Name) {
		return nil, vcserror.ErrInvalidInput.Msg("invalid asset name: " + req.Name)
	}
	if req.Creator == "" {
		return nil, vcserror.ErrInvalidInput.Msg("creator is required")
	}
	if err := ledger.ValidateManifest(req.Name, req.Files); err != nil {
		return nil, err
	}
	if _, err := m.registry.FindByName(ctx, req.Name); err == nil {
		return nil, vcserror.ErrAssetExists.Msg("asset already exists: " + req.Name)
	} else if !errors.Is(err, vcserror.ErrAssetNotFound) {
		return nil, err
	}
	if err := m.verifyLocators(ctx, req.Name, req.Files); err != nil {
		return nil, err
	}

	notes := req.Notes
	if notes == "" {
		notes = initialNotes
	}
	commit, err := m.ledger.Append(ctx, ledger.AppendRequest{
		AssetName: req.Name,
		Author:    req.Creator,
		Notes:     notes,
		Version:   ledger.InitialVersion,
		Files:     req.Files,
		Approved:  true,
	})
	if err != nil {
		return nil, err
	}
	asset := &models.Asset{
		Name:           req.Name,
		Keywords:       req.Keywords,
		LatestCommitID: commit.CommitID,
		LastApprovedID: commit.CommitID,
		CreatedBy:      req.Creator,
	}
	if err := m.registry.Create(ctx, asset); err != nil {
		current, created := m.abandon(ctx, commit)
		if !created {
			return nil, err
		}
		asset = current
	}
	m.publish(ctx, commit)
	return m.view(ctx, asset)
}
