package assetmanager

import (
	"context"
	"errors"
	"io"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"
	"github.com/tansive/assetvault/internal/assetsrv/ledger"
	"github.com/tansive/assetvault/internal/assetsrv/registry"
	"github.com/tansive/assetvault/internal/assetsrv/schemavalidator"
	"github.com/tansive/assetvault/internal/assetsrv/vcserror"
	"github.com/tansive/assetvault/internal/common/apperrors"
	"github.com/tansive/assetvault/pkg/api"
)

// StagingKey is where an upload is stored until a commit references it.
func StagingKey(name, id, filename string) string {
	return name + "/staging/" + id + "/" + filename
}

// StageUpload stores one file for a later check-in or registration and returns
// the locator to put in the manifest. Uploads for an existing asset require
// the requester to hold its lock.
func (m *Manager) StageUpload(ctx context.Context, name, filename, requester string, r io.Reader) (*api.UploadRsp, apperrors.Error) {
	if !schemavalidator.ValidateAssetName(name) {
		return nil, vcserror.ErrInvalidInput.Msg("invalid asset name: " + name)
	}
	if requester == "" {
		return nil, vcserror.ErrInvalidInput.Msg("requester is required")
	}
	if err := ledger.ValidateFileNames(name, []string{filename}); err != nil {
		return nil, err
	}
	asset, err := m.registry.FindByName(ctx, name)
	switch {
	case err == nil:
		if err := registry.CheckHolder(asset, requester); err != nil {
			return nil, err
		}
	case errors.Is(err, vcserror.ErrAssetNotFound):
		// staging for a registration
	default:
		return nil, err
	}

	id, idErr := gonanoid.New()
	if idErr != nil {
		return nil, vcserror.ErrVCS.Err(idErr)
	}
	key := StagingKey(name, id, filename)
	size, err := m.blobs.Put(ctx, key, r)
	if err != nil {
		return nil, storageError(err)
	}
	uploadBytesTotal.Add(float64(size))
	log.Ctx(ctx).Info().Str("asset", name).Str("file", filename).Str("locator", key).Int64("size", size).Msg("file staged")
	return &api.UploadRsp{Filename: filename, Locator: key, Size: size}, nil
}
