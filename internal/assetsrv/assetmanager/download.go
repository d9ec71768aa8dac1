package assetmanager

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog/log"
	"github.com/tansive/assetvault/internal/assetsrv/db/models"
	"github.com/tansive/assetvault/internal/assetsrv/vcserror"
	"github.com/tansive/assetvault/internal/common/apperrors"
)

type Archive struct {
	Filename string
	Body     io.ReadCloser
}

// resolveCommit returns the asset's commit with the given id, or its latest
// commit when commitID is zero.
func (m *Manager) resolveCommit(ctx context.Context, name string, commitID int64) (*models.Commit, apperrors.Error) {
	asset, err := m.registry.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if commitID == 0 {
		commitID = asset.LatestCommitID
	}
	commit, err := m.ledger.Resolve(ctx, commitID)
	if err != nil {
		return nil, err
	}
	if commit.AssetName != name {
		return nil, vcserror.ErrCommitNotFound.Msg(fmt.Sprintf("commit %d does not belong to %s", commitID, name))
	}
	if commit.Pending && commit.CommitID != asset.LatestCommitID {
		return nil, vcserror.ErrCommitNotFound.Msg(fmt.Sprintf("commit not found: %d", commitID))
	}
	return commit, nil
}

// Download packages every file of a commit into a zip archive. Missing blobs are
// reported before any bytes are streamed; the archive itself is written while
// the caller reads it.
func (m *Manager) Download(ctx context.Context, name string, commitID int64) (*Archive, apperrors.Error) {
	commit, err := m.resolveCommit(ctx, name, commitID)
	if err != nil {
		return nil, err
	}
	files, err := m.ledger.CommitFiles(ctx, commit.CommitID)
	if err != nil {
		return nil, err
	}
	if err := m.verifyLocators(ctx, name, files.Files); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(files.Files))
	for n := range files.Files {
		names = append(names, n)
	}
	sort.Strings(names)

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(m.writeArchive(ctx, pw, commit, names, files.Files))
	}()
	return &Archive{
		Filename: fmt.Sprintf("%s-%s.zip", name, commit.VersionNumber),
		Body:     pr,
	}, nil
}

func (m *Manager) writeArchive(ctx context.Context, w io.Writer, commit *models.Commit, names []string, files map[string]string) error {
	zw := zip.NewWriter(w)
	for _, n := range names {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     n,
			Method:   zip.Deflate,
			Modified: commit.CommitDate,
		})
		if err != nil {
			return err
		}
		rc, appErr := m.blobs.Get(ctx, files[n])
		if appErr != nil {
			log.Ctx(ctx).Error().Err(appErr).Str("asset", commit.AssetName).Str("file", n).Msg("failed to read blob for archive")
			return appErr
		}
		_, err = io.Copy(fw, rc)
		rc.Close()
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("asset", commit.AssetName).Str("file", n).Msg("archive interrupted")
			return err
		}
	}
	return zw.Close()
}

// GetFile opens one file of a commit.
func (m *Manager) GetFile(ctx context.Context, name, filename string, commitID int64) (io.ReadCloser, apperrors.Error) {
	commit, err := m.resolveCommit(ctx, name, commitID)
	if err != nil {
		return nil, err
	}
	files, err := m.ledger.CommitFiles(ctx, commit.CommitID)
	if err != nil {
		return nil, err
	}
	locator, ok := files.Files[filename]
	if !ok {
		return nil, vcserror.ErrFileNotFound.Msg(fmt.Sprintf("%s is not part of commit %d", filename, commit.CommitID))
	}
	rc, err := m.blobs.Get(ctx, locator)
	if err != nil {
		return nil, storageError(err)
	}
	return rc, nil
}
