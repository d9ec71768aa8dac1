package ledger

import (
	"strings"

	"github.com/tansive/assetvault/internal/assetsrv/vcserror"
	"github.com/tansive/assetvault/internal/common/apperrors"
)

const (
	usdaExt       = ".usda"
	ThumbnailFile = "thumbnail.png"
)

// ValidFileName reports whether name is one of {asset}.usda,
// {asset}_{variant}.usda or thumbnail.png.
func ValidFileName(asset, name string) bool {
	if name == ThumbnailFile || name == asset+usdaExt {
		return true
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	if !strings.HasPrefix(name, asset+"_") || !strings.HasSuffix(name, usdaExt) {
		return false
	}
	variant := strings.TrimSuffix(strings.TrimPrefix(name, asset+"_"), usdaExt)
	return variant != ""
}

// ValidateFileNames returns an InvalidFileNameError naming every offending file.
func ValidateFileNames(asset string, names []string) apperrors.Error {
	var invalid []string
	for _, name := range names {
		if !ValidFileName(asset, name) {
			invalid = append(invalid, name)
		}
	}
	if len(invalid) > 0 {
		return vcserror.NewInvalidFileNameError(asset, invalid)
	}
	return nil
}

// ValidateManifest checks a file name to locator manifest. Names are checked
// first so every bad name is reported together.
func ValidateManifest(asset string, files map[string]string) apperrors.Error {
	if len(files) == 0 {
		return vcserror.ErrInvalidInput.Msg("at least one file is required")
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	if err := ValidateFileNames(asset, names); err != nil {
		return err
	}
	for name, locator := range files {
		if locator == "" {
			return vcserror.ErrInvalidInput.Msg("missing storage locator for " + name)
		}
	}
	return nil
}

// HasMaterials reports whether the manifest carries anything beyond the
// primary geometry file and the thumbnail.
func HasMaterials(asset string, files map[string]string) bool {
	for name := range files {
		if name != asset+usdaExt && name != ThumbnailFile {
			return true
		}
	}
	return false
}
