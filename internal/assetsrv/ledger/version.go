package ledger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tansive/assetvault/internal/assetsrv/schemavalidator"
	"github.com/tansive/assetvault/internal/assetsrv/vcserror"
	"github.com/tansive/assetvault/internal/common/apperrors"
)

// InitialVersion is the version of an asset's root commit.
const InitialVersion = "01.00.00"

// maxComponent is the largest value a two digit version component can hold.
const maxComponent = 99

type Bump string

const (
	BumpMajor Bump = "major"
	BumpMinor Bump = "minor"
	BumpPatch Bump = "patch"
)

// ResetPolicy decides what happens to lower components on a bump.
type ResetPolicy string

const (
	// ResetNone keeps major, minor and patch as independent counters.
	ResetNone ResetPolicy = "none"
	// ResetSemver zeroes every component below the bumped one.
	ResetSemver ResetPolicy = "semver"
)

func ParseBump(s string) (Bump, apperrors.Error) {
	if s == "" {
		return BumpMinor, nil
	}
	if !schemavalidator.ValidateVersionBump(s) {
		return "", vcserror.ErrInvalidInput.Msg("invalid version bump: " + s + "; expected major, minor or patch")
	}
	return Bump(s), nil
}

// ParseVersion splits a "MM.mm.pp" version into its numeric components.
func ParseVersion(version string) ([3]int, apperrors.Error) {
	var parts [3]int
	if !schemavalidator.ValidateVersionNumber(version) {
		return parts, vcserror.ErrInvalidVersion.Msg("invalid version number: " + version)
	}
	for i, s := range strings.Split(version, ".") {
		n, err := strconv.Atoi(s)
		if err != nil {
			return parts, vcserror.ErrInvalidVersion.Msg("invalid version number: " + version)
		}
		parts[i] = n
	}
	return parts, nil
}

func FormatVersion(parts [3]int) string {
	return fmt.Sprintf("%02d.%02d.%02d", parts[0], parts[1], parts[2])
}

// NextVersion increments the bumped component of current by one.
func NextVersion(current string, bump Bump, policy ResetPolicy) (string, apperrors.Error) {
	parts, err := ParseVersion(current)
	if err != nil {
		return "", err
	}
	var idx int
	switch bump {
	case BumpMajor:
		idx = 0
	case BumpMinor:
		idx = 1
	case BumpPatch:
		idx = 2
	default:
		return "", vcserror.ErrInvalidInput.Msg("invalid version bump: " + string(bump))
	}
	if parts[idx] >= maxComponent {
		return "", vcserror.ErrInvalidVersion.Msg("cannot bump " + string(bump) + " of version " + current + " past 99")
	}
	parts[idx]++
	if policy == ResetSemver {
		for i := idx + 1; i < len(parts); i++ {
			parts[i] = 0
		}
	}
	return FormatVersion(parts), nil
}
