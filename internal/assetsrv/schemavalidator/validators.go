// Package schemavalidator holds the shared validator instance and the custom
// tags used on request types.
package schemavalidator

import (
	"regexp"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	v    *validator.Validate
	once sync.Once
)

// V returns the process wide validator with the custom tags registered.
func V() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterValidation("assetName", assetNameValidator)
		v.RegisterValidation("versionBump", versionBumpValidator)
		v.RegisterValidation("versionNumber", versionNumberValidator)
		v.RegisterValidation("noSpaces", noSpacesValidator)
	})
	return v
}

const assetNameRegex = `^[A-Za-z0-9][A-Za-z0-9_-]*$`
const assetNameMaxLength = 128

var assetNameRe = regexp.MustCompile(assetNameRegex)

func assetNameValidator(fl validator.FieldLevel) bool {
	return ValidateAssetName(fl.Field().String())
}

// ValidateAssetName reports whether name can be used as an asset name.
func ValidateAssetName(name string) bool {
	return len(name) <= assetNameMaxLength && assetNameRe.MatchString(name)
}

var validBumps = []string{"major", "minor", "patch"}

// versionBumpValidator accepts an empty value; callers default it.
func versionBumpValidator(fl validator.FieldLevel) bool {
	bump := fl.Field().String()
	return bump == "" || slices.Contains(validBumps, bump)
}

func ValidateVersionBump(bump string) bool {
	return slices.Contains(validBumps, bump)
}

var versionNumberRe = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{2}$`)

func versionNumberValidator(fl validator.FieldLevel) bool {
	return ValidateVersionNumber(fl.Field().String())
}

func ValidateVersionNumber(version string) bool {
	return versionNumberRe.MatchString(version)
}

func noSpacesValidator(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if r == ' ' || r == '\t' || r == '\n' {
			return false
		}
	}
	return true
}
