package blobstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key   string
		valid bool
	}{
		{"skateboard/staging/V1StGXR8/skateboard.usda", true},
		{"thumbnail.png", true},
		{"", false},
		{"/abs/path", false},
		{"a/../b", false},
		{"a//b", false},
		{"a\\b", false},
		{"a/./b", false},
	}
	for _, tt := range tests {
		err := ValidateKey(tt.key)
		if tt.valid {
			assert.Nil(t, err, tt.key)
		} else {
			assert.NotNil(t, err, tt.key)
		}
	}
}
