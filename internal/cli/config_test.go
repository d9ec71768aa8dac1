package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		config  string
		wantErr bool
	}{
		{
			name: "valid config",
			config: `version: 1.0
server: "localhost:8194"
user: "js123"`,
			wantErr: false,
		},
		{
			name: "token only",
			config: `version: 1.0
server: "https://assets.example.com:443"
token: "abc"`,
			wantErr: false,
		},
		{
			name: "missing server",
			config: `version: 1.0
user: "js123"`,
			wantErr: true,
		},
		{
			name: "missing identity",
			config: `version: 1.0
server: "localhost:8194"`,
			wantErr: true,
		},
		{
			name: "missing port",
			config: `version: 1.0
server: "localhost"
user: "js123"`,
			wantErr: true,
		},
		{
			name: "user with spaces",
			config: `version: 1.0
server: "localhost:8194"
user: "j s"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := filepath.Join(tmpDir, "config.yaml")
			require.NoError(t, os.WriteFile(configFile, []byte(tt.config), 0644))

			err := LoadConfig(configFile)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			cfg := GetConfig()
			require.NotNil(t, cfg)
			assert.NoError(t, cfg.ValidateConfig())
			assert.Regexp(t, "^https?://", cfg.GetServerURL())
		})
	}
}

func TestMorphServer(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty string", input: "", expected: ""},
		{name: "no protocol", input: "example.com:8080", expected: "http://example.com:8080"},
		{name: "with http", input: "http://example.com:8080", expected: "http://example.com:8080"},
		{name: "with https", input: "https://example.com:8080", expected: "https://example.com:8080"},
		{name: "with trailing slash", input: "http://example.com:8080/", expected: "http://example.com:8080"},
		{name: "with multiple trailing slashes", input: "http://example.com:8080///", expected: "http://example.com:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MorphServer(tt.input))
		})
	}
}

func TestWriteConfig(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &Config{
		Version: "1.0",
		Server:  "http://example.com:8080",
		User:    "js123",
	}

	configFile := filepath.Join(tmpDir, "nested", "config.yaml")
	require.NoError(t, cfg.WriteConfig(configFile))
	require.NoError(t, LoadConfig(configFile))
	assert.Equal(t, cfg, GetConfig())

	assert.Error(t, cfg.WriteConfig(""))
}
