package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default name of the config file
const DefaultConfigFile = "config.yaml"

// Config holds the server location and the identity assetctl acts as.
type Config struct {
	// Version of the configuration file format
	Version string `yaml:"version"`
	// Server is the URL of the asset server, e.g. http://localhost:8194
	Server string `yaml:"server"`
	// User is the identity sent as requester and creator
	User string `yaml:"user"`
	// IdentityHeader carries User when the server runs in header auth mode
	IdentityHeader string `yaml:"identity_header,omitempty"`
	// Token is a bearer token for servers running in jwt auth mode
	Token string `yaml:"token,omitempty"`
}

var config *Config

// GetDefaultConfigPath returns the default path for the config file
// It uses the OS-specific config directory (e.g., ~/.config/assetvault on Linux)
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "assetvault", DefaultConfigFile), nil
}

// LoadConfig loads the configuration from the specified file
// If no file is specified, it uses the default config location
func LoadConfig(file string) error {
	if file == "" {
		var err error
		file, err = GetDefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get default config path: %w", err)
		}
	}

	yamlStr, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("unable to read config file: %w", err)
	}

	var c Config
	if err = yaml.Unmarshal(yamlStr, &c); err != nil {
		return fmt.Errorf("unable to parse config file: %w", err)
	}
	c.Server = MorphServer(c.Server)
	if err := c.ValidateConfig(); err != nil {
		return err
	}

	config = &c
	return nil
}

// GetConfig returns the current configuration
func GetConfig() *Config {
	return config
}

// SetConfig replaces the active configuration.
func SetConfig(c *Config) {
	config = c
}

// WriteConfig writes the configuration to file, creating its directory.
func (cfg *Config) WriteConfig(file string) error {
	if file == "" {
		return errors.New("file path cannot be empty")
	}

	err := os.MkdirAll(filepath.Dir(file), os.ModePerm)
	if err != nil {
		return fmt.Errorf("unable to create config directory: %w", err)
	}

	yamlStr, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("unable to generate configuration: %w", err)
	}

	err = os.WriteFile(file, yamlStr, os.FileMode(0600))
	if err != nil {
		return fmt.Errorf("unable to write config file: %w", err)
	}

	return nil
}

// ValidateConfig checks for required fields and proper formatting
func (cfg *Config) ValidateConfig() error {
	if cfg.Server == "" {
		return errors.New("server is required")
	}
	if !strings.HasPrefix(cfg.Server, "http://") && !strings.HasPrefix(cfg.Server, "https://") {
		return errors.New("server must start with http:// or https://")
	}
	if strings.Count(cfg.Server, ":") < 2 {
		return errors.New("server must include port number")
	}
	if cfg.User == "" && cfg.Token == "" {
		return errors.New("user or token is required")
	}
	if strings.ContainsAny(cfg.User, " \t") {
		return errors.New("user must not contain spaces")
	}
	return nil
}

// MorphServer ensures the server URL is properly formatted
// Adds http:// prefix if missing and removes trailing slashes
func MorphServer(server string) string {
	if server == "" {
		return server
	}

	server = strings.TrimRight(server, "/")

	if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
		server = "http://" + server
	}

	return server
}

// GetServerURL returns the properly formatted server URL
func (cfg *Config) GetServerURL() string {
	return MorphServer(cfg.Server)
}
