package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

type DocStoreConfig struct {
	Backend          string   `toml:"backend"` // memory, mongodb, postgres
	URI              string   `toml:"uri"`
	Database         string   `toml:"database"`
	OperationTimeout Duration `toml:"operation_timeout"`
}

type BlobStoreConfig struct {
	Backend          string   `toml:"backend"` // memory, filesystem, s3
	DataDir          string   `toml:"data_dir"`
	Compress         bool     `toml:"compress"`
	Bucket           string   `toml:"bucket"`
	Region           string   `toml:"region"`
	Endpoint         string   `toml:"endpoint"`
	AccessKeyID      string   `toml:"access_key_id"`
	SecretAccessKey  string   `toml:"secret_access_key"`
	OperationTimeout Duration `toml:"operation_timeout"`
	MaxUploadBytes   int64    `toml:"max_upload_bytes"`
}

type AuthConfig struct {
	Mode      string `toml:"mode"` // none, header, jwt
	Header    string `toml:"header"`
	JWTSecret string `toml:"jwt_secret"`
}

type VCSConfig struct {
	AutoApproveCheckin   bool     `toml:"auto_approve_checkin"`
	VersionResetPolicy   string   `toml:"version_reset_policy"` // none, semver
	AdvanceRetryAttempts uint     `toml:"advance_retry_attempts"`
	AdvanceRetryDelay    Duration `toml:"advance_retry_delay"`
	CommitCacheSize      int      `toml:"commit_cache_size"`
	CommitCacheTTL       Duration `toml:"commit_cache_ttl"`
}

type ConfigParam struct {
	ServerPort         string          `toml:"server_port"`
	HandleCORS         bool            `toml:"handle_cors"`
	CORSAllowedOrigins []string        `toml:"cors_allowed_origins"`
	LogLevel           string          `toml:"log_level"`
	DocStore           DocStoreConfig  `toml:"docstore"`
	BlobStore          BlobStoreConfig `toml:"blobstore"`
	Auth               AuthConfig      `toml:"auth"`
	VCS                VCSConfig       `toml:"vcs"`
}

// Duration accepts either a Go duration string ("5s") or the short day/year
// forms understood by ParseDuration.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

var cfg *ConfigParam

func Config() *ConfigParam {
	return cfg
}

func defaultConfig() *ConfigParam {
	return &ConfigParam{
		ServerPort:         "8194",
		HandleCORS:         true,
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		LogLevel:           "info",
		DocStore: DocStoreConfig{
			Backend:  "memory",
			Database: "assetvault",
		},
		BlobStore: BlobStoreConfig{
			Backend: "memory",
		},
		Auth: AuthConfig{
			Mode: "none",
		},
		VCS: VCSConfig{
			AutoApproveCheckin: true,
			VersionResetPolicy: "none",
		},
	}
}

func applyDefaults(c *ConfigParam) {
	if c.ServerPort == "" {
		c.ServerPort = "8194"
	}
	if c.DocStore.Backend == "" {
		c.DocStore.Backend = "memory"
	}
	if c.DocStore.Database == "" {
		c.DocStore.Database = "assetvault"
	}
	if c.DocStore.OperationTimeout.Duration == 0 {
		c.DocStore.OperationTimeout.Duration = 5 * time.Second
	}
	if c.BlobStore.Backend == "" {
		c.BlobStore.Backend = "memory"
	}
	if c.BlobStore.OperationTimeout.Duration == 0 {
		c.BlobStore.OperationTimeout.Duration = 30 * time.Second
	}
	if c.BlobStore.MaxUploadBytes == 0 {
		c.BlobStore.MaxUploadBytes = 100 * 1024 * 1024
	}
	if c.Auth.Mode == "" {
		c.Auth.Mode = "none"
	}
	if c.Auth.Header == "" {
		c.Auth.Header = "X-Asset-User"
	}
	if c.VCS.VersionResetPolicy == "" {
		c.VCS.VersionResetPolicy = "none"
	}
	if c.VCS.AdvanceRetryAttempts == 0 {
		c.VCS.AdvanceRetryAttempts = 3
	}
	if c.VCS.AdvanceRetryDelay.Duration == 0 {
		c.VCS.AdvanceRetryDelay.Duration = 50 * time.Millisecond
	}
	if c.VCS.CommitCacheSize == 0 {
		c.VCS.CommitCacheSize = 1024
	}
	if c.VCS.CommitCacheTTL.Duration == 0 {
		c.VCS.CommitCacheTTL.Duration = 5 * time.Minute
	}
}

func LoadConfig(filename string) error {
	if filename == "" {
		c := defaultConfig()
		applyDefaults(c)
		cfg = c
		return nil
	}
	// Read the config file
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}
	// Parse the config file on top of the defaults
	cp := defaultConfig()
	if _, err := toml.Decode(string(content), cp); err != nil {
		return fmt.Errorf("error parsing config file: %v", err)
	}
	if err := validate(cp); err != nil {
		return err
	}
	applyDefaults(cp)
	cfg = cp
	return nil
}

func validate(c *ConfigParam) error {
	switch c.DocStore.Backend {
	case "memory", "mongodb", "postgres":
	default:
		return fmt.Errorf("unsupported docstore backend: %s", c.DocStore.Backend)
	}
	switch c.BlobStore.Backend {
	case "memory", "filesystem", "s3":
	default:
		return fmt.Errorf("unsupported blobstore backend: %s", c.BlobStore.Backend)
	}
	if c.BlobStore.Backend == "filesystem" && c.BlobStore.DataDir == "" {
		return fmt.Errorf("blobstore data_dir is required for the filesystem backend")
	}
	if c.BlobStore.Backend == "s3" && c.BlobStore.Bucket == "" {
		return fmt.Errorf("blobstore bucket is required for the s3 backend")
	}
	switch c.Auth.Mode {
	case "none", "header":
	case "jwt":
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth jwt_secret is required in jwt mode")
		}
	default:
		return fmt.Errorf("unsupported auth mode: %s", c.Auth.Mode)
	}
	switch c.VCS.VersionResetPolicy {
	case "none", "semver":
	default:
		return fmt.Errorf("unsupported version_reset_policy: %s", c.VCS.VersionResetPolicy)
	}
	return nil
}

// ParseDuration parses Go durations plus a count followed by d (days) or y (years).
func ParseDuration(input string) (time.Duration, error) {
	if d, err := time.ParseDuration(input); err == nil {
		return d, nil
	}
	if len(input) < 2 {
		return 0, fmt.Errorf("invalid input format")
	}

	unit := input[len(input)-1:]
	valueStr := input[:len(input)-1]
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", err)
	}

	switch unit {
	case "d":
		return time.Duration(value) * 24 * time.Hour, nil
	case "y":
		// Assuming 1 year = 365 days for simplicity
		return time.Duration(value) * 365 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown time unit: %s", unit)
	}
}

func init() {
	err := LoadConfig("")
	if err != nil {
		panic(err)
	}
}
