// Package config loads the clientcore configuration from a YAML file and
// CLIENTCORE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"clientcore/internal/blob"
	"clientcore/internal/core"
	"clientcore/internal/infra/persistence/file"
	"clientcore/pkg/domain"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CLIENTCORE_"

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Policy  string        `yaml:"policy"`
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	Blob    BlobConfig    `yaml:"blob"`
	Metrics MetricsConfig `yaml:"metrics"`
	Trace   TraceConfig   `yaml:"trace"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	StaticDir       string   `yaml:"static_dir"`
	CORSOrigins     []string `yaml:"cors_origins"`
	ShutdownSeconds int      `yaml:"shutdown_seconds"`
}

// LogConfig selects the zap preset and minimum level.
type LogConfig struct {
	Mode  string `yaml:"mode"` // "dev" or "prod"
	Level string `yaml:"level"`
}

// StorageConfig selects the snapshot store backend
type StorageConfig struct {
	Driver      string `yaml:"driver"`
	FilePath    string `yaml:"file_path"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisKey    string `yaml:"redis_key"`
}

// BlobConfig configures the blob store used by the object driver and exports.
type BlobConfig struct {
	Driver string   `yaml:"driver"`
	FSRoot string   `yaml:"fs_root"`
	Key    string   `yaml:"key"`
	S3     S3Config `yaml:"s3"`
}

// S3Config holds S3 (or S3-compatible) settings
type S3Config struct {
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	PathStyle       bool   `yaml:"path_style"`
}

// Metrics drivers.
const (
	MetricsPrometheus = "prometheus"
	MetricsExpvar     = "expvar"
)

// MetricsConfig toggles the /metrics endpoint and selects its recorder.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Driver  string `yaml:"driver"` // "prometheus" or "expvar"
}

// TraceConfig enables JSON span lines per service operation. An empty
// Path writes them to stderr.
type TraceConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{Metrics: MetricsConfig{Enabled: true}}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Config{Metrics: MetricsConfig{Enabled: true}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads the YAML file when it exists, then applies CLIENTCORE_*
// environment overrides. An empty path or a missing file yields defaults.
func LoadFromEnv(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		loaded, err := Load(path)
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownSeconds == 0 {
		c.Server.ShutdownSeconds = 10
	}
	if c.Policy == "" {
		c.Policy = string(domain.DefaultPolicy)
	}
	if c.Log.Mode == "" {
		c.Log.Mode = "prod"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = string(core.StorageFile)
	}
	if c.Storage.FilePath == "" {
		c.Storage.FilePath = file.DefaultPath
	}
	if c.Blob.Driver == "" {
		c.Blob.Driver = string(blob.DriverFilesystem)
	}
	if c.Blob.FSRoot == "" {
		c.Blob.FSRoot = "data/blobs"
	}
	if c.Metrics.Driver == "" {
		c.Metrics.Driver = MetricsPrometheus
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
		return nil
	}

	str("ADDR", &c.Server.Addr)
	str("STATIC_DIR", &c.Server.StaticDir)
	if v, ok := lookup(EnvPrefix + "CORS_ORIGINS"); ok && v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	str("POLICY", &c.Policy)
	str("LOG_MODE", &c.Log.Mode)
	str("LOG_LEVEL", &c.Log.Level)
	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("STORAGE_FILE_PATH", &c.Storage.FilePath)
	str("SQLITE_PATH", &c.Storage.SQLitePath)
	str("POSTGRES_DSN", &c.Storage.PostgresDSN)
	str("REDIS_ADDR", &c.Storage.RedisAddr)
	str("REDIS_KEY", &c.Storage.RedisKey)
	str("BLOB_DRIVER", &c.Blob.Driver)
	str("BLOB_FS_ROOT", &c.Blob.FSRoot)
	str("BLOB_KEY", &c.Blob.Key)
	str("S3_REGION", &c.Blob.S3.Region)
	str("S3_BUCKET", &c.Blob.S3.Bucket)
	str("S3_ENDPOINT", &c.Blob.S3.Endpoint)
	str("S3_ACCESS_KEY_ID", &c.Blob.S3.AccessKeyID)
	str("S3_SECRET_ACCESS_KEY", &c.Blob.S3.SecretAccessKey)
	str("S3_SESSION_TOKEN", &c.Blob.S3.SessionToken)
	if err := boolean("S3_PATH_STYLE", &c.Blob.S3.PathStyle); err != nil {
		return err
	}
	if err := boolean("METRICS_ENABLED", &c.Metrics.Enabled); err != nil {
		return err
	}
	str("METRICS_DRIVER", &c.Metrics.Driver)
	str("TRACE_PATH", &c.Trace.Path)
	return boolean("TRACE_ENABLED", &c.Trace.Enabled)
}

// Validate rejects unknown policy, storage, blob, metrics and log mode names.
func (c *Config) Validate() error {
	if _, err := domain.ParsePolicy(c.Policy); err != nil {
		return err
	}
	switch core.StorageDriver(c.Storage.Driver) {
	case core.StorageMemory, core.StorageFile, core.StorageSQLite, core.StoragePostgres, core.StorageRedis, core.StorageObject:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch blob.Driver(c.Blob.Driver) {
	case blob.DriverFilesystem, blob.DriverS3, blob.DriverMemory:
	default:
		return fmt.Errorf("unknown blob driver %q", c.Blob.Driver)
	}
	if c.Metrics.Driver != MetricsPrometheus && c.Metrics.Driver != MetricsExpvar {
		return fmt.Errorf("unknown metrics driver %q", c.Metrics.Driver)
	}
	if c.Log.Mode != "dev" && c.Log.Mode != "prod" {
		return fmt.Errorf("unknown log mode %q", c.Log.Mode)
	}
	return nil
}

// ParsedPolicy returns the configured policy.
func (c *Config) ParsedPolicy() (domain.Policy, error) {
	return domain.ParsePolicy(c.Policy)
}

// BlobOptions converts the blob section into blob.Options.
func (c *Config) BlobOptions() blob.Options {
	return blob.Options{
		Driver: blob.Driver(c.Blob.Driver),
		FSRoot: c.Blob.FSRoot,
		S3: blob.S3Config{
			Region:          c.Blob.S3.Region,
			Bucket:          c.Blob.S3.Bucket,
			Endpoint:        c.Blob.S3.Endpoint,
			AccessKeyID:     c.Blob.S3.AccessKeyID,
			SecretAccessKey: c.Blob.S3.SecretAccessKey,
			SessionToken:    c.Blob.S3.SessionToken,
			PathStyle:       c.Blob.S3.PathStyle,
		},
	}
}

// StorageOptions converts the storage and blob sections into core.StorageOptions.
func (c *Config) StorageOptions() core.StorageOptions {
	return core.StorageOptions{
		Driver:      core.StorageDriver(c.Storage.Driver),
		FilePath:    c.Storage.FilePath,
		SQLitePath:  c.Storage.SQLitePath,
		PostgresDSN: c.Storage.PostgresDSN,
		RedisAddr:   c.Storage.RedisAddr,
		RedisKey:    c.Storage.RedisKey,
		Blob:        c.BlobOptions(),
		BlobKey:     c.Blob.Key,
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
