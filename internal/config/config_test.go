package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clientcore/internal/blob"
	"clientcore/internal/core"
	"clientcore/pkg/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
  static_dir: "public"
  cors_origins: ["http://localhost:3000"]
policy: rut_mandatory
log:
  mode: dev
  level: debug
storage:
  driver: sqlite
  sqlite_path: "/tmp/clients.db"
blob:
  driver: s3
  key: "exports/clients.json"
  s3:
    region: us-east-1
    bucket: snapshots
    endpoint: "http://localhost:9000"
    path_style: true
metrics:
  enabled: false
  driver: expvar
trace:
  enabled: true
  path: "/tmp/spans.jsonl"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "public", cfg.Server.StaticDir)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 10, cfg.Server.ShutdownSeconds)
	assert.Equal(t, "dev", cfg.Log.Mode)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, MetricsExpvar, cfg.Metrics.Driver)
	assert.True(t, cfg.Trace.Enabled)
	assert.Equal(t, "/tmp/spans.jsonl", cfg.Trace.Path)

	policy, err := cfg.ParsedPolicy()
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyRutMandatory, policy)

	opts := cfg.StorageOptions()
	assert.Equal(t, core.StorageSQLite, opts.Driver)
	assert.Equal(t, "/tmp/clients.db", opts.SQLitePath)
	assert.Equal(t, "data/clients.json", opts.FilePath)
	assert.Equal(t, blob.DriverS3, opts.Blob.Driver)
	assert.Equal(t, "snapshots", opts.Blob.S3.Bucket)
	assert.True(t, opts.Blob.S3.PathStyle)
	assert.Equal(t, "exports/clients.json", opts.BlobKey)
	require.NoError(t, cfg.Validate())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, string(domain.PolicyFlexible), cfg.Policy)
	assert.Equal(t, "prod", cfg.Log.Mode)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, string(core.StorageFile), cfg.Storage.Driver)
	assert.Equal(t, "data/clients.json", cfg.Storage.FilePath)
	assert.Equal(t, string(blob.DriverFilesystem), cfg.Blob.Driver)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, MetricsPrometheus, cfg.Metrics.Driver)
	assert.False(t, cfg.Trace.Enabled)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "server: [not, a, map"))
	require.Error(t, err)
}

func TestLoadFromEnvMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = LoadFromEnv("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
policy: flexible
storage:
  driver: file
`)
	t.Setenv("CLIENTCORE_POLICY", "rut_mandatory")
	t.Setenv("CLIENTCORE_ADDR", "127.0.0.1:7000")
	t.Setenv("CLIENTCORE_CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("CLIENTCORE_STORAGE_DRIVER", "redis")
	t.Setenv("CLIENTCORE_REDIS_ADDR", "redis://cache:6379/2")
	t.Setenv("CLIENTCORE_REDIS_KEY", "clients")
	t.Setenv("CLIENTCORE_S3_PATH_STYLE", "true")
	t.Setenv("CLIENTCORE_METRICS_ENABLED", "false")
	t.Setenv("CLIENTCORE_LOG_MODE", "dev")
	t.Setenv("CLIENTCORE_METRICS_DRIVER", "expvar")
	t.Setenv("CLIENTCORE_TRACE_ENABLED", "true")
	t.Setenv("CLIENTCORE_TRACE_PATH", "spans.jsonl")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "rut_mandatory", cfg.Policy)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, core.StorageRedis, cfg.StorageOptions().Driver)
	assert.Equal(t, "redis://cache:6379/2", cfg.Storage.RedisAddr)
	assert.Equal(t, "clients", cfg.Storage.RedisKey)
	assert.True(t, cfg.Blob.S3.PathStyle)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "dev", cfg.Log.Mode)
	assert.Equal(t, MetricsExpvar, cfg.Metrics.Driver)
	assert.True(t, cfg.Trace.Enabled)
	assert.Equal(t, "spans.jsonl", cfg.Trace.Path)
}

func TestLoadFromEnvRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"CLIENTCORE_POLICY":          "strict",
		"CLIENTCORE_STORAGE_DRIVER":  "mongo",
		"CLIENTCORE_BLOB_DRIVER":     "gcs",
		"CLIENTCORE_LOG_MODE":        "verbose",
		"CLIENTCORE_METRICS_ENABLED": "maybe",
		"CLIENTCORE_METRICS_DRIVER":  "statsd",
		"CLIENTCORE_TRACE_ENABLED":   "sometimes",
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, value)
			_, err := LoadFromEnv("")
			require.Error(t, err)
		})
	}
}

func TestLoadFromEnvPropagatesParseErrors(t *testing.T) {
	_, err := LoadFromEnv(writeConfig(t, "policy: [broken"))
	require.Error(t, err)
}
