package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cfgTestFilePerms = 0o600

// writeTestConfig writes a YAML config to a temp dir and returns the path.
func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), cfgTestFilePerms))
	return configPath
}

func TestLoad_ValidFile(t *testing.T) {
	path := writeTestConfig(t, `
apiVersion: v1
actor:
  backend: http
  endpoint: https://crm.example.com
  timeout: 10s
identity:
  issuer: realty
storage:
  backend: memory
cache:
  retry_attempts: 5
attendance:
  location_timeout: 5s
logging:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ActorHTTP, cfg.Actor.Backend)
	assert.Equal(t, "https://crm.example.com", cfg.Actor.Endpoint)
	assert.Equal(t, 10*time.Second, cfg.Actor.Timeout)
	assert.Equal(t, "realty", cfg.Identity.Issuer)
	assert.Equal(t, uint(5), cfg.Cache.RetryAttempts)
	assert.Equal(t, 5*time.Second, cfg.Attendance.LocationTimeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EmptyPathGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, APIVersionV1, cfg.APIVersion)
	assert.Equal(t, ActorMemory, cfg.Actor.Backend)
	assert.Equal(t, 30*time.Second, cfg.Actor.Timeout)
	assert.Equal(t, StorageFile, cfg.Storage.Backend)
	assert.NotEmpty(t, cfg.Storage.Path)
	assert.Equal(t, uint(3), cfg.Cache.RetryAttempts)
	assert.Equal(t, 15*time.Second, cfg.Cache.LoadTimeout)
	assert.Equal(t, 90, cfg.Audit.RetentionDays)
	assert.Equal(t, 500, cfg.Audit.Capacity)
	assert.Equal(t, 15*time.Second, cfg.Attendance.LocationTimeout)
	assert.InDelta(t, 95, cfg.Attendance.ConfidenceScore, 0)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_UnknownAPIVersion(t *testing.T) {
	_, err := Load(writeTestConfig(t, "apiVersion: v9\n"))
	assert.ErrorContains(t, err, `unsupported config apiVersion "v9"`)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeTestConfig(t, "actor: [unterminated"))
	assert.ErrorContains(t, err, "parsing config")
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("REALTY_TEST_DSN", "postgres://crm@localhost/crm")
	cfg, err := Load(writeTestConfig(t, `
storage:
  backend: postgres
database:
  dsn: ${REALTY_TEST_DSN}
`))
	require.NoError(t, err)
	assert.Equal(t, "postgres://crm@localhost/crm", cfg.Database.DSN)
	assert.NoError(t, cfg.Validate())
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("REALTY_TEST_A", "alpha")
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"${REALTY_TEST_A}", "alpha"},
		{"x-${REALTY_TEST_A}-y", "x-alpha-y"},
		{"${REALTY_TEST_UNSET}", ""},
		{"$REALTY_TEST_A", "$REALTY_TEST_A"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, expandEnvVars(tt.in), tt.in)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"http without endpoint", func(c *Config) { c.Actor.Backend = ActorHTTP }, "actor.endpoint is required"},
		{"unknown actor", func(c *Config) { c.Actor.Backend = "grpc" }, `actor.backend must be http or memory, got "grpc"`},
		{"file without path", func(c *Config) { c.Storage.Path = "" }, "storage.path is required"},
		{"postgres without dsn", func(c *Config) { c.Storage.Backend = StoragePostgres }, "database.dsn is required"},
		{"unknown storage", func(c *Config) { c.Storage.Backend = "s3" }, "storage.backend must be"},
		{"negative retention", func(c *Config) { c.Audit.RetentionDays = -1 }, "audit.retention_days"},
		{"confidence too high", func(c *Config) { c.Attendance.ConfidenceScore = 120 }, "attendance.confidence_score"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, `logging.level "trace"`},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, `logging.format "xml"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestValidate_AggregatesErrors(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Actor.Backend = ActorHTTP
	cfg.Logging.Format = "xml"

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation errors:")
	assert.Contains(t, err.Error(), "actor.endpoint")
	assert.Contains(t, err.Error(), "logging.format")
}
