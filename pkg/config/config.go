// Package config loads the realty-crm YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// APIVersionV1 is the only supported configuration version.
const APIVersionV1 = "v1"

// Backend and storage names.
const (
	ActorHTTP   = "http"
	ActorMemory = "memory"

	StorageMemory   = "memory"
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

// Config holds the complete client configuration.
type Config struct {
	APIVersion string           `yaml:"apiVersion"`
	Actor      ActorConfig      `yaml:"actor"`
	Identity   IdentityConfig   `yaml:"identity"`
	Cache      CacheConfig      `yaml:"cache"`
	Storage    StorageConfig    `yaml:"storage"`
	Database   DatabaseConfig   `yaml:"database"`
	Audit      AuditConfig      `yaml:"audit"`
	Attendance AttendanceConfig `yaml:"attendance"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ActorConfig selects the remote backend.
type ActorConfig struct {
	Backend  string        `yaml:"backend"`
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`

	// Admins are the principals treated as administrators by the memory
	// backend. Ignored for http.
	Admins []string `yaml:"admins"`
}

// IdentityConfig configures login tokens.
type IdentityConfig struct {
	// Token is used when no token has been saved by a previous login.
	Token      string `yaml:"token"`
	SigningKey string `yaml:"signing_key"`
	Issuer     string `yaml:"issuer"`
}

// CacheConfig tunes the query cache.
type CacheConfig struct {
	RetryDelay    time.Duration `yaml:"retry_delay"`
	RetryMaxDelay time.Duration `yaml:"retry_max_delay"`
	RetryAttempts uint          `yaml:"retry_attempts"`
	LoadTimeout   time.Duration `yaml:"load_timeout"`
}

// StorageConfig selects where local state such as the customer phone and
// saved token is kept.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// AuditConfig configures the mutation audit trail.
type AuditConfig struct {
	Enabled       bool `yaml:"enabled"`
	RetentionDays int  `yaml:"retention_days"`

	// Capacity is the number of events kept in memory when no database is
	// configured.
	Capacity int `yaml:"capacity"`
}

// AttendanceConfig configures the capture flow.
type AttendanceConfig struct {
	LocationTimeout time.Duration `yaml:"location_timeout"`
	ConfidenceScore float64       `yaml:"confidence_score"`
}

// LoggingConfig configures the process log handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from path and applies defaults. An empty path
// yields the defaults alone.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		// #nosec G304 -- path is from CLI args, controlled by the user
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		data = []byte(expandEnvVars(string(data)))

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if cfg.APIVersion == "" {
		cfg.APIVersion = APIVersionV1
	}
	if cfg.APIVersion != APIVersionV1 {
		return nil, fmt.Errorf("unsupported config apiVersion %q", cfg.APIVersion)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.Actor.Backend == "" {
		cfg.Actor.Backend = ActorMemory
	}
	if cfg.Actor.Timeout == 0 {
		cfg.Actor.Timeout = 30 * time.Second
	}
	if cfg.Cache.RetryDelay == 0 {
		cfg.Cache.RetryDelay = time.Second
	}
	if cfg.Cache.RetryMaxDelay == 0 {
		cfg.Cache.RetryMaxDelay = 30 * time.Second
	}
	if cfg.Cache.RetryAttempts == 0 {
		cfg.Cache.RetryAttempts = 3
	}
	if cfg.Cache.LoadTimeout == 0 {
		cfg.Cache.LoadTimeout = 15 * time.Second
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = StorageFile
	}
	if cfg.Storage.Backend == StorageFile && cfg.Storage.Path == "" {
		cfg.Storage.Path = defaultStatePath()
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 5
	}
	if cfg.Audit.RetentionDays == 0 {
		cfg.Audit.RetentionDays = 90
	}
	if cfg.Audit.Capacity == 0 {
		cfg.Audit.Capacity = 500
	}
	if cfg.Attendance.LocationTimeout == 0 {
		cfg.Attendance.LocationTimeout = 15 * time.Second
	}
	if cfg.Attendance.ConfidenceScore == 0 {
		cfg.Attendance.ConfidenceScore = 95
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".realty-crm", "state.yaml")
	}
	return filepath.Join(dir, "realty-crm", "state.yaml")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	switch c.Actor.Backend {
	case ActorHTTP:
		if c.Actor.Endpoint == "" {
			errs = append(errs, "actor.endpoint is required for the http backend")
		}
	case ActorMemory:
	default:
		errs = append(errs, fmt.Sprintf("actor.backend must be http or memory, got %q", c.Actor.Backend))
	}

	switch c.Storage.Backend {
	case StorageMemory:
	case StorageFile:
		if c.Storage.Path == "" {
			errs = append(errs, "storage.path is required for the file backend")
		}
	case StoragePostgres:
		if c.Database.DSN == "" {
			errs = append(errs, "database.dsn is required for the postgres storage backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.backend must be memory, file or postgres, got %q", c.Storage.Backend))
	}

	if c.Audit.RetentionDays < 0 {
		errs = append(errs, "audit.retention_days must not be negative")
	}
	if c.Attendance.ConfidenceScore < 0 || c.Attendance.ConfidenceScore > 100 {
		errs = append(errs, "attendance.confidence_score must be between 0 and 100")
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Logging.Level) {
		errs = append(errs, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Sprintf("logging.format %q is not one of text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
