package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server           ServerConfig                     `yaml:"server"`
	Logging          LoggingConfig                    `yaml:"logging"`
	Database         DatabaseConfig                   `yaml:"database"`
	TrackedDatabases map[string]TrackedDatabaseConfig `yaml:"tracked_databases"`
	Eligibility      EligibilityConfig                `yaml:"eligibility"`
	Redis            RedisConfig                      `yaml:"redis"`
	Audit            AuditConfig                      `yaml:"audit"`
	Import           ImportConfig                     `yaml:"import"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns host:port for the HTTP listener.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig is the admin database. It stores tracked_connections and,
// when no tracked database is configured, also serves as the "default" ref.
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_seconds"`
}

// TrackedDatabaseConfig is a statically configured tracked database. Pool
// sizes come from DatabaseConfig and apply to every tracked pool.
type TrackedDatabaseConfig struct {
	DSN    string `yaml:"dsn"`
	Schema string `yaml:"schema"`
}

// EligibilityConfig tunes the check pipeline.
type EligibilityConfig struct {
	OccupancyLimit        int    `yaml:"occupancy_limit"`
	LookupFailurePolicy   string `yaml:"lookup_failure_policy"`
	Canonicalizer         string `yaml:"canonicalizer"` // native | database
	CanonicalizeFunction  string `yaml:"canonicalize_function"`
	DefaultDatabase       string `yaml:"default_database"`
	ConnectTimeoutSeconds int    `yaml:"connect_timeout_seconds"`
}

// ConnectTimeout returns the connect timeout as a duration
func (c EligibilityConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}

// UseDatabaseCanonicalizer reports whether normalization runs in SQL.
func (c EligibilityConfig) UseDatabaseCanonicalizer() bool {
	return strings.EqualFold(c.Canonicalizer, "database")
}

// RedisConfig holds Redis connection settings. An empty URL disables
// Redis-backed locks and the audit stream.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// AuditConfig controls the audit stream.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Stream  string `yaml:"stream"`
	MaxLen  int64  `yaml:"max_len"`
}

// ImportConfig controls CSV imports from S3.
type ImportConfig struct {
	Enabled    bool   `yaml:"enabled"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Region   string `yaml:"s3_region"`
	AWSProfile string `yaml:"aws_profile"` // Empty string uses default credential chain
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Prefix     string `yaml:"prefix"`
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c ImportConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 3
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 300
	}
	if c.Eligibility.OccupancyLimit <= 0 {
		c.Eligibility.OccupancyLimit = 5
	}
	if c.Eligibility.LookupFailurePolicy == "" {
		c.Eligibility.LookupFailurePolicy = "fail_open"
	}
	if c.Eligibility.Canonicalizer == "" {
		c.Eligibility.Canonicalizer = "native"
	}
	if c.Eligibility.CanonicalizeFunction == "" {
		c.Eligibility.CanonicalizeFunction = "normalize_address_field"
	}
	if c.Eligibility.DefaultDatabase == "" {
		c.Eligibility.DefaultDatabase = "default"
	}
	if c.Eligibility.ConnectTimeoutSeconds == 0 {
		c.Eligibility.ConnectTimeoutSeconds = 5
	}
	if c.Audit.Stream == "" {
		c.Audit.Stream = "audit:address-eligibility"
	}
	if c.Audit.MaxLen == 0 {
		c.Audit.MaxLen = 10000
	}
	if c.Import.S3Region == "" {
		c.Import.S3Region = "us-east-1"
	}
}

// LoadFromEnv loads config with environment variable overrides
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ELIGIBILITY_OCCUPANCY_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ELIGIBILITY_OCCUPANCY_LIMIT %q: %w", v, err)
		}
		if limit > 0 {
			cfg.Eligibility.OccupancyLimit = limit
		}
	}
	if v := os.Getenv("ELIGIBILITY_LOOKUP_FAILURE_POLICY"); v != "" {
		cfg.Eligibility.LookupFailurePolicy = v
	}
	if v := os.Getenv("IMPORT_S3_BUCKET"); v != "" {
		cfg.Import.S3Bucket = v
		cfg.Import.Enabled = true
	}
	if v := os.Getenv("IMPORT_S3_REGION"); v != "" {
		cfg.Import.S3Region = v
	}
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		cfg.Import.AccessKey = v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		cfg.Import.SecretKey = v
	}
	if v := os.Getenv("TRACKED_DATABASE_DSN"); v != "" {
		ref := os.Getenv("TRACKED_DATABASE_REF")
		if ref == "" {
			ref = "default"
		}
		if cfg.TrackedDatabases == nil {
			cfg.TrackedDatabases = make(map[string]TrackedDatabaseConfig)
		}
		td := cfg.TrackedDatabases[ref]
		td.DSN = v
		cfg.TrackedDatabases[ref] = td
	}

	return cfg, nil
}
