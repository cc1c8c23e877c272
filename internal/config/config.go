package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Query     QueryConfig     `mapstructure:"query"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// DatabaseConfig selects the gorm dialect. Postgres is the production store;
// sqlite serves local runs and tests.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LogLevel        string        `mapstructure:"log_level"`
}

// DSN builds the driver-specific connection string.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type ProvidersConfig struct {
	Provider1 ProviderConfig `mapstructure:"provider1"`
	Provider2 ProviderConfig `mapstructure:"provider2"`
}

type ProviderConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type IngestConfig struct {
	// AbortOnStoreError restores the legacy behavior of abandoning the rest of a
	// provider batch after a non-duplicate persistence failure.
	AbortOnStoreError bool `mapstructure:"abort_on_store_error"`
	RecordRuns        bool `mapstructure:"record_runs"`
}

// ArchiveConfig points the raw payload archive at an S3-compatible bucket.
type ArchiveConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Type      string `mapstructure:"type"` // r2, s3, s3compatible; detected from endpoint when empty
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Prefix    string `mapstructure:"prefix"`
}

type SchedulerConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Cron       string `mapstructure:"cron"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

type QueryConfig struct {
	Retries      int           `mapstructure:"retries"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	DefaultLimit int           `mapstructure:"default_limit"`
	MaxLimit     int           `mapstructure:"max_limit"`
}

// Load reads configuration from an optional YAML file, .env and the environment.
// Parameters:
//   - configPath: explicit config file; empty searches ./configs and the working dir.
// Returns:
//   - *Config: validated configuration.
//   - error: non-nil if the file is unreadable or a value is invalid.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Names kept compatible with the existing deployment environment.
	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.host", "POSTGRES_HOST")
	v.BindEnv("database.port", "POSTGRES_PORT")
	v.BindEnv("database.user", "POSTGRES_USER")
	v.BindEnv("database.password", "POSTGRES_PASSWORD")
	v.BindEnv("database.name", "POSTGRES_DB")
	v.BindEnv("cache.redis_url", "REDIS_URL")
	v.BindEnv("scheduler.cron", "JOB_FETCH_CRON")
	v.BindEnv("providers.provider1.url", "PROVIDER1_URL")
	v.BindEnv("providers.provider2.url", "PROVIDER2_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/joboffers.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "joboffers")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.redis_url", "redis://localhost:6379/0")
	v.SetDefault("cache.ttl", "30s")

	v.SetDefault("providers.provider1.enabled", true)
	v.SetDefault("providers.provider1.url", "https://assignment.devotel.io/api/provider1/jobs")
	v.SetDefault("providers.provider1.timeout", "10s")
	v.SetDefault("providers.provider2.enabled", true)
	v.SetDefault("providers.provider2.url", "https://assignment.devotel.io/api/provider2/jobs")
	v.SetDefault("providers.provider2.timeout", "10s")

	v.SetDefault("ingest.abort_on_store_error", false)
	v.SetDefault("ingest.record_runs", true)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.cron", "@every 1m")
	v.SetDefault("scheduler.run_on_start", true)

	v.SetDefault("query.retries", 2)
	v.SetDefault("query.initial_delay", "1s")
	v.SetDefault("query.default_limit", 10)
	v.SetDefault("query.max_limit", 100)

	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.use_ssl", true)
	v.SetDefault("archive.prefix", "raw")
}

// Validate checks values that would otherwise fail late, at first use.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}

	for name, p := range map[string]ProviderConfig{
		"provider1": c.Providers.Provider1,
		"provider2": c.Providers.Provider2,
	} {
		if !p.Enabled {
			continue
		}
		if _, err := url.ParseRequestURI(p.URL); err != nil {
			return fmt.Errorf("providers.%s.url is invalid: %w", name, err)
		}
		if p.Timeout <= 0 {
			return fmt.Errorf("providers.%s.timeout must be positive", name)
		}
	}

	if c.Scheduler.Enabled {
		if _, err := cron.ParseStandard(c.Scheduler.Cron); err != nil {
			return fmt.Errorf("scheduler.cron %q is invalid: %w", c.Scheduler.Cron, err)
		}
	}

	if c.Archive.Enabled && (c.Archive.Endpoint == "" || c.Archive.Bucket == "") {
		return fmt.Errorf("archive.endpoint and archive.bucket are required when archive is enabled")
	}

	if c.Query.Retries < 0 {
		return fmt.Errorf("query.retries must not be negative")
	}
	if c.Query.InitialDelay < 0 {
		return fmt.Errorf("query.initial_delay must not be negative")
	}
	if c.Query.DefaultLimit < 1 {
		return fmt.Errorf("query.default_limit must be at least 1")
	}
	if c.Query.MaxLimit < c.Query.DefaultLimit {
		return fmt.Errorf("query.max_limit must be >= query.default_limit")
	}
	return nil
}
