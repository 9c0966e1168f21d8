// Package config provides configuration management for the DeveHub server.
// Configuration can be loaded from YAML files and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Store      StoreConfig      `mapstructure:"store"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Router     RouterConfig     `mapstructure:"router"`
	Payout     PayoutConfig     `mapstructure:"payout"`
	Developer  DeveloperConfig  `mapstructure:"developer"`
	Seed       SeedConfig       `mapstructure:"seed"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
}

// Addr returns the listen address in host:port format.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StoreConfig selects the record store backend. Both backends keep every
// record in process memory.
type StoreConfig struct {
	// Driver is "memory" or "sqlite".
	Driver string `mapstructure:"driver"`

	// SQLite settings (used when Driver is "sqlite")
	BusyTimeout int `mapstructure:"busy_timeout"` // Milliseconds to wait for locks
	CacheSize   int `mapstructure:"cache_size"`   // Page cache size (negative = KB)
}

// IsSQLite returns true if the embedded SQLite store is selected.
func (c StoreConfig) IsSQLite() bool {
	return c.Driver == "sqlite"
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled determines if metrics collection is active.
	Enabled bool `mapstructure:"enabled"`

	// Path is the URL path for the metrics endpoint.
	Path string `mapstructure:"path"`

	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace"`
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	// Enabled determines if rate limiting is active.
	Enabled bool `mapstructure:"enabled"`

	// RequestsPerSecond is the rate of token refill per client.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`

	// BurstSize is the maximum number of tokens (burst capacity).
	BurstSize int `mapstructure:"burst_size"`
}

// SimulationConfig holds the latencies of the simulated external calls.
type SimulationConfig struct {
	LoginDelay    time.Duration `mapstructure:"login_delay"`
	PurchaseDelay time.Duration `mapstructure:"purchase_delay"`
	FeedbackDelay time.Duration `mapstructure:"feedback_delay"`

	// TaskRetention is how long finished deferred intents stay queryable.
	TaskRetention time.Duration `mapstructure:"task_retention"`
}

// RouterConfig holds hash router settings.
type RouterConfig struct {
	// RoleGuard sends signed-out visitors of role-scoped views to login.
	RoleGuard bool `mapstructure:"role_guard"`
}

// PayoutConfig holds payout cycle settings.
type PayoutConfig struct {
	// Enabled determines if the payout cycle runs automatically.
	Enabled bool `mapstructure:"enabled"`

	// Schedule is a standard 5-field cron expression.
	Schedule string `mapstructure:"schedule"`

	// Timeout bounds a single run.
	Timeout time.Duration `mapstructure:"timeout"`

	// LockTTL bounds how long a crashed run can hold the cycle lock.
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

// DeveloperConfig holds the demo developer identity.
type DeveloperConfig struct {
	// Name is the display name given to developer sessions.
	Name string `mapstructure:"name"`

	// VerificationCodeHash is the bcrypt hash of the payout verification
	// code. Empty means the demo code.
	VerificationCodeHash string `mapstructure:"verification_code_hash"`

	// AdminEmail is the identity of the admin quick entry.
	AdminEmail string `mapstructure:"admin_email"`
}

// DemoVerificationCode is hashed at startup when no hash is configured.
const DemoVerificationCode = "123456"

// SeedConfig holds mock data generation settings.
type SeedConfig struct {
	// RandomSeed makes generated licenses reproducible. Zero picks one.
	RandomSeed uint64 `mapstructure:"random_seed"`

	// CatalogPath overrides the embedded catalog.
	CatalogPath string `mapstructure:"catalog_path"`
}

// Load reads configuration from the specified file and environment variables.
// Environment variables take precedence over file values.
// Environment variables are prefixed with DEVEHUB_ and use _ as separator.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Environment variable configuration
	v.SetEnvPrefix("DEVEHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file configuration
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/devehub")
	}

	// Read config file (optional - environment variables can be used instead)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is acceptable - use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.max_body_size", 1<<20) // 1MB

	// Store defaults
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.busy_timeout", 5000)
	v.SetDefault("store.cache_size", -2000)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "devehub")

	// Rate limiting defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst_size", 40)

	// Simulation defaults
	v.SetDefault("simulation.login_delay", 800*time.Millisecond)
	v.SetDefault("simulation.purchase_delay", 2*time.Second)
	v.SetDefault("simulation.feedback_delay", 500*time.Millisecond)
	v.SetDefault("simulation.task_retention", 15*time.Minute)

	// Router defaults
	v.SetDefault("router.role_guard", false)

	// Payout cycle defaults
	v.SetDefault("payout.enabled", true)
	v.SetDefault("payout.schedule", "5 0 * * *")
	v.SetDefault("payout.timeout", time.Minute)
	v.SetDefault("payout.lock_ttl", 5*time.Minute)

	// Developer defaults
	v.SetDefault("developer.name", "PixelLabs")
	v.SetDefault("developer.verification_code_hash", "")
	v.SetDefault("developer.admin_email", "admin@devehub.com")

	// Seed defaults
	v.SetDefault("seed.random_seed", 0)
	v.SetDefault("seed.catalog_path", "")
}

// Validate checks the configuration for required values and valid ranges.
func (c *Config) Validate() error {
	// Validate server configuration
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	// Validate store configuration
	validDrivers := map[string]bool{"memory": true, "sqlite": true}
	if !validDrivers[c.Store.Driver] {
		return fmt.Errorf("store.driver must be 'memory' or 'sqlite'")
	}

	// Validate simulation configuration
	if c.Simulation.LoginDelay < 0 || c.Simulation.PurchaseDelay < 0 || c.Simulation.FeedbackDelay < 0 {
		return fmt.Errorf("simulation delays must not be negative")
	}

	// Validate payout configuration
	if _, err := cron.ParseStandard(c.Payout.Schedule); err != nil {
		return fmt.Errorf("payout.schedule is not a valid cron expression: %w", err)
	}

	// Validate rate limit configuration
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.BurstSize < 1) {
		return fmt.Errorf("rate_limit requires a positive requests_per_second and burst_size")
	}

	// Validate developer configuration
	if strings.TrimSpace(c.Developer.Name) == "" {
		return fmt.Errorf("developer.name is required")
	}

	// Validate logging configuration
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error, fatal, panic")
	}

	return nil
}

// MustLoad loads configuration or panics on error.
// Useful for main function initialization.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
