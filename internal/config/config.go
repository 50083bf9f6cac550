package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	Cache     CacheConfig     `yaml:"cache"`
	SendGrid  SendGridConfig  `yaml:"sendgrid"`
	Firebase  FirebaseConfig  `yaml:"firebase"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	ShutdownTimeout int    `yaml:"shutdown_timeout_seconds"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// WorkflowConfig contains the RCCA lifecycle and reporting settings
type WorkflowConfig struct {
	GracePeriodHours     int      `yaml:"grace_period_hours"`
	ResubmittedAsPending *bool    `yaml:"resubmitted_as_pending"`
	Categories           []string `yaml:"categories"`
	Factories            []string `yaml:"factories"`
	DefaultFactory       string   `yaml:"default_factory"`
}

// CacheConfig selects where unsynced drafts are kept
type CacheConfig struct {
	Backend   string `yaml:"backend"` // "memory", "redis" or "file"
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`
	RedisKey  string `yaml:"redis_key"`
	Dir       string `yaml:"dir"` // for the file backend
}

// SendGridConfig contains email delivery settings. Email is disabled when
// APIKey is empty.
type SendGridConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// FirebaseConfig contains push delivery settings. Push is disabled when
// CredentialsFile is empty.
type FirebaseConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	SyncLocalDrafts      string `yaml:"sync_local_drafts"`
	RefreshStatusMetrics string `yaml:"refresh_status_metrics"`
}

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheFile   = "file"
)

// DefaultCategories is the error category vocabulary used by the Pareto
// chart when none is configured.
var DefaultCategories = []string{
	"Human Error",
	"Equipment Failure",
	"Process Deviation",
	"Material Defect",
	"External Factors",
	"Design Flaw",
	"Maintenance Lapse",
	"Measurement Error",
	"Training Gap",
	"Communication Failure",
	"Documentation Error",
	"Software/Control Error",
	"Environmental Condition",
	"Logistics/Handling Issue",
	"Time Constraint",
	"Unknown",
}

var DefaultFactories = []string{"DPL 1", "DPL 2", "URIL"}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse builds a configuration from YAML bytes, applies environment
// overrides and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Cache
	if val := os.Getenv("CACHE_BACKEND"); val != "" {
		c.Cache.Backend = val
	}
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Cache.RedisAddr = val
	}
	if val := os.Getenv("DRAFT_CACHE_DIR"); val != "" {
		c.Cache.Dir = val
	}

	// Notifications
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}
	if val := os.Getenv("FIREBASE_CREDENTIALS_FILE"); val != "" {
		c.Firebase.CredentialsFile = val
	}

	// Workflow
	if val := os.Getenv("GRACE_PERIOD_HOURS"); val != "" {
		fmt.Sscanf(val, "%d", &c.Workflow.GracePeriodHours)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 15
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry <= 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	// Workflow defaults
	if c.Workflow.GracePeriodHours < 0 {
		return fmt.Errorf("grace period must not be negative: %d", c.Workflow.GracePeriodHours)
	}
	if c.Workflow.GracePeriodHours == 0 {
		c.Workflow.GracePeriodHours = 7 * 24
	}
	if c.Workflow.ResubmittedAsPending == nil {
		yes := true
		c.Workflow.ResubmittedAsPending = &yes
	}
	if len(c.Workflow.Categories) == 0 {
		c.Workflow.Categories = append([]string(nil), DefaultCategories...)
	}
	if len(c.Workflow.Factories) == 0 {
		c.Workflow.Factories = append([]string(nil), DefaultFactories...)
	}
	if c.Workflow.DefaultFactory == "" {
		c.Workflow.DefaultFactory = c.Workflow.Factories[0]
	}

	// Cache validation
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	switch c.Cache.Backend {
	case "":
		c.Cache.Backend = CacheMemory
	case CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("redis address is required for the redis cache backend")
		}
	case CacheFile:
		if c.Cache.Dir == "" {
			return fmt.Errorf("cache directory is required for the file cache backend")
		}
	default:
		return fmt.Errorf("unknown cache backend: %s", c.Cache.Backend)
	}

	// SendGrid validation
	if c.SendGrid.APIKey != "" && c.SendGrid.FromEmail == "" {
		return fmt.Errorf("sendgrid from_email is required when an API key is set")
	}
	if c.SendGrid.FromName == "" {
		c.SendGrid.FromName = "RCCA"
	}

	// Scheduler defaults
	if c.Scheduler.SyncLocalDrafts == "" {
		c.Scheduler.SyncLocalDrafts = "0 */5 * * * *" // every 5 minutes
	}
	if c.Scheduler.RefreshStatusMetrics == "" {
		c.Scheduler.RefreshStatusMetrics = "0 * * * * *" // every minute
	}

	return nil
}

// GracePeriod returns the admin edit window after approval.
func (c *Config) GracePeriod() time.Duration {
	return time.Duration(c.Workflow.GracePeriodHours) * time.Hour
}

// CountResubmittedAsPending reports whether Resubmitted records count as
// pending in the employee breakdown.
func (c *Config) CountResubmittedAsPending() bool {
	return c.Workflow.ResubmittedAsPending == nil || *c.Workflow.ResubmittedAsPending
}

// AccessTokenTTL returns the lifetime of issued access tokens.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWT.AccessTokenExpiry) * time.Minute
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
