package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	SMTP          SMTPConfig          `yaml:"smtp"`
	SendGrid      SendGridConfig      `yaml:"sendgrid"`
	Email         EmailConfig         `yaml:"email"`
	Firebase      FirebaseConfig      `yaml:"firebase"`
	JWT           JWTConfig           `yaml:"jwt"`
	Storage       StorageConfig       `yaml:"storage"`
	Log           LogConfig           `yaml:"log"`
	Lifecycle     LifecycleConfig     `yaml:"lifecycle"`
	Idempotency   IdempotencyConfig   `yaml:"idempotency"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
}

// ServerConfig contains gRPC and HTTP listener settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	GRPCPort int    `yaml:"grpc_port"`
	HTTPPort int    `yaml:"http_port"`
}

// DatabaseConfig selects the store. Driver "memory" ignores the connection
// settings.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "postgres" or "memory"
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	Migrate  bool   `yaml:"migrate"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// SMTPConfig contains email service settings
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type SendGridConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

type EmailConfig struct {
	Provider string `yaml:"provider"` // "smtp" or "sendgrid"
}

type FirebaseConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// StorageConfig contains avatar storage settings
type StorageConfig struct {
	Type      string `yaml:"type"` // "local"
	UploadDir string `yaml:"upload_dir"`
	BaseURL   string `yaml:"base_url"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

type LifecycleConfig struct {
	MaxAttempts    int `yaml:"max_attempts"`
	RetryBackoffMs int `yaml:"retry_backoff_ms"`
}

type IdempotencyConfig struct {
	Backend    string `yaml:"backend"` // "memory" or "redis"
	TTLMinutes int    `yaml:"ttl_minutes"`
}

// NotificationsConfig configures the outbox relay. Exactly one process
// should relay: the server when RelayInServer is set, the cronjob otherwise.
type NotificationsConfig struct {
	RelayInServer       bool     `yaml:"relay_in_server"`
	BatchSize           int      `yaml:"batch_size"`
	MaxAttempts         int      `yaml:"max_attempts"`
	PollIntervalSeconds int      `yaml:"poll_interval_seconds"`
	Sinks               []string `yaml:"sinks"` // "notification", "message", "email", "push", "kafka"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	DrainOutbox            string `yaml:"drain_outbox"`
	PurgeDeliveredEvents   string `yaml:"purge_delivered_events"`
	DeliveredRetentionDays int    `yaml:"delivered_retention_days"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

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
	if val := os.Getenv("DB_DRIVER"); val != "" {
		c.Database.Driver = val
	}
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

	// Redis
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	// Kafka
	if val := os.Getenv("KAFKA_BROKERS"); val != "" {
		c.Kafka.Brokers = strings.Split(val, ",")
	}
	if val := os.Getenv("KAFKA_TOPIC"); val != "" {
		c.Kafka.Topic = val
	}

	// SMTP
	if val := os.Getenv("SMTP_HOST"); val != "" {
		c.SMTP.Host = val
	}
	if val := os.Getenv("SMTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.SMTP.Port)
	}
	if val := os.Getenv("SMTP_USER"); val != "" {
		c.SMTP.User = val
	}
	if val := os.Getenv("SMTP_PASSWORD"); val != "" {
		c.SMTP.Password = val
	}
	if val := os.Getenv("SMTP_FROM"); val != "" {
		c.SMTP.From = val
	}

	// SendGrid
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_GRPC_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.GRPCPort)
	}
	if val := os.Getenv("SERVER_HTTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.HTTPPort)
	}

	// Storage
	if val := os.Getenv("UPLOAD_DIR"); val != "" {
		c.Storage.UploadDir = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.GRPCPort <= 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.Server.GRPCPort)
	}
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.GRPCPort == c.Server.HTTPPort {
		return fmt.Errorf("gRPC and HTTP ports must differ")
	}

	// Database validation
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	switch c.Database.Driver {
	case "memory":
		// The cronjob would relay from its own empty store.
		if !c.Notifications.RelayInServer {
			return fmt.Errorf("the memory database driver requires notifications.relay_in_server")
		}
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	default:
		return fmt.Errorf("unknown database driver: %s", c.Database.Driver)
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	// Storage validation
	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}
	if c.Storage.UploadDir == "" {
		return fmt.Errorf("upload directory is required")
	}

	// Idempotency
	if c.Idempotency.Backend == "" {
		c.Idempotency.Backend = "memory"
	}
	switch c.Idempotency.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for the redis idempotency backend")
		}
	default:
		return fmt.Errorf("unknown idempotency backend: %s", c.Idempotency.Backend)
	}
	if c.Idempotency.TTLMinutes == 0 {
		c.Idempotency.TTLMinutes = 24 * 60
	}

	// Lifecycle defaults
	if c.Lifecycle.MaxAttempts == 0 {
		c.Lifecycle.MaxAttempts = 3
	}
	if c.Lifecycle.RetryBackoffMs == 0 {
		c.Lifecycle.RetryBackoffMs = 20
	}

	// Notifications
	if c.Notifications.BatchSize == 0 {
		c.Notifications.BatchSize = 100
	}
	if c.Notifications.MaxAttempts == 0 {
		c.Notifications.MaxAttempts = 5
	}
	if c.Notifications.PollIntervalSeconds == 0 {
		c.Notifications.PollIntervalSeconds = 5
	}
	if len(c.Notifications.Sinks) == 0 {
		c.Notifications.Sinks = []string{"notification", "message"}
	}
	for _, sink := range c.Notifications.Sinks {
		if err := c.validateSink(sink); err != nil {
			return err
		}
	}

	// Scheduler defaults
	if c.Scheduler.DrainOutbox == "" {
		c.Scheduler.DrainOutbox = "*/10 * * * * *" // Every 10 seconds
	}
	if c.Scheduler.PurgeDeliveredEvents == "" {
		c.Scheduler.PurgeDeliveredEvents = "0 0 3 * * *" // 3 AM UTC
	}
	if c.Scheduler.DeliveredRetentionDays == 0 {
		c.Scheduler.DeliveredRetentionDays = 7
	}

	return nil
}

func (c *Config) validateSink(sink string) error {
	switch sink {
	case "notification", "message":
		return nil
	case "email":
		switch c.Email.Provider {
		case "", "smtp":
			c.Email.Provider = "smtp"
			if c.SMTP.Host == "" {
				return fmt.Errorf("SMTP host is required for the email sink")
			}
			if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
				return fmt.Errorf("invalid SMTP port: %d", c.SMTP.Port)
			}
		case "sendgrid":
			if c.SendGrid.APIKey == "" {
				return fmt.Errorf("SendGrid API key is required for the email sink")
			}
		default:
			return fmt.Errorf("unknown email provider: %s", c.Email.Provider)
		}
		return nil
	case "push":
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("firebase project id is required for the push sink")
		}
		return nil
	case "kafka":
		if len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "" {
			return fmt.Errorf("kafka brokers and topic are required for the kafka sink")
		}
		return nil
	default:
		return fmt.Errorf("unknown notification sink: %s", sink)
	}
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

// GetGRPCAddress returns the gRPC listen address
func (c *Config) GetGRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}

// GetHTTPAddress returns the HTTP listen address
func (c *Config) GetHTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}
