package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Store backend names
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Email    EmailConfig    `mapstructure:"email"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// StoreConfig holds invoice store configuration
type StoreConfig struct {
	Backend  string         `mapstructure:"backend"` // memory, file, sqlite
	FilePath string         `mapstructure:"file_path"`
	CacheTTL time.Duration  `mapstructure:"cache_ttl"`
	Database DatabaseConfig `mapstructure:"database"`
}

// DatabaseConfig holds sqlite configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// EmailConfig holds email provider configuration
type EmailConfig struct {
	APIURL      string        `mapstructure:"api_url"`
	APIKey      string        `mapstructure:"api_key"`
	FromAddress string        `mapstructure:"from_address"`
	FromName    string        `mapstructure:"from_name"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ReminderConfig holds reminder engine configuration
type ReminderConfig struct {
	RunToken        string        `mapstructure:"run_token"` // bearer token for the manual trigger
	Interval        time.Duration `mapstructure:"interval"`  // scheduler period; 0 disables the scheduler
	PaymentLinkBase string        `mapstructure:"payment_link_base"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Store defaults
	viper.SetDefault("store.backend", BackendFile)
	viper.SetDefault("store.file_path", "data/invoices.json")
	viper.SetDefault("store.cache_ttl", 30*time.Second)
	viper.SetDefault("store.database.path", "data/invoicing.db")
	viper.SetDefault("store.database.max_open_conns", 25)
	viper.SetDefault("store.database.max_idle_conns", 5)
	viper.SetDefault("store.database.conn_max_lifetime", 5*time.Minute)

	// Email defaults
	viper.SetDefault("email.api_url", "https://api.resend.com/emails")
	viper.SetDefault("email.from_name", "Invoicing")
	viper.SetDefault("email.timeout", 15*time.Second)

	// Reminder defaults
	viper.SetDefault("reminder.interval", 24*time.Hour)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// Sensitive credentials from environment
	viper.BindEnv("email.api_key", "EMAIL_API_KEY")
	viper.BindEnv("email.from_address", "EMAIL_FROM_ADDRESS")
	viper.BindEnv("reminder.run_token", "REMINDER_RUN_TOKEN")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Store.FilePath == "" {
			return fmt.Errorf("store.file_path is required for the file backend")
		}
	case BackendSQLite:
		if c.Store.Database.Path == "" {
			return fmt.Errorf("store.database.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown store backend: %q", c.Store.Backend)
	}

	if c.Email.APIKey == "" {
		return fmt.Errorf("email.api_key is required")
	}
	if c.Email.FromAddress == "" {
		return fmt.Errorf("email.from_address is required")
	}
	if c.Reminder.RunToken == "" {
		return fmt.Errorf("reminder.run_token is required")
	}

	return nil
}
