package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Scoro      ScoroConfig      `mapstructure:"scoro"`
	ClearBooks ClearBooksConfig `mapstructure:"clearbooks"`
	Sync       SyncConfig       `mapstructure:"sync"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// ScoroConfig holds Scoro API configuration
type ScoroConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	APIKey           string        `mapstructure:"api_key"`
	CompanyAccountID string        `mapstructure:"company_account_id"`
	Lang             string        `mapstructure:"lang"`
	PerPage          int           `mapstructure:"per_page"`
	APITimeout       time.Duration `mapstructure:"api_timeout"`
}

// ClearBooksConfig holds ClearBooks API configuration
type ClearBooksConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	APITimeout time.Duration `mapstructure:"api_timeout"`
}

// SyncConfig holds reconciliation run configuration
type SyncConfig struct {
	// FromDate is the floor issue date for invoices to pick up (YYYY-MM-DD).
	FromDate string `mapstructure:"from_date"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from the environment and an optional config file
func Load(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVars()

	if configPath != "" {
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

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
	viper.SetDefault("server.write_timeout", 5*time.Minute)

	// Scoro defaults: placeholders so a fresh checkout starts and fails loudly
	// on the first remote call rather than at boot
	viper.SetDefault("scoro.base_url", "https://example.scoro.com/api/v2/")
	viper.SetDefault("scoro.api_key", "scoro-api-key")
	viper.SetDefault("scoro.company_account_id", "example")
	viper.SetDefault("scoro.lang", "eng")
	viper.SetDefault("scoro.per_page", 40)
	viper.SetDefault("scoro.api_timeout", 30*time.Second)

	// ClearBooks defaults
	viper.SetDefault("clearbooks.api_key", "clearbooks-api-key")
	viper.SetDefault("clearbooks.api_timeout", 30*time.Second)

	// Sync defaults
	viper.SetDefault("sync.from_date", "2016-09-01")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("scoro.base_url", "SCORO_BASE_URL")
	viper.BindEnv("scoro.api_key", "SCORO_API_KEY")
	viper.BindEnv("scoro.company_account_id", "SCORO_COMPANY_ACCOUNT_ID")
	viper.BindEnv("scoro.lang", "SCORO_LANG")
	viper.BindEnv("scoro.per_page", "SCORO_PER_PAGE")
	viper.BindEnv("clearbooks.api_key", "CLEARBOOKS_API_KEY")
	viper.BindEnv("sync.from_date", "SYNC_FROM_DATE")
	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("logger.level", "LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Scoro.BaseURL == "" {
		return fmt.Errorf("scoro.base_url is required")
	}
	if c.Scoro.APIKey == "" {
		return fmt.Errorf("scoro.api_key is required")
	}
	if c.Scoro.CompanyAccountID == "" {
		return fmt.Errorf("scoro.company_account_id is required")
	}
	if c.Scoro.PerPage <= 0 {
		return fmt.Errorf("scoro.per_page must be positive")
	}
	if c.ClearBooks.APIKey == "" {
		return fmt.Errorf("clearbooks.api_key is required")
	}
	if _, err := time.Parse("2006-01-02", c.Sync.FromDate); err != nil {
		return fmt.Errorf("sync.from_date must be YYYY-MM-DD: %w", err)
	}
	return nil
}
